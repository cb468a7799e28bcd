package cli

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
)

// MigrateCommand applies or rolls back the embedded schema migrations.
type MigrateCommand struct {
	Driver string
	DSN    string
	Down   bool
}

// NewMigrateCommand creates a MigrateCommand defaulting to the configured database.
func NewMigrateCommand(cfg *config.Config) *MigrateCommand {
	return &MigrateCommand{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	}
}

// ParseFlags parses command line flags
func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)

	fs.StringVar(&cmd.Driver, "driver", cmd.Driver, "Database driver: sqlite or postgres")
	fs.StringVar(&cmd.DSN, "dsn", cmd.DSN, "Database connection string")
	fs.BoolVar(&cmd.Down, "down", false, "Roll back every migration instead of applying them")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Bring the database schema up to date. Running it twice is a no-op.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the migration
func (cmd *MigrateCommand) Run() error {
	if cmd.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if cmd.Down {
		log.Printf("Rolling back migrations (driver: %s)", cmd.Driver)
		return database.MigrateDown(cmd.Driver, cmd.DSN)
	}

	log.Printf("Applying migrations (driver: %s)", cmd.Driver)
	return database.Migrate(cmd.Driver, cmd.DSN)
}
