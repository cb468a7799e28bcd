package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
)

// SeedCommand loads the starter catalog into an empty database.
type SeedCommand struct {
	Driver  string
	DSN     string
	Migrate bool
}

// NewSeedCommand creates a SeedCommand defaulting to the configured database.
func NewSeedCommand(cfg *config.Config) *SeedCommand {
	return &SeedCommand{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	}
}

// ParseFlags parses command line flags
func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)

	fs.StringVar(&cmd.Driver, "driver", cmd.Driver, "Database driver: sqlite or postgres")
	fs.StringVar(&cmd.DSN, "dsn", cmd.DSN, "Database connection string")
	fs.BoolVar(&cmd.Migrate, "migrate", true, "Apply migrations before seeding")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Insert the starter books when the catalog is empty.\n")
		fmt.Fprintf(os.Stderr, "A catalog that already has books is left untouched.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the seed
func (cmd *SeedCommand) Run() error {
	if cmd.Migrate {
		if err := database.Migrate(cmd.Driver, cmd.DSN); err != nil {
			return err
		}
	}

	db, err := database.NewDatabase(database.Options{Driver: cmd.Driver, DSN: cmd.DSN})
	if err != nil {
		return err
	}
	defer db.Close()

	created, err := database.Seed(context.Background(), db.DB)
	if err != nil {
		return err
	}

	if created == 0 {
		log.Printf("Catalog already has books, nothing to seed")
	} else {
		log.Printf("Seeded %d books", created)
	}
	return nil
}
