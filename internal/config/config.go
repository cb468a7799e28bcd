package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Session
		UI
		RateLimit
		CORS
		Audit
		Tasks
		Bootstrap
	}

	HTTP struct {
		Port int32
		Host string
		// Proxies whose X-Forwarded-For is believed. Empty means client IPs
		// come from the connection only.
		TrustedProxies []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver   string // sqlite or postgres
		DSN      string
		LogLevel string // silent, error, warn, info
	}
	Session struct {
		Secret        string // Also the input for the CSRF key; generated per process if empty
		Lifetime      time.Duration
		SecureCookies bool // Set to false for local dev without HTTPS
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	RateLimit struct {
		PerSecond float64 // Mutating requests per second per client IP; 0 disables
		Burst     int
	}
	CORS struct {
		AllowedOrigins []string // Applied to /api only; empty disables CORS
	}
	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 30)
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled      bool
		DatabasePath string
		Workers      int
	}
	Bootstrap struct {
		AutoMigrate bool // Run migrations before serving
		SeedOnStart bool // Seed the starter catalog when empty
	}
)

// LoadEnvFiles reads .env and .env.local when present. Variables that are
// already set in the environment win.
func LoadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err == nil {
			log.Printf("Loaded environment from %s", name)
		}
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("trusted_proxies", "")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_dsn", DefaultDatabaseDSN)
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("session_secret", "")      // Generated if empty
	v.SetDefault("session_lifetime", "24h") // 24 hours
	v.SetDefault("secure_cookies", false)   // Enable behind HTTPS

	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	v.SetDefault("rate_limit_per_second", 5)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("cors_allowed_origins", "")

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_database_path", DefaultTasksDatabasePath)
	v.SetDefault("task_workers", 1)

	v.SetDefault("auto_migrate", true)
	v.SetDefault("seed_on_start", false)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),

			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:   v.GetString("DATABASE_DRIVER"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Session: Session{
			Secret:        v.GetString("SESSION_SECRET"),
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			SecureCookies: v.GetBool("SECURE_COOKIES"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		RateLimit: RateLimit{
			PerSecond: v.GetFloat64("RATE_LIMIT_PER_SECOND"),
			Burst:     v.GetInt("RATE_LIMIT_BURST"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:      v.GetBool("TASKS_ENABLED"),
			DatabasePath: v.GetString("TASKS_DATABASE_PATH"),
			Workers:      v.GetInt("TASK_WORKERS"),
		},
		Bootstrap: Bootstrap{
			AutoMigrate: v.GetBool("AUTO_MIGRATE"),
			SeedOnStart: v.GetBool("SEED_ON_START"),
		},
	}
}

// splitList parses a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
