package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/audit"
	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	dbaudit "github.com/mrlokans/bookstore/internal/database/audit"
	http_controllers "github.com/mrlokans/bookstore/internal/http"
	"github.com/mrlokans/bookstore/internal/middleware"
	"github.com/mrlokans/bookstore/internal/scheduler"
	"github.com/mrlokans/bookstore/internal/services"
	"github.com/mrlokans/bookstore/internal/tasks"
)

// rateLimiterSweep is how often idle per-IP limiters are dropped.
const rateLimiterSweep = time.Minute

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT; SIGKILL can't be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background workers stop after in-flight requests so their audit
	// events are still written.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// OpenDatabase runs migrations when configured and opens the store.
func OpenDatabase(cfg *config.Config) (*database.Database, error) {
	if cfg.Bootstrap.AutoMigrate {
		if err := database.Migrate(cfg.Database.Driver, cfg.Database.DSN); err != nil {
			return nil, err
		}
	}

	db, err := database.NewDatabase(database.Options{
		Driver:   cfg.Database.Driver,
		DSN:      cfg.Database.DSN,
		LogLevel: cfg.Database.LogLevel,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Bootstrap.SeedOnStart {
		created, err := database.Seed(context.Background(), db.DB)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if created > 0 {
			log.Printf("Seeded catalog with %d books", created)
		}
	}

	return db, nil
}

// csrfKey derives the CSRF key from the session secret, generating a secret
// for this process when none is configured.
func csrfKey(cfg config.Session) ([]byte, error) {
	secret := cfg.Secret
	if secret == "" {
		generated, err := middleware.GenerateSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		log.Printf("Generated session secret (set SESSION_SECRET to keep forms valid across restarts)")
	}
	return middleware.DeriveCSRFKey(secret)
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookstore v%s", version)

	db, err := OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	auditService := audit.NewService(dbaudit.NewRepository(db.DB))
	defer auditService.Flush()

	catalog := services.NewCatalogService(db.DB, auditService)
	billing := services.NewBillingService(db.DB, auditService)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var cleanupEnqueuer scheduler.AuditCleanupEnqueuer = scheduler.InlineCleanup{Cleaner: auditService}
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Tasks.DatabasePath, tasks.Config{Workers: cfg.Tasks.Workers})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewCleanupAuditEventsQueue(auditService))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
		cleanupEnqueuer = taskClient
	}

	cleanupScheduler := scheduler.NewAuditCleanupScheduler(cleanupEnqueuer, cfg.Audit.CleanupSchedule, cfg.Audit.RetentionDays)
	if err := cleanupScheduler.Start(context.Background()); err != nil {
		log.Printf("WARNING: audit cleanup disabled: %v", err)
	}

	// Sessions live in the main database on SQLite and in memory otherwise.
	sqlDB, err := db.SQLDB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	if db.Driver != database.DriverSQLite {
		sqlDB = nil
	}
	sessions := middleware.NewSessionManager(sqlDB, cfg.Session)

	key, err := csrfKey(cfg.Session)
	if err != nil {
		log.Fatalf("Failed to derive CSRF key: %v", err)
	}

	var limiter *middleware.IPRateLimiter
	stopSweep := make(chan struct{})
	if cfg.RateLimit.PerSecond > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
		go limiter.RunCleanup(rateLimiterSweep, stopSweep)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Catalog:            catalog,
		Billing:            billing,
		Audit:              auditService,
		DB:                 db,
		AuditCleanup:       cleanupScheduler,
		Sessions:           sessions,
		CSRFKey:            key,
		SecureCookies:      cfg.Session.SecureCookies,
		TemplatesPath:      cfg.UI.TemplatesPath,
		StaticPath:         cfg.UI.StaticPath,
		TrustedProxies:     cfg.HTTP.TrustedProxies,
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		Version:            version,
	})

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		close(stopSweep)
		cleanupScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
