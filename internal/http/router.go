package http

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookstore/internal/middleware"
)

// templateFuncs are available to every page template.
var templateFuncs = template.FuncMap{
	"money": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"formatTime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Printf("WARNING: ignoring TRUSTED_PROXIES: %v", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())

	// Sessions load before CSRF so CSRF's request replacement keeps the
	// session context.
	var flashes Flasher
	if cfg.Sessions != nil {
		router.Use(cfg.Sessions.LoadAndSave())
		flashes = cfg.Sessions
	}

	if len(cfg.CSRFKey) > 0 {
		router.Use(middleware.CSRF(cfg.CSRFKey, cfg.SecureCookies))
	}

	if cfg.RateLimiter != nil {
		router.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	health := NewHealthController(cfg.DB, cfg.Version)
	if cfg.AuditCleanup != nil {
		health.WithAuditCleanup(cfg.AuditCleanup)
	}
	booksController := NewBooksController(cfg.Catalog, flashes)
	billingController := NewBillingController(cfg.Billing, flashes)
	apiController := NewAPIController(cfg.Catalog, cfg.Billing)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	// Catalog pages
	router.GET("/", booksController.Index)
	router.GET("/add", booksController.AddForm)
	router.POST("/add", booksController.Add)
	router.GET("/edit/:book_id", booksController.EditForm)
	router.POST("/edit/:book_id", booksController.Edit)
	router.POST("/delete/:book_id", booksController.Delete)

	// Billing pages
	router.GET("/billing", billingController.BillingForm)
	router.POST("/billing", billingController.CreateBill)
	router.GET("/bills", billingController.Bills)
	router.POST("/bills/delete/:bill_id", billingController.DeleteBill)

	// Read-only JSON API
	api := router.Group("/api")
	if len(cfg.CORSAllowedOrigins) > 0 {
		api.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))
	}
	api.GET("/books", apiController.ListBooks)
	api.GET("/books/:id", apiController.GetBook)
	api.GET("/bills", apiController.ListBills)
	api.GET("/bills/:id", apiController.GetBill)
	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		api.GET("/audit", auditController.GetAuditEvents)
	}

	notFound := pages{flashes: flashes}
	router.NoRoute(func(c *gin.Context) {
		notFound.notFound(c, "Page not found")
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
