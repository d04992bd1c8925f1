// Package http assembles the gin route tree and the server that runs it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelgauge/reelgauge/internal/interfaces/http/handlers"
	"github.com/reelgauge/reelgauge/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware the route tree needs.
type RouterConfig struct {
	JobHandler     *handlers.JobHandler
	BillingHandler *handlers.BillingHandler
	AdminHandler   *handlers.AdminHandler
	HealthHandler  *handlers.HealthHandler

	Auth    *middleware.AuthMiddleware
	Logging *middleware.LoggingMiddleware

	// MetricsHandler serves the prometheus scrape endpoint; nil disables it.
	MetricsHandler http.Handler

	// Mode is the gin mode: debug, release, or test.
	Mode string
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	if cfg.Logging != nil {
		r.Use(cfg.Logging.Handler())
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	// The payment webhook authenticates by signature, not bearer token.
	if cfg.BillingHandler != nil {
		r.POST("/webhooks/payment", cfg.BillingHandler.Webhook)
	}

	api := r.Group("/api/v1")
	api.Use(cfg.Auth.Handler())
	{
		if cfg.JobHandler != nil {
			jobs := api.Group("/jobs")
			jobs.POST("", cfg.JobHandler.Submit)
			jobs.GET("/:id", cfg.JobHandler.Get)
			jobs.GET("/:id/events", cfg.JobHandler.Events)
			jobs.GET("/:id/report", cfg.JobHandler.Report)
			jobs.POST("/:id/cancel", cfg.JobHandler.Cancel)
		}

		if cfg.BillingHandler != nil {
			bill := api.Group("/billing")
			bill.GET("/packs", cfg.BillingHandler.Packs)
			bill.GET("/balance", cfg.BillingHandler.Balance)
			bill.GET("/history", cfg.BillingHandler.History)
			bill.POST("/checkout", cfg.BillingHandler.Checkout)
		}

		if cfg.AdminHandler != nil {
			admin := api.Group("/admin")
			admin.Use(cfg.Auth.RequireAdmin())
			admin.POST("/jobs/:id/cancel", cfg.AdminHandler.CancelJob)
			admin.POST("/credits/grant", cfg.AdminHandler.GrantCredits)
		}
	}

	return r
}
