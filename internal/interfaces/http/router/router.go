package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/config"
	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/logger"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/dto"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/handler"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/middleware"
)

// apiRateLimitPerMinute caps authenticated API traffic per client.
// Webhook endpoints are exempt: providers batch retries and a 429
// would only delay usage capture.
const apiRateLimitPerMinute = 300

// Handlers collects the HTTP handlers the router mounts
type Handlers struct {
	TelephonyWebhook *handler.TelephonyWebhookHandler
	StripeWebhook    *handler.StripeWebhookHandler
	Usage            *handler.UsageHandler
	Invoice          *handler.InvoiceHandler
	Payment          *handler.PaymentHandler
	Activity         *handler.ActivityHandler
	Admin            *handler.AdminHandler
	System           *handler.SystemHandler
}

// New builds the gin engine with the full middleware chain and all
// routes mounted. Webhook endpoints sit outside the versioned API
// group: providers call them with their own content types and retry
// semantics, so they skip the envelope-shaped 404 handling and get
// only the body limit on top of the base chain.
func New(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(
		middleware.RequestID(),
		logger.RequestLogger(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.HTTP.CORSAllowOrigins,
			AllowMethods: cfg.HTTP.CORSAllowMethods,
			AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found"))
	})

	engine.GET("/health", h.System.Health)
	engine.GET("/health/ready", h.System.Ready)

	webhooks := engine.Group("/webhooks")
	{
		telephony := webhooks.Group("/telephony")
		{
			telephony.POST("/call", h.TelephonyWebhook.HandleCallStatus)
			telephony.POST("/message", h.TelephonyWebhook.HandleMessageStatus)
		}
		webhooks.POST("/stripe", h.StripeWebhook.HandleStripeWebhook)
	}

	api := engine.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.NewRateLimiter(apiRateLimitPerMinute, time.Minute)))
	{
		usage := api.Group("/usage")
		{
			usage.GET("/stats", h.Usage.GetTenantUsage)
			usage.GET("/numbers/:id", h.Usage.GetPhoneNumberUsage)
		}

		invoices := api.Group("/invoices")
		{
			invoices.POST("/generate", h.Invoice.GenerateInvoice)
			invoices.GET("", h.Invoice.ListInvoices)
			invoices.GET("/:id", h.Invoice.GetInvoice)
		}

		payments := api.Group("/payments")
		{
			payments.POST("", h.Payment.RecordPayment)
			payments.GET("", h.Payment.ListPayments)
			payments.GET("/:id", h.Payment.GetPayment)
		}

		api.GET("/tenants/:id/activity", h.Activity.ListActivity)

		admin := api.Group("/admin")
		{
			admin.POST("/sweep/run", h.Admin.TriggerSweep)
		}
	}

	return engine
}
