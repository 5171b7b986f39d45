package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	billingapp "github.com/BoweryJG/osbackend-sub001/internal/application/billing"
	usageapp "github.com/BoweryJG/osbackend-sub001/internal/application/usage"
	"github.com/BoweryJG/osbackend-sub001/internal/domain/shared"
	billinginfra "github.com/BoweryJG/osbackend-sub001/internal/infrastructure/billing"
	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/cache"
	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/config"
	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/logger"
	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/persistence"
	"github.com/BoweryJG/osbackend-sub001/internal/infrastructure/scheduler"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/handler"
	"github.com/BoweryJG/osbackend-sub001/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting billing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	numberRepo := persistence.NewGormPhoneNumberRepository(db.DB)
	recordRepo := persistence.NewGormUsageRecordRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	sequenceRepo := persistence.NewGormSequenceRepository(db.DB)
	activityRepo := persistence.NewGormActivityLogRepository(db.DB)

	// Idempotency store dedupes webhook redeliveries and alert
	// notifications. Redis is preferred; a single-instance deployment
	// can run on the in-memory fallback.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	dedup, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := dedup.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	sweepLock := newSweepLock(cfg.Redis, log)

	// Usage services
	alertService := usageapp.NewAlertService(tenantRepo, recordRepo, activityRepo, dedup,
		usageapp.AlertThresholds{
			LowBalance: cfg.Billing.LowBalanceAlert,
			HighUsage:  cfg.Billing.HighUsageAlert,
		}, log)
	usageService := usageapp.NewService(numberRepo, recordRepo, tenantRepo, alertService,
		usageapp.RateTable{
			CallInboundPerMinute:  cfg.Rates.CallInboundPerMinute,
			CallOutboundPerMinute: cfg.Rates.CallOutboundPerMinute,
			SMSInbound:            cfg.Rates.SMSInbound,
			SMSOutbound:           cfg.Rates.SMSOutbound,
			MMSInbound:            cfg.Rates.MMSInbound,
			MMSOutbound:           cfg.Rates.MMSOutbound,
		}, log)
	webhookService := usageapp.NewWebhookService(usageService, log)

	// The webhook verifier is always wired. With no configured secret
	// every signature fails verification, so the endpoint rejects
	// everything instead of panicking on a nil verifier.
	stripeVerifier := billinginfra.NewStripeWebhookVerifier(cfg.Stripe.WebhookSecret, log)

	// Invoice mirroring to Stripe is optional; invoices are generated
	// locally either way.
	var mirror billingapp.InvoiceMirror
	if cfg.Stripe.Enabled {
		stripeCfg := &billinginfra.StripeConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			IsTestMode:    cfg.App.Env != "production",
			DaysUntilDue:  int64(cfg.Stripe.DaysUntilDue),
		}
		if err := stripeCfg.Validate(); err != nil {
			log.Fatal("Invalid Stripe configuration", zap.Error(err))
		}
		m, err := billinginfra.NewStripeMirror(stripeCfg, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe mirror", zap.Error(err))
		}
		mirror = m
		log.Info("Stripe invoice mirroring enabled")
	}

	// Billing services
	invoiceService := billingapp.NewInvoiceService(
		invoiceRepo, sequenceRepo, tenantRepo, numberRepo, recordRepo, activityRepo,
		mirror,
		billingapp.BillingPolicy{
			TaxRate:       cfg.Billing.TaxRate,
			DueDays:       cfg.Billing.DueDays,
			MirrorTimeout: cfg.Billing.MirrorTimeout,
		}, log)
	paymentService := billingapp.NewPaymentService(
		paymentRepo, invoiceRepo, sequenceRepo, tenantRepo, activityRepo, log)
	stripeWebhookService := billingapp.NewStripeWebhookService(invoiceRepo, paymentService, dedup, log)
	sweepService := billingapp.NewOverdueSweepService(
		invoiceRepo, tenantRepo, numberRepo, activityRepo, sweepLock, log)

	// Daily overdue sweep
	if cfg.Scheduler.Enabled {
		sweepScheduler := scheduler.NewSweepScheduler(scheduler.SweepSchedulerConfig{
			Hour:          cfg.Scheduler.SweepHour,
			Minute:        cfg.Scheduler.SweepMinute,
			CheckInterval: time.Minute,
			JobTimeout:    cfg.Scheduler.JobTimeout,
			RetryAttempts: cfg.Scheduler.RetryAttempts,
			RetryDelay:    cfg.Scheduler.RetryDelay,
		}, sweepService, log)
		sweepScheduler.SetRetentionPurger(
			usageapp.NewRetentionService(recordRepo, cfg.Retention.UsageRecordDays, log))
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweepScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sweep scheduler", zap.Error(err))
			}
		}()
		log.Info("Overdue sweep scheduler started",
			zap.Int("hour", cfg.Scheduler.SweepHour),
			zap.Int("minute", cfg.Scheduler.SweepMinute),
		)
	}

	// HTTP handlers
	handlers := router.Handlers{
		TelephonyWebhook: handler.NewTelephonyWebhookHandler(webhookService),
		StripeWebhook:    handler.NewStripeWebhookHandler(stripeVerifier, stripeWebhookService, log),
		Usage:            handler.NewUsageHandler(usageService),
		Invoice:          handler.NewInvoiceHandler(invoiceService),
		Payment:          handler.NewPaymentHandler(paymentService),
		Activity:         handler.NewActivityHandler(tenantRepo, activityRepo),
		Admin:            handler.NewAdminHandler(sweepService),
		System: handler.NewSystemHandler(version, map[string]handler.HealthChecker{
			"database": db.Ping,
		}),
	}

	engine := router.New(cfg, log, handlers)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newSweepLock builds the distributed lock guarding the daily sweep.
// Without Redis a process-local lock still prevents overlap between the
// scheduler and a manual trigger, but not across instances.
func newSweepLock(cfg config.RedisConfig, log *zap.Logger) shared.DistributedLock {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		log.Warn("Redis unavailable, using process-local sweep lock", zap.Error(err))
		return cache.NewInMemoryLock()
	}

	hostname, _ := os.Hostname()
	return cache.NewRedisLock(client, fmt.Sprintf("%s-%d", hostname, os.Getpid()))
}
