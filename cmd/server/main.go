package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	stripe "github.com/seu-repo/sigec-ve/internal/adapter/external/payment"
	"github.com/seu-repo/sigec-ve/internal/adapter/cache"
	"github.com/seu-repo/sigec-ve/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/sigec-ve/internal/adapter/http/fiber/middleware"
	v16 "github.com/seu-repo/sigec-ve/internal/adapter/ocpp/v16"
	"github.com/seu-repo/sigec-ve/internal/adapter/queue"
	"github.com/seu-repo/sigec-ve/internal/adapter/storage/postgres"
	"github.com/seu-repo/sigec-ve/internal/adapter/vault"
	"github.com/seu-repo/sigec-ve/internal/observability/telemetry"
	"github.com/seu-repo/sigec-ve/internal/service/auth"
	"github.com/seu-repo/sigec-ve/internal/service/availability"
	"github.com/seu-repo/sigec-ve/internal/service/bus"
	"github.com/seu-repo/sigec-ve/internal/service/charging"
	"github.com/seu-repo/sigec-ve/internal/service/device"
	"github.com/seu-repo/sigec-ve/internal/service/email"
	"github.com/seu-repo/sigec-ve/internal/service/idempotency"
	"github.com/seu-repo/sigec-ve/internal/service/notify"
	"github.com/seu-repo/sigec-ve/internal/service/payment"
	"github.com/seu-repo/sigec-ve/internal/service/pricing"
	"github.com/seu-repo/sigec-ve/pkg/config"
)

const (
	serviceName    = "sigec-ve"
	serviceVersion = "v1.0.0"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("starting sigec-ve operator backend",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	tracerProvider, err := telemetry.InitTracer(serviceName)
	if err != nil {
		logger.Fatal("failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error("error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Optional Vault secrets: override env-sourced values when reachable,
	// fall back silently otherwise (spec: "falls back to env vars").
	dbURL := cfg.Database.URL
	jwtSecret := cfg.JWT.Secret
	stripeKey := cfg.Payment.Stripe.SecretKey
	if vaultAddr := os.Getenv("VAULT_ADDR"); vaultAddr != "" {
		if sm, err := vault.NewSecretManager(vaultAddr, os.Getenv("VAULT_TOKEN")); err != nil {
			logger.Warn("vault unreachable, using env-sourced secrets", zap.Error(err))
		} else {
			if v, err := sm.GetDatabaseDSN(); err == nil {
				dbURL = v
			}
			if v, err := sm.GetJWTSecret(); err == nil {
				jwtSecret = v
			}
			if v, err := sm.GetStripeSecretKey(); err == nil {
				stripeKey = v
			}
		}
	}

	db, err := postgres.NewConnection(dbURL, postgres.ConnectionOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogQueries:      cfg.Database.LogQueries,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer postgres.Close(db)

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Redis-backed KV cache (JWT revocation, device-service cache-aside).
	// Falls back to an in-memory cache rather than failing boot.
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("redis cache unavailable, using in-memory fallback", zap.Error(err))
		redisCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer redisCache.Close()

	// Redis-backed command/event bus — the core's bus of record (spec §4.2).
	// Unlike the cache, this is not optional: no bus, no OCPP actor.
	commandBus, err := bus.NewRedisBus(cfg.Redis.URL, logger)
	if err != nil {
		logger.Fatal("failed to connect command/event bus", zap.Error(err))
	}
	defer commandBus.Close()

	// NATS secondary fan-out for cross-cutting domain events. Optional.
	natsQueue, err := queue.NewNATSQueue(cfg.NATS.URL, logger)
	if err != nil {
		logger.Warn("NATS not available, domain event fan-out disabled", zap.Error(err))
		natsQueue = nil
	} else {
		defer natsQueue.Close()
	}
	events := notify.NewEventPublisher(natsQueue, logger)

	// Repositories
	clientRepo := postgres.NewClientRepository(db, logger)
	stationRepo := postgres.NewStationRepository(db, logger)
	tariffRepo := postgres.NewTariffRepository(db, logger)
	sessionRepo := postgres.NewChargingSessionRepository(db, logger)
	ocppTxnRepo := postgres.NewOcppTransactionRepository(db, logger)
	idempotencyRepo := postgres.NewIdempotencyRepository(db, logger)
	paymentRepo := postgres.NewPaymentRepository(db, logger)
	cardRepo := postgres.NewCardRepository(db, logger)

	// Pricing resolver
	pricingResolver := pricing.NewResolver(stationRepo, tariffRepo, commandBus, logger)

	// OCPP 1.6-J actor registry + outbound command service, wired before the
	// charging engine and availability tracker since both depend on it.
	ocppServer := v16.NewServer(stationRepo, commandBus, cfg.OCPP.Security.ClientAuth, logger)
	commandService := v16.NewCommandService(commandBus, ocppServer)

	chargingService := charging.NewService(
		db,
		clientRepo,
		stationRepo,
		sessionRepo,
		ocppTxnRepo,
		tariffRepo,
		pricingResolver,
		commandService,
		commandBus,
		logger,
	)

	emailConfig := &email.Config{
		Provider:       cfg.Notification.Email.Provider,
		FromEmail:      cfg.Notification.Email.From,
		FromName:       cfg.Notification.Email.FromName,
		SendGridAPIKey: cfg.Notification.Email.APIKey,
	}
	if emailConfig.Provider == "" {
		emailConfig = email.DefaultConfig()
	}
	emailService, err := email.NewService(emailConfig, logger)
	if err != nil {
		logger.Warn("email service unavailable, notifications disabled", zap.Error(err))
	}

	availabilityTracker := availability.NewTracker(commandBus, stationRepo, sessionRepo, commandService, emailService, logger)

	ocppHandlers := v16.NewHandlers(stationRepo, clientRepo, ocppTxnRepo, sessionRepo, chargingService, availabilityTracker, commandBus, logger)
	ocppServer.SetHandlers(ocppHandlers)

	go func() {
		logger.Info("starting OCPP 1.6-J WebSocket server", zap.Int("port", cfg.OCPP.Port))
		if err := ocppServer.Start(cfg.OCPP.Port); err != nil {
			logger.Fatal("OCPP server failed", zap.Error(err))
		}
	}()

	idempotencyStore := idempotency.NewStore(idempotencyRepo, logger)

	// Background sweeps (spec §4.3/§4.5/§4.6).
	go runHangingSessionSweep(chargingService, logger)
	go runAvailabilitySweep(availabilityTracker, logger)
	go runIdempotencyPurge(idempotencyStore, logger)

	// Auth: phone + OTP, grounded on ports.Bus KV for the code itself.
	otpSender := auth.NewLoggingSMSSender(logger)
	otpService := auth.NewOTPService(commandBus, otpSender, logger)
	jwtService := auth.NewJWTService(jwtSecret, cfg.JWT.AccessTokenDuration, cfg.JWT.RefreshTokenDuration, redisCache, logger)
	authService := auth.NewService(clientRepo, otpService, jwtService, logger)

	deviceService := device.NewService(stationRepo, redisCache, commandBus, logger)

	stripeGateway := stripe.NewStripeService(stripeKey, logger)
	paymentService := payment.NewService(db, stripeGateway, paymentRepo, clientRepo, logger)
	cardService := payment.NewCardService(cardRepo, logger)

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.Metrics())
	app.Use(middleware.NewCORS(cfg.CORS))

	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendString("OK") })
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if err := redisCache.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("cache not ready")
		}
		return c.SendString("Ready")
	})
	app.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	v1 := app.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(authService, logger)
	v1.Post("/auth/request-code", middleware.DefaultRateLimit(), authHandler.RequestCode)
	v1.Post("/auth/login", middleware.DefaultRateLimit(), authHandler.Login)
	v1.Post("/auth/refresh", middleware.DefaultRateLimit(), authHandler.RefreshToken)

	protected := v1.Group("", middleware.AuthRequired(authService), middleware.DefaultRateLimit())
	protected.Get("/auth/me", authHandler.Me)

	deviceHandler := handlers.NewDeviceHandler(deviceService, logger)
	protected.Get("/devices", deviceHandler.List)
	protected.Get("/devices/:id", deviceHandler.Get)
	protected.Patch("/devices/:id/connectors/:connector_id/status", deviceHandler.UpdateConnectorStatus)

	deviceCommandHandler := handlers.NewDeviceCommandHandler(commandService, logger)
	protected.Post("/devices/:id/remote-start", deviceCommandHandler.RemoteStart)
	protected.Post("/devices/:id/remote-stop", deviceCommandHandler.RemoteStop)
	protected.Post("/devices/:id/reset", deviceCommandHandler.Reset)
	protected.Post("/devices/:id/unlock-connector", deviceCommandHandler.UnlockConnector)
	protected.Post("/devices/:id/change-availability", deviceCommandHandler.ChangeAvailability)
	protected.Post("/devices/:id/change-configuration", deviceCommandHandler.ChangeConfiguration)
	protected.Post("/devices/:id/get-configuration", deviceCommandHandler.GetConfiguration)
	protected.Post("/devices/:id/get-diagnostics", deviceCommandHandler.GetDiagnostics)
	protected.Post("/devices/:id/clear-cache", deviceCommandHandler.ClearCache)
	protected.Post("/devices/:id/trigger-message/:message", deviceCommandHandler.TriggerMessage)
	protected.Get("/devices/:id/connection-status", deviceCommandHandler.GetConnectionStatus)
	protected.Get("/devices/connected", deviceCommandHandler.GetConnectedDevices)

	idempotencyMW := middleware.Idempotency(idempotencyStore, logger)

	chargingHandler := handlers.NewChargingSessionHandler(chargingService, sessionRepo, events, logger)
	protected.Post("/charging/start", middleware.SensitiveRateLimit(), idempotencyMW, chargingHandler.Start)
	protected.Post("/charging/stop", middleware.SensitiveRateLimit(), idempotencyMW, chargingHandler.Stop)
	protected.Get("/charging/status/:id", chargingHandler.Get)
	protected.Get("/charging/active", chargingHandler.GetActive)
	protected.Get("/charging/history", chargingHandler.GetHistory)

	paymentHandler := handlers.NewPaymentHandler(paymentService, events, logger)
	paymentGroup := protected.Group("/balance", middleware.SensitiveRateLimit(), middleware.CircuitBreakerWithLogger(logger))
	paymentGroup.Post("/topup-card", idempotencyMW, paymentHandler.TopupCard)
	paymentGroup.Post("/topup-card/confirm", idempotencyMW, paymentHandler.ConfirmTopup)
	paymentGroup.Get("/payments", paymentHandler.GetHistory)

	cardHandler := handlers.NewCardHandler(cardService, logger)
	protected.Post("/cards", cardHandler.Add)
	protected.Get("/cards", cardHandler.List)
	protected.Delete("/cards/:id", cardHandler.Delete)

	// Stripe webhook: unauthenticated (the caller is Stripe, not a client),
	// rate-limited by source IP, and guarded by the same gobreaker route
	// middleware as the /balance group. The outbound Stripe calls themselves
	// go through their own circuitbreaker.ServiceClient in the Stripe adapter.
	app.Post("/payment/webhook", middleware.WebhookRateLimit(), middleware.CircuitBreakerWithLogger(logger), paymentHandler.Webhook)

	// OCPP 1.6-J WebSocket endpoint is served by ocppServer.Start on its own
	// port (cfg.OCPP.Port), not mounted on this Fiber app.

	go func() {
		logger.Info("starting HTTP server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	ocppServer.Stop()

	logger.Info("server exited gracefully")
}

// runHangingSessionSweep reaps sessions whose station went silent without a
// StopTransaction, hourly (spec §4.3).
func runHangingSessionSweep(chargingService *charging.Service, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		n, err := chargingService.SweepHangingSessions(context.Background(), 12*time.Hour)
		if err != nil {
			logger.Error("hanging-session sweep failed", zap.Error(err))
			continue
		}
		if n > 0 {
			logger.Info("hanging-session sweep closed sessions", zap.Int("count", n))
		}
	}
}

// runAvailabilitySweep marks stations with a stale heartbeat offline, every
// minute (spec §4.5).
func runAvailabilitySweep(tracker *availability.Tracker, logger *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if err := tracker.RunAdministrativeSweep(context.Background()); err != nil {
			logger.Error("availability sweep failed", zap.Error(err))
		}
	}
}

// runIdempotencyPurge deletes expired IdempotencyRecord rows hourly (spec §4.6).
func runIdempotencyPurge(store *idempotency.Store, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		n, err := store.PurgeExpired(context.Background())
		if err != nil {
			logger.Error("idempotency purge failed", zap.Error(err))
			continue
		}
		if n > 0 {
			logger.Info("idempotency purge removed expired records", zap.Int64("count", n))
		}
	}
}
