package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/merchantops/backend/internal/application/audit"
	paymentsapp "github.com/merchantops/backend/internal/application/payments"
	"github.com/merchantops/backend/internal/application/tracked"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/infrastructure/auth"
	"github.com/merchantops/backend/internal/infrastructure/config"
	"github.com/merchantops/backend/internal/infrastructure/event"
	"github.com/merchantops/backend/internal/infrastructure/logger"
	"github.com/merchantops/backend/internal/infrastructure/persistence"
	"github.com/merchantops/backend/internal/infrastructure/storage"
	"github.com/merchantops/backend/internal/infrastructure/telemetry"
	"github.com/merchantops/backend/internal/interfaces/http/handler"
	"github.com/merchantops/backend/internal/interfaces/http/middleware"
	"github.com/merchantops/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// The log provider must exist before the real logger so the OTLP bridge
	// can be teed into it.
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	var extraCores []zapcore.Core
	if logProvider.IsEnabled() {
		extraCores = append(extraCores, logProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	}
	log, err := logger.New(logCfg, extraCores...)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting MerchantOps backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	auditMetrics, err := telemetry.NewAuditMetrics(meterProvider.Meter("merchantops/audit"))
	if err != nil {
		log.Fatal("Failed to register audit metrics", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        cfg.Database.Driver,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
		log.Info("Database schema migrated")
	}

	// Committed audit entries go to Kafka when brokers are configured and to
	// the log otherwise.
	var publisher audit.EventPublisher
	var kafkaPublisher *event.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = event.NewKafkaPublisher(cfg.Kafka, log)
		publisher = kafkaPublisher
		log.Info("Publishing audit events to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	} else {
		bus := event.NewInMemoryBus(log)
		bus.Subscribe(event.LogHandler(log))
		publisher = bus
	}

	writer := persistence.NewAuditWriter(db.DB,
		persistence.WithEventPublisher(publisher),
		persistence.WithMutationRecorder(auditMetrics),
	)

	trackedService := tracked.NewService(writer, persistence.NewGormTrackedRepository(db.DB))
	if cfg.Storage.Enabled {
		objectStorage, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare storage bucket", zap.Error(err), zap.String("bucket", objectStorage.Bucket()))
		}
		trackedService.SetImageUploader(tracked.NewImageUploader(objectStorage, cfg.Storage.MaxImageSize))
	}

	auditService := auditapp.NewService(persistence.NewGormAuditLogRepository(db.DB), writer)
	auditService.SetExportRecorder(auditMetrics)

	paymentsService := paymentsapp.NewService(
		persistence.NewGormTransactionRepository(db.DB),
		persistence.NewGormBalanceRepository(db.DB),
	)

	var blacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisBlacklist, err := auth.NewRedisTokenBlacklist(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisBlacklist.Close() }()
		blacklist = redisBlacklist
	} else {
		log.Warn("Redis disabled, session revocations are not checked")
	}
	sessions := auth.NewSessionValidator(auth.NewJWTService(cfg.JWT), blacklist)

	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:        cfg.HTTP,
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     tracerProvider.IsEnabled(),
		Logger:      log,
	})
	if err != nil {
		log.Fatal("Failed to configure HTTP engine", zap.Error(err))
	}

	health := handler.NewHealthHandler(db)
	engine.GET("/health", health.Health)

	router.NewRouter(engine, router.WithMiddleware(
		middleware.SessionAuth(middleware.SessionAuthConfig{
			Validator:   sessions,
			CookieName:  cfg.Session.CookieName,
			AllowBearer: cfg.Session.AllowBearer,
			Logger:      log,
		}),
		middleware.SpanAttributes(),
	)).
		Register(handler.NewTrackedHandler(trackedService)).
		Register(handler.NewAuditHandler(auditService)).
		Register(handler.NewPaymentsHandler(paymentsService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error("Error closing Kafka writer", zap.Error(err))
		}
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
