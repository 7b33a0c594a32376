package router

import (
	"github.com/gin-gonic/gin"
	"github.com/merchantops/backend/internal/infrastructure/config"
	"github.com/merchantops/backend/internal/infrastructure/logger"
	"github.com/merchantops/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig configures the global middleware chain
type EngineConfig struct {
	HTTP        config.HTTPConfig
	ServiceName string
	Tracing     bool
	Logger      *zap.Logger
}

// NewEngine builds a gin engine with the middleware every request passes
// through, in order: panic recovery, request id, access log, tracing,
// security headers, CORS and the body limit.
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	middleware.SetupValidator()
	return engine, nil
}
