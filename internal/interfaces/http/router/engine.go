package router

import (
	"net/http"

	"github.com/boxstock/backend/internal/infrastructure/config"
	"github.com/boxstock/backend/internal/infrastructure/logger"
	"github.com/boxstock/backend/internal/infrastructure/telemetry"
	"github.com/boxstock/backend/internal/interfaces/http/dto"
	"github.com/boxstock/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// EngineOptions configures NewEngine
type EngineOptions struct {
	Env         string
	ServiceName string
	HTTP        config.HTTPConfig
	Telemetry   config.TelemetryConfig
	Swagger     config.SwaggerConfig

	Logger        *zap.Logger
	MeterProvider *telemetry.MeterProvider
	// RateLimiter is applied when non-nil. The caller owns Stop.
	RateLimiter *middleware.RateLimiter

	// MetricsPath and MetricsHandler expose the Prometheus registry when
	// both are set
	MetricsPath    string
	MetricsHandler http.Handler
}

// NewEngine builds a gin engine with the standard middleware chain:
//
//  1. RequestID - generate or propagate X-Request-ID
//  2. Tracing - otelgin server span
//  3. Recovery - turn panics into 500s
//  4. Logger - one access line per request
//  5. EmployeeIdentity - X-Employee-ID, then span attributes
//  6. Secure, CORS and BodyLimit
//  7. RateLimit - keyed by employee when one is identified
//  8. HTTPMetrics and Profiling
//
// It also serves /swagger/*any behind SwaggerProtection and, when
// configured, the metrics endpoint.
func NewEngine(opts EngineOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(opts.ServiceName, opts.Telemetry.Enabled))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.EmployeeIdentity())
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(opts.HTTP)))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	if opts.RateLimiter != nil {
		engine.Use(middleware.RateLimit(opts.RateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", opts.HTTP.RateLimitRequests),
			zap.Duration("window", opts.HTTP.RateLimitWindow),
		)
	}

	engine.Use(middleware.HTTPMetrics(opts.MeterProvider, log))
	engine.Use(middleware.Profiling(opts.Telemetry.ProfilingEnabled, "/health", opts.MetricsPath))

	if opts.MetricsPath != "" && opts.MetricsHandler != nil {
		engine.GET(opts.MetricsPath, gin.WrapH(opts.MetricsHandler))
	}

	// API documentation; the docs package registers the document it serves
	engine.GET("/swagger/*any", middleware.SwaggerProtection(opts.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	return engine
}
