package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/akeren/clawsec-waitlist/internal/log"
	apperrors "github.com/akeren/clawsec-waitlist/pkg/errors"
	"github.com/akeren/clawsec-waitlist/pkg/factory"
	"github.com/akeren/clawsec-waitlist/pkg/ratelimit"
	"github.com/akeren/clawsec-waitlist/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const DefaultTimeoutDuration = 30 * time.Second

// gzipMinSize keeps small JSON bodies such as {"count":127} uncompressed.
const gzipMinSize = 1024

type Cache interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

type RouterService struct {
	engine  *gin.Engine
	server  *http.Server
	logger  *log.Logger
	config  RouterConfig
	limiter ratelimit.RateLimiter

	limiterFactory *factory.DefaultRateLimiterFactory
	registry       *prometheus.Registry

	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	cfg := *routerConfig
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultTimeoutDuration
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	// ClientIP() would otherwise honour spoofable X-Forwarded-For headers from anyone.
	trustedProxies := parseTrustedProxiesEnv(os.Getenv("TRUSTED_PROXIES"))
	if err := engine.SetTrustedProxies(trustedProxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	} else if trustedProxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}

	rs := &RouterService{
		engine:                 engine,
		logger:                 logger,
		config:                 cfg,
		limiterFactory:         factory.NewDefaultRateLimiterFactory(cache, logger),
		registry:               prometheus.NewRegistry(),
		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
		handlerToControllerMap: make(map[string]*RESTController),
	}

	rs.initRateLimiting(cache)
	rs.mountMetrics()

	engine.Use(rs.securityHeadersMiddleware())
	engine.Use(rs.maxBodySizeMiddleware())
	engine.Use(rs.corsMiddleware())
	engine.Use(rs.rateLimitMiddleware())
	engine.Use(rs.timeoutMiddleware())
	engine.Use(rs.correlationIDMiddleware())
	engine.Use(rs.loggerInjectionMiddleware())
	engine.Use(rs.requestLoggingMiddleware())

	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true

	engine.NoRoute(func(c *gin.Context) {
		logger.WithCorrelationID(c.Request.Context()).Warn("Route not found", "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, ErrorResult(apperrors.StatusNotFound, "Route not found", nil).ToJSON())
	})

	engine.NoMethod(func(c *gin.Context) {
		logger.WithCorrelationID(c.Request.Context()).Warn("Method not allowed", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusMethodNotAllowed, ErrorResult(apperrors.StatusMethodNotAllowed, "Method not allowed", nil).ToJSON())
	})

	rs.server = &http.Server{
		Addr:    ":8080",
		Handler: rs.Handler(),

		// Gin contexts are not goroutine-safe, so request time limits live on the server.
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized")
	return rs
}

func parseTrustedProxiesEnv(v string) []string {
	s := strings.TrimSpace(v)
	switch s {
	case "":
		return nil
	case "*":
		return []string{"0.0.0.0/0", "::/0"}
	}

	var proxies []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

func (routerService *RouterService) initRateLimiting(cache Cache) {
	if routerService.limiterFactory.Distributed() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.Ping(ctx); err != nil {
			routerService.logger.Warn("Redis unreachable for rate limiting, falling back to in-memory", "error", err)
			routerService.limiterFactory = routerService.limiterFactory.WithoutRedis()
		}
	}

	routerService.limiter = routerService.RateLimiter(routerService.config.RateLimitRequests, routerService.config.RateLimitWindow, "")

	routerService.logger.Info("Rate limiting initialized",
		"distributed", routerService.limiterFactory.Distributed(),
		"requests", routerService.config.RateLimitRequests,
		"window", routerService.config.RateLimitWindow,
	)
}

// RateLimiter builds a limiter that shares the router's Redis connection when there is one.
// keyPrefix separates its Redis window from other limiters.
func (routerService *RouterService) RateLimiter(requests int, window time.Duration, keyPrefix string) ratelimit.RateLimiter {
	return routerService.limiterFactory.CreateRateLimiter(requests, window, keyPrefix)
}

// Handler is the engine wrapped with response compression.
func (routerService *RouterService) Handler() http.Handler {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(gzipMinSize),
		gzhttp.ExceptContentTypes([]string{"text/event-stream"}),
	)
	if err != nil {
		routerService.logger.Error("Invalid gzip options; using defaults", "error", err)
		return gzhttp.GzipHandler(routerService.engine)
	}
	return wrap(routerService.engine)
}

// MetricsRegisterer is the registry served on /metrics.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	return routerService.registry
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

func (routerService *RouterService) Cleanup() {
	if routerService.limiter != nil {
		if err := routerService.limiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "error", err)
		}
	}
	for key, limiter := range routerService.rateLimitOverrides {
		if err := limiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "route", key, "error", err)
		}
	}
	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	routerService.logger.Info("Mounting controller",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
	)

	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted", "name", controller.name, "handlers", controller.handlerCount)
}

func (routerService *RouterService) RunHTTPServer() error {
	port := utils.GetEnvTrimmedOrDefault("APP_PORT", "8080")
	routerService.server.Addr = ":" + port

	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	if err := routerService.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		routerService.logger.Error("HTTP server stopped", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}
