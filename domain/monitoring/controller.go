package monitoring

import (
	"context"
	"net/http"
	"time"

	"github.com/akeren/clawsec-waitlist/config/router"
	"github.com/akeren/clawsec-waitlist/internal/log"
)

const (
	monitoringRequestsPerMinute = 10
	checkTimeout                = 2 * time.Second
)

// Pinger is anything whose reachability is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Persistence int    `json:"persistence"` // 1 = reachable
	Backend     string `json:"backend"`
	Cache       int    `json:"cache"` // 1 = reachable, 0 = unreachable or not configured
	Uptime      int    `json:"uptime"` // seconds
}

type MonitoringController struct {
	persistence Pinger
	backend     string
	logger      *log.Logger
	cache       Pinger
	startTime   time.Time
}

// NewMonitoringController accepts nil persistence and cache; both are then reported as 0.
func NewMonitoringController(persistence Pinger, backend string, logger *log.Logger, cache Pinger) *router.RESTController {
	ctrl := &MonitoringController{
		persistence: persistence,
		backend:     backend,
		logger:      logger,
		cache:       cache,
		startTime:   time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			limiter := routerService.RateLimiter(monitoringRequestsPerMinute, time.Minute, "ratelimit:monitoring:")

			routerService.AddGetHandler(controller, limiter, "", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.monitor(c)
			})

			routerService.AddGetHandler(controller, limiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(routerService, c)
			})
		},
	)
}

func (ctrl *MonitoringController) healthCheck(routerService *router.RouterService, c *router.RequestContext) *router.ServiceResult {
	logger := routerService.GetLogger(c)
	logger.Info("Health check endpoint called")

	return router.OKResult(ctrl.performHealthChecks(c.Request.Context(), logger), "clawsec-waitlist health check completed")
}

func (ctrl *MonitoringController) monitor(c *router.RequestContext) *router.ServiceResult {
	return &router.ServiceResult{
		StatusCode: http.StatusOK,
		Data:       "Clawsec waitlist service is operational.",
		Message:    "Monitoring successful",
	}
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Backend: ctrl.backend,
		Uptime:  int(time.Since(ctrl.startTime).Seconds()),
	}

	status.Persistence = check(ctx, ctrl.persistence, "persistence", logger)
	status.Cache = check(ctx, ctrl.cache, "cache", logger)

	return status
}

func check(ctx context.Context, target Pinger, name string, logger *log.Logger) int {
	if target == nil {
		logger.Info("Health check skipped; not configured", "component", name)
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := target.Ping(ctx); err != nil {
		logger.Error("Health check failed", "component", name, "error", err)
		return 0
	}

	logger.Info("Health check passed", "component", name)
	return 1
}
