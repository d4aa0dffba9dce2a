package monitoring

import (
	"github.com/akeren/clawsec-waitlist/config/router"
	"github.com/akeren/clawsec-waitlist/internal/log"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	persistence Pinger
	backend     string
	logger      *log.Logger
	cache       Pinger
}

func NewMonitoringControllerFactory(persistence Pinger, backend string, logger *log.Logger, cache Pinger) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		persistence: persistence,
		backend:     backend,
		logger:      logger,
		cache:       cache,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.persistence, f.backend, f.logger, f.cache)
}
