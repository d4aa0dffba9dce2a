package domain

import (
	"github.com/akeren/clawsec-waitlist/config"
	"github.com/akeren/clawsec-waitlist/domain/monitoring"
	"github.com/akeren/clawsec-waitlist/domain/showcase"
	"github.com/akeren/clawsec-waitlist/domain/waitlist"
)

// SetupCoreDomain mounts every controller and registers background jobs. It returns an error only
// when a job cannot be scheduled.
func SetupCoreDomain(appConfig *config.ApplicationConfig) error {
	rs := appConfig.RouterService

	waitlistFactory := waitlist.NewWaitlistServiceFactory(appConfig)
	repository := waitlistFactory.CreateRepository()
	service := waitlistFactory.CreateService(rs.MetricsRegisterer())
	if notifier := waitlistFactory.CreateNotifier(); notifier != nil {
		appConfig.OnShutdown(notifier.Wait)
	}

	var persistence monitoring.Pinger
	if repository != nil {
		persistence = repository
	}
	var cache monitoring.Pinger
	if appConfig.Cache != nil {
		cache = appConfig.Cache
	}

	rs.MountController(monitoring.NewMonitoringControllerFactory(persistence, appConfig.Persistence.Backend, appConfig.Logger, cache).CreateController())
	for _, controller := range waitlistFactory.CreateControllers(service) {
		rs.MountController(controller)
	}
	rs.MountController(showcase.NewShowcaseController())

	return waitlist.RegisterCountRefresh(appConfig.Scheduler, service, appConfig.Config.Waitlist.CountRefreshInterval)
}
