package waitlist

import (
	"sync"

	"github.com/akeren/clawsec-waitlist/config"
	"github.com/akeren/clawsec-waitlist/config/router"
	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/pkg/mailer"
	"github.com/prometheus/client_golang/prometheus"
)

type WaitlistServiceFactory interface {
	CreateRepository() WaitlistRepository
	CreateNotifier() *MailNotifier
	CreateService(reg prometheus.Registerer) WaitlistService
	CreateControllers(service WaitlistService) []*router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	persistence *config.Persistence
	cache       CountCache
	sender      mailer.Sender
	settings    config.WaitlistConfig
	logger      *log.Logger

	repoOnce   sync.Once
	repository WaitlistRepository

	notifierOnce sync.Once
	notifier     *MailNotifier
}

func NewWaitlistServiceFactory(appConfig *config.ApplicationConfig) WaitlistServiceFactory {
	f := &DefaultWaitlistServiceFactory{
		persistence: appConfig.Persistence,
		sender:      appConfig.Mailer,
		logger:      appConfig.Logger,
	}
	if appConfig.Cache != nil {
		f.cache = appConfig.Cache
	}
	if appConfig.Config != nil {
		f.settings = appConfig.Config.Waitlist
	}
	return f
}

// CreateRepository returns nil when no backend is configured. Every call returns the same
// repository so its circuit breaker is shared.
func (f *DefaultWaitlistServiceFactory) CreateRepository() WaitlistRepository {
	f.repoOnce.Do(func() {
		f.repository = f.newRepository()
	})
	return f.repository
}

func (f *DefaultWaitlistServiceFactory) newRepository() WaitlistRepository {
	if !f.persistence.Configured() {
		return nil
	}

	switch f.persistence.Backend {
	case config.BackendPostgREST:
		return NewPostgRESTRepository(f.persistence.Reader, f.persistence.Writer, f.logger)
	case config.BackendDatabase:
		return NewWaitlistRepository(f.persistence.DB)
	default:
		return nil
	}
}

// CreateNotifier returns nil when no mailer is configured. Every call returns the same notifier so
// shutdown can wait on the emails the service queued.
func (f *DefaultWaitlistServiceFactory) CreateNotifier() *MailNotifier {
	f.notifierOnce.Do(func() {
		f.notifier = NewMailNotifier(f.sender, f.logger)
	})
	return f.notifier
}

// CreateService registers the waitlist collectors on reg when it is not nil.
func (f *DefaultWaitlistServiceFactory) CreateService(reg prometheus.Registerer) WaitlistService {
	opts := ServiceOptions{
		Cache:         f.cache,
		CountCacheTTL: f.settings.CountCacheTTL,
		Metrics:       NewMetrics(reg),
	}
	if notifier := f.CreateNotifier(); notifier != nil {
		opts.Notifier = notifier
	}

	return NewWaitlistService(f.logger, f.CreateRepository(), opts)
}

func (f *DefaultWaitlistServiceFactory) CreateControllers(service WaitlistService) []*router.RESTController {
	return NewWaitlistControllers(service, f.settings.SignupRateLimit)
}
