package config

import (
	"context"
	"time"

	"github.com/akeren/clawsec-waitlist/config/router"
	"github.com/akeren/clawsec-waitlist/internal/jobs"
	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/internal/models"
	"github.com/akeren/clawsec-waitlist/pkg/constants"
	"github.com/akeren/clawsec-waitlist/pkg/mailer"
	"github.com/akeren/clawsec-waitlist/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	// DB is nil unless the database backend was selected and reachable.
	DB              *gorm.DB
	Persistence     *Persistence
	RouterService   *router.RouterService
	Scheduler       *jobs.Scheduler
	Logger          *log.Logger
	Cache           Cache
	Mailer          mailer.Sender
	Config          *AppConfig
	TracingShutdown func(context.Context) error

	shutdownHooks []func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	Waitlist          WaitlistConfig
}

type WaitlistConfig struct {
	CountCacheTTL        time.Duration
	CountRefreshInterval time.Duration
	SignupRateLimit      int
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests: utils.GetEnvInt("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:   utils.GetEnvDuration("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow()),
		RequestTimeout:    utils.GetEnvDuration("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		Waitlist: WaitlistConfig{
			CountCacheTTL:        utils.GetEnvDuration("WAITLIST_COUNT_CACHE_TTL", 30*time.Second),
			CountRefreshInterval: utils.GetEnvDuration("WAITLIST_COUNT_REFRESH_INTERVAL", time.Minute),
			SignupRateLimit:      utils.GetEnvInt("WAITLIST_SIGNUP_RATE_LIMIT", 30),
		},
	}
}

// OnShutdown registers fn to run from Drain, in registration order.
func (ac *ApplicationConfig) OnShutdown(fn func(ctx context.Context) error) {
	ac.shutdownHooks = append(ac.shutdownHooks, fn)
}

// Drain runs the shutdown hooks. Call it once the HTTP server has stopped and before Cleanup.
func (ac *ApplicationConfig) Drain(ctx context.Context) {
	for _, fn := range ac.shutdownHooks {
		if err := fn(ctx); err != nil {
			ac.Logger.Warn("Shutdown hook did not finish", "error", err)
		}
	}
}

func (ac *ApplicationConfig) Cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if ac.Scheduler != nil {
		ac.Scheduler.Stop(ctx)
	}

	if ac.TracingShutdown != nil {
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	CloseDatabase(ac.DB, ac.Logger)

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	_ = CloseCache(ac.Cache, ac.Logger)

	ac.Logger.Info("Application cleanup completed")
}

// LoadCoreConfiguration builds persistence, cache and mailer without the HTTP layer.
func LoadCoreConfiguration(logger *log.Logger) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	persistence, err := NewPersistence(logger, NewPersistenceConfig(), NewDBConfig())
	if err != nil {
		return nil, err
	}

	return &ApplicationConfig{
		DB:          persistence.DB,
		Persistence: persistence,
		Logger:      logger,
		Cache:       NewCacheConfig().NewCacheOrFallback(logger),
		Mailer:      NewMailerOrNil(logger, NewMailerConfig()),
		Config:      NewAppConfig(),
	}, nil
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	appConfig, err := LoadCoreConfiguration(logger)
	if err != nil {
		return nil, err
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		appConfig.Cleanup()
		return nil, err
	}
	appConfig.TracingShutdown = tracingShutdown

	if autoMigrate {
		if err := AutoMigrate(logger, appConfig.DB, models.ModelRegistry...); err != nil {
			appConfig.Cleanup()
			return nil, err
		}
	}

	appConfig.Scheduler = jobs.NewScheduler(logger, time.Minute)
	appConfig.RouterService = router.CreateRouterService(logger, appConfig.Cache, &router.RouterConfig{
		RateLimitRequests: appConfig.Config.RateLimitRequests,
		RateLimitWindow:   appConfig.Config.RateLimitWindow,
		RequestTimeout:    appConfig.Config.RequestTimeout,
	})

	logger.Info("Application configuration loaded", "backend", appConfig.Persistence.Backend)
	return appConfig, nil
}
