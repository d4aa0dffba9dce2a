package waitlist

import (
	"context"
	"strconv"
	"time"

	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CountOffset is added to the stored row count before it is displayed.
const CountOffset int64 = 127

const (
	countCacheKey        = "waitlist:count"
	defaultCountCacheTTL = 30 * time.Second
	tracerName           = "github.com/akeren/clawsec-waitlist/domain/waitlist"
)

// CountCache holds the raw row count between reads. Get returns ("", nil) on a miss.
type CountCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

type WaitlistService interface {
	// Signup validates rawEmail, stores it once and returns the displayed count.
	Signup(ctx context.Context, rawEmail any) (*SignupResponse, error)

	// Count never fails. Without a reachable backend it returns CountOffset.
	Count(ctx context.Context) *CountResponse

	// RefreshCount reloads the cached row count from the backend.
	RefreshCount(ctx context.Context) error

	// Configured reports whether signups can be stored at all.
	Configured() bool
}

type ServiceOptions struct {
	Cache         CountCache
	CountCacheTTL time.Duration
	Notifier      Notifier
	Metrics       *Metrics
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	cache      CountCache
	cacheTTL   time.Duration
	notifier   Notifier
	metrics    *Metrics
	tracer     trace.Tracer
}

// NewWaitlistService accepts a nil repository, which leaves the service unconfigured: signups
// fail with ErrBackendNotConfigured and counts report CountOffset.
func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, opts ServiceOptions) WaitlistService {
	ttl := opts.CountCacheTTL
	if ttl <= 0 {
		ttl = defaultCountCacheTTL
	}

	return &waitlistService{
		logger:     logger.WithScope("waitlist"),
		repository: repository,
		cache:      opts.Cache,
		cacheTTL:   ttl,
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
		tracer:     otel.Tracer(tracerName),
	}
}

func (s *waitlistService) Configured() bool {
	return s.repository != nil
}

func (s *waitlistService) Signup(ctx context.Context, rawEmail any) (*SignupResponse, error) {
	ctx, span := s.tracer.Start(ctx, "waitlist.Signup")
	defer span.End()

	resp, err := s.signup(ctx, rawEmail)
	s.metrics.observeSignup(err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("waitlist.count", resp.Count))
	return resp, nil
}

func (s *waitlistService) signup(ctx context.Context, rawEmail any) (*SignupResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if s.repository == nil {
		return nil, ErrBackendNotConfigured
	}

	email, err := ValidateEmail(rawEmail)
	if err != nil {
		logger.Debug("Rejected waitlist signup", "kind", KindOf(err).String())
		return nil, err
	}

	existing, err := s.repository.FindEntryByEmail(ctx, email)
	if err != nil {
		logger.Error("Waitlist lookup failed", "error", err)
		return nil, classify(err, ErrBackendNotConfigured)
	}
	if existing != nil {
		return nil, ErrAlreadyOnWaitlist
	}

	// Concurrent signups for the same address are decided by the unique index.
	if err := s.repository.CreateEntry(ctx, &models.WaitlistEntry{Email: email}); err != nil {
		err = classify(err, ErrJoinFailed)
		if KindOf(err) == KindDuplicate {
			logger.Info("Concurrent waitlist signup lost the insert race")
		} else {
			logger.Error("Waitlist insert failed", "error", err)
		}
		return nil, err
	}

	rows, err := s.repository.CountEntries(ctx)
	if err != nil {
		logger.Warn("Waitlist count unavailable after signup", "error", err)
		rows = 0
	} else {
		s.storeCount(ctx, rows)
	}

	if s.notifier != nil {
		s.notifier.NotifySignup(ctx, email)
	}

	logger.Info("Waitlist signup accepted")
	return &SignupResponse{
		Success: true,
		Message: signupSuccessMessage,
		Count:   rows + CountOffset,
	}, nil
}

func (s *waitlistService) Count(ctx context.Context) *CountResponse {
	ctx, span := s.tracer.Start(ctx, "waitlist.Count")
	defer span.End()

	rows, source := s.count(ctx)
	s.metrics.observeCountRead(source)
	span.SetAttributes(attribute.String("waitlist.count_source", source))

	return &CountResponse{Count: rows + CountOffset}
}

func (s *waitlistService) count(ctx context.Context) (int64, string) {
	if s.repository == nil {
		return 0, countSourceFallback
	}

	if rows, ok := s.cachedCount(ctx); ok {
		return rows, countSourceCache
	}

	rows, err := s.repository.CountEntries(ctx)
	if err != nil {
		log.GetLoggerInstanceFromContext(ctx, s.logger).Warn("Waitlist count unavailable", "error", err)
		return 0, countSourceFallback
	}

	s.storeCount(ctx, rows)
	return rows, countSourceBackend
}

func (s *waitlistService) RefreshCount(ctx context.Context) error {
	if s.repository == nil {
		return ErrBackendNotConfigured
	}

	rows, err := s.repository.CountEntries(ctx)
	if err != nil {
		return err
	}

	s.storeCount(ctx, rows)
	return nil
}

func (s *waitlistService) cachedCount(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}

	value, err := s.cache.Get(ctx, countCacheKey)
	if err != nil {
		log.GetLoggerInstanceFromContext(ctx, s.logger).Warn("Waitlist count cache read failed", "error", err)
		return 0, false
	}
	if value == "" {
		return 0, false
	}

	rows, err := strconv.ParseInt(value, 10, 64)
	if err != nil || rows < 0 {
		return 0, false
	}
	return rows, true
}

func (s *waitlistService) storeCount(ctx context.Context, rows int64) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Set(ctx, countCacheKey, strconv.FormatInt(rows, 10), s.cacheTTL); err != nil {
		log.GetLoggerInstanceFromContext(ctx, s.logger).Warn("Waitlist count cache write failed", "error", err)
	}
}
