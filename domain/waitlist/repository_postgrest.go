package waitlist

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/internal/models"
	"github.com/akeren/clawsec-waitlist/pkg/circuitbreaker"
	"github.com/akeren/clawsec-waitlist/pkg/postgrest"
)

const waitlistTable = "waitlist"

type waitlistRow struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type insertRow struct {
	Email string `json:"email"`
}

// postgrestRepository reads the count with the anon-key client and does everything that touches
// individual rows with the service-role client.
type postgrestRepository struct {
	reader  *postgrest.Client
	writer  *postgrest.Client
	breaker circuitbreaker.CircuitBreaker
}

// NewPostgRESTRepository guards both clients with one circuit breaker. Client errors such as
// unique violations never trip it.
func NewPostgRESTRepository(reader, writer *postgrest.Client, logger *log.Logger) WaitlistRepository {
	logger = logger.WithScope("waitlist.postgrest")

	cfg := circuitbreaker.DefaultConfig()
	cfg.IsFailure = postgrest.IsServerError
	cfg.OnStateChange = func(from, to circuitbreaker.CircuitState) {
		logger.Warn("PostgREST circuit breaker state changed", "from", from.String(), "to", to.String())
	}

	return &postgrestRepository{
		reader:  reader,
		writer:  writer,
		breaker: circuitbreaker.NewCircuitBreaker(cfg),
	}
}

func (r *postgrestRepository) FindEntryByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var rows []waitlistRow

	err := r.breaker.Call(func() error {
		return r.writer.Select(ctx, waitlistTable, "id,email,created_at",
			[]postgrest.Filter{{Column: "email", Value: email}}, 1, &rows)
	})
	if err != nil {
		return nil, wrap(ErrBackendNotConfigured, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return &models.WaitlistEntry{ID: rows[0].ID, Email: rows[0].Email, CreatedAt: rows[0].CreatedAt}, nil
}

func (r *postgrestRepository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) error {
	err := r.breaker.Call(func() error {
		return r.writer.Insert(ctx, waitlistTable, []insertRow{{Email: entry.Email}})
	})

	switch {
	case err == nil:
		return nil
	case postgrest.IsUniqueViolation(err):
		return wrap(ErrAlreadyOnWaitlist, err)
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return wrap(ErrBackendNotConfigured, err)
	default:
		return wrap(ErrJoinFailed, err)
	}
}

func (r *postgrestRepository) CountEntries(ctx context.Context) (int64, error) {
	var count int64

	err := r.breaker.Call(func() error {
		var err error
		count, err = r.reader.Count(ctx, waitlistTable)
		return err
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *postgrestRepository) Ping(ctx context.Context) error {
	_, err := r.reader.Count(ctx, waitlistTable)
	return err
}
