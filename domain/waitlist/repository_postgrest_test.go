package waitlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/akeren/clawsec-waitlist/internal/models"
	"github.com/akeren/clawsec-waitlist/pkg/postgrest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	anonKey    = "anon-key"
	serviceKey = "service-key"
)

// fakeTable serves the subset of the PostgREST dialect the repository uses.
type fakeTable struct {
	t        *testing.T
	mu       sync.Mutex
	emails   []string
	failWith int
	requests atomic.Int32
}

func (f *fakeTable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	assert.Equal(f.t, "/rest/v1/waitlist", r.URL.Path)

	if f.failWith != 0 {
		w.WriteHeader(f.failWith)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodHead:
		assert.Equal(f.t, anonKey, r.Header.Get("apikey"))
		w.Header().Set("Content-Range", fmt.Sprintf("*/%d", len(f.emails)))
		w.WriteHeader(http.StatusOK)

	case http.MethodGet:
		assert.Equal(f.t, serviceKey, r.Header.Get("apikey"))
		want := strings.TrimPrefix(r.URL.Query().Get("email"), "eq.")
		rows := []waitlistRow{}
		for i, email := range f.emails {
			if email == want {
				rows = append(rows, waitlistRow{ID: uint(i + 1), Email: email})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)

	case http.MethodPost:
		assert.Equal(f.t, serviceKey, r.Header.Get("apikey"))
		var rows []insertRow
		if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&rows)) || len(rows) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, email := range f.emails {
			if email == rows[0].Email {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"idx_waitlist_email\""}`))
				return
			}
		}
		f.emails = append(f.emails, rows[0].Email)
		w.WriteHeader(http.StatusCreated)
	}
}

func newPostgRESTRepository(t *testing.T, table *fakeTable) WaitlistRepository {
	t.Helper()
	table.t = t

	srv := httptest.NewServer(table)
	t.Cleanup(srv.Close)

	reader, err := postgrest.NewClient(postgrest.Config{BaseURL: srv.URL, APIKey: anonKey})
	require.NoError(t, err)
	writer, err := postgrest.NewClient(postgrest.Config{BaseURL: srv.URL, APIKey: serviceKey})
	require.NoError(t, err)

	return NewPostgRESTRepository(reader, writer, testLogger())
}

func TestPostgRESTRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newPostgRESTRepository(t, &fakeTable{})

	entry, err := repo.FindEntryByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "a@b.com"}))

	entry, err = repo.FindEntryByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "a@b.com", entry.Email)

	count, err := repo.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, repo.Ping(ctx))
}

func TestPostgRESTRepository_ConflictIsDuplicateAndKeepsCircuitClosed(t *testing.T) {
	ctx := context.Background()
	table := &fakeTable{emails: []string{"a@b.com"}}
	repo := newPostgRESTRepository(t, table)

	for i := 0; i < 10; i++ {
		err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "a@b.com"})
		require.Equal(t, KindDuplicate, KindOf(err))
	}

	require.NoError(t, repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "c@d.com"}))
}

func TestPostgRESTRepository_ServerErrorsOpenTheCircuit(t *testing.T) {
	ctx := context.Background()
	table := &fakeTable{failWith: http.StatusBadGateway}
	repo := newPostgRESTRepository(t, table)

	for i := 0; i < 5; i++ {
		_, err := repo.FindEntryByEmail(ctx, "a@b.com")
		require.Equal(t, KindBackendUnavailable, KindOf(err))
	}
	require.Equal(t, int32(5), table.requests.Load())

	_, err := repo.FindEntryByEmail(ctx, "a@b.com")
	assert.Equal(t, KindBackendUnavailable, KindOf(err))

	err = repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "a@b.com"})
	assert.Equal(t, KindBackendUnavailable, KindOf(err))

	_, err = repo.CountEntries(ctx)
	assert.Error(t, err)

	assert.Equal(t, int32(5), table.requests.Load())
}

func TestPostgRESTRepository_InsertFailureIsPersistenceFailure(t *testing.T) {
	repo := newPostgRESTRepository(t, &fakeTable{failWith: http.StatusBadRequest})

	err := repo.CreateEntry(context.Background(), &models.WaitlistEntry{Email: "a@b.com"})
	assert.Equal(t, KindPersistenceFailure, KindOf(err))
}

func TestWaitlistRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewWaitlistRepository(newSQLiteDB(t))

	entry, err := repo.FindEntryByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "a@b.com"}))

	err = repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "a@b.com"})
	assert.Equal(t, KindDuplicate, KindOf(err))

	entry, err = repo.FindEntryByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.NotZero(t, entry.ID)

	count, err := repo.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, repo.Ping(ctx))
}
