package showcase

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/clawsec-waitlist/config/router"
	"github.com/akeren/clawsec-waitlist/internal/log"
	apperrors "github.com/akeren/clawsec-waitlist/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	Code    int    `json:"code"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func get[T any](t *testing.T, path string) (int, envelope[T]) {
	t.Helper()

	rs := router.CreateRouterService(log.NewLogger(io.Discard, "error"), nil, &router.RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	rs.MountController(NewShowcaseController())

	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestParticles_DefaultCountIsDeterministic(t *testing.T) {
	code, first := get[ParticlesResponse](t, "/v1/showcase/particles")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 35, first.Data.Count)
	assert.Len(t, first.Data.Particles, 35)

	_, second := get[ParticlesResponse](t, "/v1/showcase/particles")
	assert.Equal(t, first.Data.Particles, second.Data.Particles)
}

func TestParticles_CountBounds(t *testing.T) {
	code, env := get[ParticlesResponse](t, "/v1/showcase/particles?count=3")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, env.Data.Particles, 3)

	code, env = get[ParticlesResponse](t, "/v1/showcase/particles?count=0")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, env.Data.Particles)

	code, invalid := get[[]apperrors.FieldError](t, "/v1/showcase/particles?count=201")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, []apperrors.FieldError{{Field: "count", Message: "Must not exceed 200"}}, invalid.Data)

	code, invalid = get[[]apperrors.FieldError](t, "/v1/showcase/particles?count=lots")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "count must be an integer", invalid.Message)
	assert.Empty(t, invalid.Data)
}

func TestTerminal_Variants(t *testing.T) {
	code, env := get[TerminalResponse](t, "/v1/showcase/terminal/with")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "with", env.Data.Variant)
	require.Len(t, env.Data.Lines, 4)
	require.NotEmpty(t, env.Data.Steps)

	assert.Equal(t, int64(335), env.Data.Steps[0].AtMs)
	last := env.Data.Steps[len(env.Data.Steps)-1]
	assert.True(t, last.Done)
	assert.Equal(t, last.AtMs, env.Data.DurationMs)

	code, _ = get[any](t, "/v1/showcase/terminal/sideways")
	assert.Equal(t, http.StatusNotFound, code)
}
