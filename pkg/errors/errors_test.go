package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode_MapsAppErrorTypes(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"invalid request":     {NewInvalidRequestError("bad", nil), StatusBadRequest},
		"conflict":            {NewConflictError("dup", nil), StatusConflict},
		"service unavailable": {NewServiceUnavailableError("down", nil), StatusServiceUnavailable},
		"database":            {NewDatabaseError("db", nil), StatusInternalServerError},
		"wrapped":             {fmt.Errorf("outer: %w", NewConflictError("dup", nil)), StatusConflict},
		"plain error":         {errors.New("boom"), StatusInternalServerError},
		"nil":                 {nil, StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestGetHumanReadableMessage_DoesNotLeakPlainErrors(t *testing.T) {
	assert.Equal(t, "Backend not configured", GetHumanReadableMessage(NewServiceUnavailableError("Backend not configured", errors.New("dial tcp: refused"))))
	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(errors.New("pq: password authentication failed")))
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, IsDuplicateKeyError(errors.New("ERROR: duplicate key value violates unique constraint \"waitlist_email_key\" (SQLSTATE 23505)")))
	assert.True(t, IsDuplicateKeyError(errors.New("UNIQUE constraint failed: waitlist.email")))
	assert.True(t, IsDuplicateKeyError(NewConflictError("exists", nil)))
	assert.False(t, IsDuplicateKeyError(errors.New("connection refused")))
	assert.False(t, IsDuplicateKeyError(nil))
}
