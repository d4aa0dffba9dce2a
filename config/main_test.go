package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDrain_RunsHooksInOrderWithTheCallersContext(t *testing.T) {
	appConfig := &ApplicationConfig{Logger: quietLogger()}

	var calls []string
	appConfig.OnShutdown(func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		calls = append(calls, "first")
		return errors.New("still sending")
	})
	appConfig.OnShutdown(func(context.Context) error {
		calls = append(calls, "second")
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	appConfig.Drain(ctx)

	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDrain_NoHooks(t *testing.T) {
	assert.NotPanics(t, func() {
		(&ApplicationConfig{Logger: quietLogger()}).Drain(context.Background())
	})
}
