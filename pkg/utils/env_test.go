package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvInt(t *testing.T) {
	t.Setenv("UTILS_INT", " 42 ")
	assert.Equal(t, 42, GetEnvInt("UTILS_INT", 7))

	t.Setenv("UTILS_INT", "-1")
	assert.Equal(t, 7, GetEnvInt("UTILS_INT", 7))

	t.Setenv("UTILS_INT", "abc")
	assert.Equal(t, 7, GetEnvInt("UTILS_INT", 7))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("UTILS_DUR", "45s")
	assert.Equal(t, 45*time.Second, GetEnvDuration("UTILS_DUR", time.Minute))

	t.Setenv("UTILS_DUR", "0s")
	assert.Equal(t, time.Minute, GetEnvDuration("UTILS_DUR", time.Minute))

	t.Setenv("UTILS_DUR", "")
	assert.Equal(t, time.Minute, GetEnvDuration("UTILS_DUR", time.Minute))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("UTILS_BOOL", "true")
	assert.True(t, GetEnvBool("UTILS_BOOL", false))

	t.Setenv("UTILS_BOOL", "nope")
	assert.True(t, GetEnvBool("UTILS_BOOL", true))
}

func TestOTelServiceName_Default(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, "clawsec-waitlist", OTelServiceName())

	t.Setenv("OTEL_SERVICE_NAME", "custom")
	assert.Equal(t, "custom", OTelServiceName())
}
