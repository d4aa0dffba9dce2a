package constants

import "time"

const (
	DefaultRateLimitRequests      = 100
	DefaultRateLimitWindowMinutes = 1

	DefaultRequestTimeout = 30 * time.Second
)

func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}
