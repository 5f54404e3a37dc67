package resilience

import (
	"time"
)

// FromConnectConfig builds the retry used around the initial store
// connection. Zero values keep the defaults.
func FromConnectConfig(attempts int, initialBackoff time.Duration, service string) RetryConfig {
	cfg := DefaultRetryConfig()
	if attempts > 0 {
		cfg.MaxAttempts = attempts
	}
	if initialBackoff > 0 {
		cfg.InitialBackoff = initialBackoff
	}
	cfg.OnRetry = RetryLogger(service, "connect")
	return cfg
}
