package notify

import (
	"math/rand"
	"time"
)

// retryDelays are waited between attempts on the same event.
// The worker blocks while waiting, so they stay short.
var retryDelays = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	30 * time.Second,
	2 * time.Minute,
}

const (
	// DefaultMaxAttempts is the default number of delivery attempts per event.
	DefaultMaxAttempts = 4

	// JitterFactor is the ±fraction of jitter applied to delays.
	JitterFactor = 0.2
)

// NextRetryDelay returns the wait after failed attempt number attempt (0-indexed),
// with ±20% jitter. Attempts past the table reuse the last delay.
func NextRetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(retryDelays) {
		attempt = len(retryDelays) - 1
	}

	base := retryDelays[attempt]
	jitter := (rand.Float64()*2 - 1) * float64(base) * JitterFactor
	return time.Duration(float64(base) + jitter)
}

// IsExhausted reports whether attempts have used up maxAttempts.
func IsExhausted(attempts, maxAttempts int) bool {
	return attempts >= maxAttempts
}
