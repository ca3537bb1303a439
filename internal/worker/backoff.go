package worker

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff returns the wait before retry number attempt (0-based):
// 2s, 4s, 8s ... capped at 5m, plus up to 250ms of jitter.
func ExponentialBackoff(attempt int) time.Duration {
	base := 2 * time.Second
	capDelay := 5 * time.Minute

	if attempt < 0 {
		attempt = 0
	}

	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * multiple)

	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
