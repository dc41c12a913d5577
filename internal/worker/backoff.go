package worker

import (
	"math"
	"time"
)

// Backoff returns base * 2^retry.
func Backoff(retry int, base time.Duration) time.Duration {
	if retry < 0 {
		retry = 0
	}

	return time.Duration(math.Pow(2, float64(retry))) * base
}
