// Package backoff computes exponential reconnect delays.
package backoff

import "time"

// Delay returns the wait before reconnect attempt n (1-based):
// min(base * 2^(n-1), max). Attempts below 1 are treated as 1.
func Delay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max || d <= 0 { // overflow guard
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
