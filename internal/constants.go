package pmugraph

import (
	"math"
	"time"
)

const (
	// SAMPLE_RATE is the number of samples taken per second
	SAMPLE_RATE = 10

	// TIME_SIZE is the time span in seconds shown by the scrolling window
	TIME_SIZE = 10
)

// UpdateDuration returns the default interval between two ticks
func UpdateDuration() time.Duration {
	return time.Second / SAMPLE_RATE
}

// WindowDuration returns the default span of the scrolling window
func WindowDuration() time.Duration {
	return TIME_SIZE * time.Second
}

// WindowSize returns the number of samples that fit in window when sampling
// every interval, rounded. It is never less than 2.
func WindowSize(window, interval time.Duration) int {
	if interval <= 0 {
		return 2
	}
	n := int(math.Round(float64(window) / float64(interval)))
	return max(n, 2)
}
