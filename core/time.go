package core

import (
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	return &Time{
		fps:       cfg.FramesPerSecond,
		fpsTicker: time.NewTicker(FrameInterval(cfg.FramesPerSecond)),
		started:   time.Now(),
	}
}

// FrameInterval is the delay between two frames at fps.
// Zero fps means unlimited.
func FrameInterval(fps int) time.Duration {
	if fps <= 0 {
		return time.Nanosecond
	}
	return time.Second / time.Duration(fps)
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker
	started   time.Time
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// Elapsed is the time passed since the service was created
func (t *Time) Elapsed() time.Duration {
	return time.Since(t.started)
}

// Stop releases the tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
}
