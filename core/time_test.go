package core_test

import (
	"testing"
	"time"

	"github.com/devblok/koru/core"
)

func TestFrameInterval(t *testing.T) {
	cases := []struct {
		fps  int
		want time.Duration
	}{
		{0, time.Nanosecond},
		{1, time.Second},
		{50, 20 * time.Millisecond},
	}
	for _, c := range cases {
		if got := core.FrameInterval(c.fps); got != c.want {
			t.Errorf("FrameInterval(%d) = %s, want %s", c.fps, got, c.want)
		}
	}
}

func TestTimeTicks(t *testing.T) {
	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 200})
	defer tm.Stop()

	if tm.Fps() != 200 {
		t.Errorf("fps is %d", tm.Fps())
	}
	select {
	case <-tm.FpsTicker().C:
	case <-time.After(time.Second):
		t.Fatal("ticker never fired")
	}
	if tm.Elapsed() <= 0 {
		t.Error("elapsed time should be positive")
	}
}
