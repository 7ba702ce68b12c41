package skinning

import (
	"context"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/model"
)

// Timer drives skinned meshes from the host's frame clock. While started
// every tick advances the playing timeline, if any, and updates the meshes.
type Timer struct {
	// Loop restarts the timeline once it reaches its end
	Loop bool

	time     *core.Time
	timebase float64
	meshes   []*Mesh

	mutex    sync.Mutex
	started  bool
	timeline *model.Timeline
	skeleton *model.Skeleton
	clock    float64
}

// NewTimer creates a stopped timer ticking at the configured frame rate
func NewTimer(cfg core.Configuration, meshes ...*Mesh) *Timer {
	timebase := cfg.Import.Timebase
	if timebase <= 0 {
		timebase = model.DefaultTimebase
	}
	return &Timer{
		time:     core.NewTime(cfg.Time),
		timebase: timebase,
		meshes:   meshes,
	}
}

// Play plays tl on s from its start
func (t *Timer) Play(tl *model.Timeline, s *model.Skeleton) {
	t.mutex.Lock()
	t.timeline, t.skeleton, t.clock = tl, s, 0
	t.mutex.Unlock()
}

// Start resumes ticking, e.g. when the host becomes visible
func (t *Timer) Start() {
	t.mutex.Lock()
	t.started = true
	t.mutex.Unlock()
	log.WithField("fps", t.time.Fps()).Debug("skinning timer started")
}

// Stop pauses ticking
func (t *Timer) Stop() {
	t.mutex.Lock()
	t.started = false
	t.mutex.Unlock()
	log.Debug("skinning timer stopped")
}

// Running reports whether the timer is started
func (t *Timer) Running() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.started
}

// Clock is the current timeline time, in keyframe units
func (t *Timer) Clock() float64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.clock
}

// Tick advances the timer by delta. It does nothing while stopped.
func (t *Timer) Tick(delta time.Duration) {
	t.mutex.Lock()
	if !t.started {
		t.mutex.Unlock()
		return
	}
	tl, s := t.timeline, t.skeleton
	if tl != nil {
		t.clock += delta.Seconds() * t.timebase
		if d := tl.Duration(); t.clock > d {
			if t.Loop && d > 0 {
				t.clock = math.Mod(t.clock, d)
			} else {
				t.clock = d
			}
		}
	}
	clock := t.clock
	t.mutex.Unlock()

	if tl != nil && s != nil {
		tl.Apply(s, clock)
	}
	for _, m := range t.meshes {
		m.Update()
	}
}

// Run ticks on the calling goroutine until ctx is done
func (t *Timer) Run(ctx context.Context) error {
	ticker := t.time.FpsTicker()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			t.Tick(now.Sub(last))
			last = now
		}
	}
}

// Close releases the ticker and the meshes' subscriptions
func (t *Timer) Close() {
	t.time.Stop()
	for _, m := range t.meshes {
		m.Close()
	}
}
