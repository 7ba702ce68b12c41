package model

import (
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/devblok/koru/util/collada"
)

// DefaultTimebase scales curve time (seconds) to keyframe time (milliseconds)
const DefaultTimebase = 1000

// Interpolation is the way a keyframe blends into the next one
type Interpolation int

// Linear is the only interpolation played back
const Linear Interpolation = 0

// ParseInterpolation maps a curve's interpolation name. Names other
// than LINEAR (BEZIER, STEP, ...) fall back to Linear.
func ParseInterpolation(name string) Interpolation {
	switch strings.ToUpper(name) {
	case "LINEAR":
		return Linear
	default:
		return Linear
	}
}

// Keyframe is one sample of a joint transform. Values holds the linear
// part row by row followed by the translation:
// xx xy xz yx yy yz zx zy zz tx ty tz.
type Keyframe struct {
	Time          float64
	Joint         string
	Values        [12]float64
	Interpolation Interpolation
}

// Matrix rebuilds the affine the keyframe stores
func (k Keyframe) Matrix() mgl64.Mat4 {
	v := k.Values
	return mgl64.Mat4{
		v[0], v[3], v[6], 0,
		v[1], v[4], v[7], 0,
		v[2], v[5], v[8], 0,
		v[9], v[10], v[11], 1,
	}
}

func keyframeValues(m []float64) [12]float64 {
	// m is a row-major 4x4 matrix
	return [12]float64{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
		m[3], m[7], m[11],
	}
}

// CalculateAnimation flattens an animation and its children into
// keyframes for the joints of skeleton. A curve whose target joint is not
// part of the skeleton contributes nothing.
func CalculateAnimation(a *collada.Animation, s *Skeleton, timebase float64) []Keyframe {
	var keys []Keyframe
	if a.Target != "" {
		if j, ok := s.Lookup(a.TargetJoint()); ok {
			joint := s.Joints[j].ID
			for i, t := range a.Input {
				if len(a.Output) < (i+1)*16 {
					break
				}
				k := Keyframe{
					Time:   t * timebase,
					Joint:  joint,
					Values: keyframeValues(a.Output[i*16 : (i+1)*16]),
				}
				if i < len(a.Interpolations) {
					k.Interpolation = ParseInterpolation(a.Interpolations[i])
				}
				keys = append(keys, k)
			}
		}
	}
	for _, child := range a.Children {
		keys = append(keys, CalculateAnimation(child, s, timebase)...)
	}
	return keys
}

// Timeline plays keyframes back onto a skeleton
type Timeline struct {
	ID string

	tracks   map[string][]Keyframe
	duration float64
}

// NewTimeline groups keyframes by joint in time order
func NewTimeline(id string, keys []Keyframe) *Timeline {
	t := &Timeline{
		ID:     id,
		tracks: make(map[string][]Keyframe),
	}
	for _, k := range keys {
		t.tracks[k.Joint] = append(t.tracks[k.Joint], k)
		if k.Time > t.duration {
			t.duration = k.Time
		}
	}
	for _, track := range t.tracks {
		sort.SliceStable(track, func(i, j int) bool {
			return track[i].Time < track[j].Time
		})
	}
	return t
}

// Duration is the time of the last keyframe
func (t *Timeline) Duration() float64 {
	return t.duration
}

// Joints lists the joints the timeline animates
func (t *Timeline) Joints() []string {
	joints := make([]string, 0, len(t.tracks))
	for j := range t.tracks {
		joints = append(joints, j)
	}
	sort.Strings(joints)
	return joints
}

// Sample returns the transform of joint at time at, clamped to the
// first and last keyframe.
func (t *Timeline) Sample(joint string, at float64) (mgl64.Mat4, bool) {
	track, ok := t.tracks[joint]
	if !ok || len(track) == 0 {
		return mgl64.Mat4{}, false
	}

	next := sort.Search(len(track), func(i int) bool {
		return track[i].Time > at
	})
	switch {
	case next == 0:
		return track[0].Matrix(), true
	case next == len(track):
		return track[len(track)-1].Matrix(), true
	}

	from, to := track[next-1], track[next]
	if to.Time == from.Time {
		return from.Matrix(), true
	}

	f := (at - from.Time) / (to.Time - from.Time)
	var k Keyframe
	for i := range k.Values {
		k.Values[i] = from.Values[i] + (to.Values[i]-from.Values[i])*f
	}
	return k.Matrix(), true
}

// Apply sets every animated joint of s to its transform at time at
func (t *Timeline) Apply(s *Skeleton, at float64) {
	for joint := range t.tracks {
		j, ok := s.Lookup(joint)
		if !ok {
			continue
		}
		if m, ok := t.Sample(joint, at); ok {
			s.SetTransform(j, m)
		}
	}
}
