package retarget

import (
	"fmt"

	"github.com/bindpose/autorig/geom"
)

// Channel is one bone's keyframe track. Times are seconds, strictly
// increasing. Rotations and Positions are parallel to Times; either may
// be nil when the bone carries no component of that type.
type Channel struct {
	Target    string
	Times     []float32
	Rotations []geom.Quaternion
	Positions []geom.Vector3
}

// Clip is an animation: one channel per animated bone.
type Clip struct {
	Name     string
	Duration float32
	Channels map[string]*Channel
}

func (c *Clip) Validate() error {
	if c == nil {
		return fmt.Errorf("retarget: nil clip")
	}
	for name, ch := range c.Channels {
		if ch == nil {
			return fmt.Errorf("retarget: clip %q: nil channel %q", c.Name, name)
		}
		if ch.Rotations != nil && len(ch.Rotations) != len(ch.Times) {
			return fmt.Errorf("retarget: clip %q: channel %q rotation count %d != key count %d",
				c.Name, name, len(ch.Rotations), len(ch.Times))
		}
		if ch.Positions != nil && len(ch.Positions) != len(ch.Times) {
			return fmt.Errorf("retarget: clip %q: channel %q position count %d != key count %d",
				c.Name, name, len(ch.Positions), len(ch.Times))
		}
		for i := 1; i < len(ch.Times); i++ {
			if ch.Times[i] <= ch.Times[i-1] {
				return fmt.Errorf("retarget: clip %q: channel %q times not increasing at key %d",
					c.Name, name, i)
			}
		}
	}
	return nil
}

// bracket finds the key interval containing t and the interpolation
// parameter within it. Clamps at both clip ends.
func bracket(times []float32, t float32) (int, int, geom.Element) {
	if len(times) == 0 {
		return 0, 0, 0
	}
	if t <= times[0] {
		return 0, 0, 0
	}
	last := len(times) - 1
	if t >= times[last] {
		return last, last, 0
	}
	lo, hi := 0, last
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if times[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}
	span := times[hi] - times[lo]
	if span <= 0 {
		return lo, lo, 0
	}
	return lo, hi, geom.Element((t - times[lo]) / span)
}

// SampleRotation returns the spherically interpolated rotation at t,
// identity when the channel has no rotation keys.
func (c *Channel) SampleRotation(t float32) *geom.Quaternion {
	if len(c.Rotations) == 0 {
		return &geom.Quaternion{W: 1}
	}
	i, j, f := bracket(c.Times, t)
	if i == j || f == 0 {
		return c.Rotations[i].Clone()
	}
	return geom.Slerp(&c.Rotations[i], &c.Rotations[j], f)
}

// SamplePosition returns the linearly interpolated position at t, zero
// when the channel has no position keys.
func (c *Channel) SamplePosition(t float32) *geom.Vector3 {
	if len(c.Positions) == 0 {
		return &geom.Vector3{}
	}
	i, j, f := bracket(c.Times, t)
	if i == j || f == 0 {
		return c.Positions[i].Clone()
	}
	return c.Positions[i].Lerp(&c.Positions[j], f)
}
