package retarget

import (
	"math"
	"testing"

	"github.com/bindpose/autorig/geom"
)

func TestClipValidate(t *testing.T) {
	var nilClip *Clip
	if err := nilClip.Validate(); err == nil {
		t.Error("nil clip accepted")
	}
	clip := &Clip{Name: "walk", Duration: 1, Channels: map[string]*Channel{
		"hips": {
			Target:    "hips",
			Times:     []float32{0, 0.5, 1},
			Rotations: []geom.Quaternion{{W: 1}, {W: 1}, {W: 1}},
			Positions: []geom.Vector3{{}, {Y: 0.1}, {}},
		},
	}}
	if err := clip.Validate(); err != nil {
		t.Error("valid clip rejected: ", err)
	}

	clip.Channels["broken"] = nil
	if err := clip.Validate(); err == nil {
		t.Error("nil channel accepted")
	}
	delete(clip.Channels, "broken")

	clip.Channels["hips"].Rotations = clip.Channels["hips"].Rotations[:2]
	if err := clip.Validate(); err == nil {
		t.Error("rotation count mismatch accepted")
	}
	clip.Channels["hips"].Rotations = append(clip.Channels["hips"].Rotations, geom.Quaternion{W: 1})

	clip.Channels["hips"].Times = []float32{0, 0.5, 0.5}
	if err := clip.Validate(); err == nil {
		t.Error("non-increasing times accepted")
	}
}

func TestSamplePosition(t *testing.T) {
	const eps = 0.0001
	ch := &Channel{
		Times:     []float32{0, 1, 2},
		Positions: []geom.Vector3{{X: 0}, {X: 1}, {X: 3}},
	}
	for _, c := range []struct{ t, want float32 }{
		{-1, 0},   // clamp before first key
		{0, 0},    // exact key
		{0.5, 0.5},
		{1.5, 2},
		{2, 3},
		{9, 3}, // clamp past last key
	} {
		if got := ch.SamplePosition(c.t); geom.Abs(got.X-c.want) > eps {
			t.Errorf("SamplePosition(%v).X = %v, want %v", c.t, got.X, c.want)
		}
	}

	empty := &Channel{Times: []float32{0}}
	if p := empty.SamplePosition(0); p.Len() != 0 {
		t.Error("empty channel should sample zero position: ", p)
	}
}

func TestSampleRotation(t *testing.T) {
	const eps = 0.0001
	halfTurn := geom.NewQuaternionFromAxisAngle(&geom.Vector3{Z: 1}, math.Pi/2)
	ch := &Channel{
		Times:     []float32{0, 1},
		Rotations: []geom.Quaternion{{W: 1}, *halfTurn},
	}

	if q := ch.SampleRotation(0); geom.Abs(q.W-1) > eps {
		t.Error("start key: ", q)
	}
	// slerp midpoint of identity and a 90 degree z turn is a 45 degree turn
	mid := ch.SampleRotation(0.5)
	want := geom.NewQuaternionFromAxisAngle(&geom.Vector3{Z: 1}, math.Pi/4)
	if mid.Sub(want).Len() > eps {
		t.Error("midpoint: ", mid, " want ", want)
	}
	if q := ch.SampleRotation(5); q.Sub(halfTurn).Len() > eps {
		t.Error("clamp past last key: ", q)
	}

	empty := &Channel{Times: []float32{0}}
	if q := empty.SampleRotation(0); q.W != 1 || q.X != 0 {
		t.Error("empty channel should sample identity: ", q)
	}
}
