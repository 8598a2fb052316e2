package retarget

import (
	"math"
	"testing"

	"github.com/bindpose/autorig/geom"
	"github.com/bindpose/autorig/rig"
)

// testHumanoid builds a small T-pose biped with conventional bone names,
// uniformly scaled by k. Rest rotations are identity so world offsets
// equal the summed local offsets.
func testHumanoid(k geom.Element) *rig.Skeleton {
	type def struct {
		name   string
		parent rig.BoneID
		pos    geom.Vector3
	}
	defs := []def{
		{"Hips", rig.NilBone, geom.Vector3{Y: 1}},
		{"Spine", 0, geom.Vector3{Y: 0.3}},
		{"Head", 1, geom.Vector3{Y: 0.4}},
		{"LeftUpLeg", 0, geom.Vector3{X: 0.1, Y: -0.05}},
		{"LeftLeg", 3, geom.Vector3{Y: -0.45}},
		{"LeftFoot", 4, geom.Vector3{Y: -0.42}},
		{"RightUpLeg", 0, geom.Vector3{X: -0.1, Y: -0.05}},
		{"RightLeg", 6, geom.Vector3{Y: -0.45}},
		{"RightFoot", 7, geom.Vector3{Y: -0.42}},
	}
	s := &rig.Skeleton{Bones: make([]rig.Bone, len(defs))}
	for i, d := range defs {
		s.Bones[i] = rig.Bone{
			Name:          d.name,
			Parent:        d.parent,
			LocalPosition: *d.pos.Scale(k),
			LocalRotation: geom.Quaternion{W: 1},
			LocalScale:    geom.Vector3{X: 1, Y: 1, Z: 1},
		}
	}
	return s
}

func identityMapping(s *rig.Skeleton) Mapping {
	m := Mapping{}
	for i := range s.Bones {
		m[s.Bones[i].Name] = s.Bones[i].Name
	}
	return m
}

// Retargeting a clip onto the very skeleton it was authored for must
// reproduce it: rest correction is identity and the scale factor is 1.
func TestRetargetIdentity(t *testing.T) {
	const eps = 0.0001
	s := testHumanoid(1)

	rots := []geom.Quaternion{
		{W: 1},
		*geom.NewQuaternionFromAxisAngle(&geom.Vector3{Z: 1}, 0.4),
		*geom.NewQuaternionFromAxisAngle(&geom.Vector3{X: 1}, -0.7),
	}
	clip := &Clip{
		Name:     "wave",
		Duration: 0.2,
		Channels: map[string]*Channel{
			"LeftUpLeg": {Target: "LeftUpLeg", Times: []float32{0, 0.1, 0.2}, Rotations: rots},
			"Hips": {
				Target:    "Hips",
				Times:     []float32{0, 0.1, 0.2},
				Rotations: []geom.Quaternion{{W: 1}, {W: 1}, {W: 1}},
				Positions: []geom.Vector3{{Y: 1}, {X: 0.2, Y: 1.1}, {X: 0.4, Y: 1}},
			},
		},
	}
	res, err := Retarget(&Request{
		Target:  s,
		Source:  testHumanoid(1),
		Mapping: identityMapping(s),
		Clip:    clip,
		Options: Options{FrameRate: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	if geom.Abs(res.GlobalScale-1) > eps {
		t.Error("scale: ", res.GlobalScale)
	}
	if res.SkippedBones != 0 || res.NumericFixups != 0 {
		t.Error("unexpected fixups: ", res.SkippedBones, res.NumericFixups)
	}

	out := res.Clip.Channels["LeftUpLeg"]
	if out == nil {
		t.Fatal("no output channel for LeftUpLeg")
	}
	if len(out.Times) != 3 {
		t.Fatal("frame count: ", len(out.Times))
	}
	for f := range out.Rotations {
		if out.Rotations[f].Sub(&rots[f]).Len() > eps {
			t.Errorf("frame %d: got %v want %v", f, out.Rotations[f], rots[f])
		}
	}

	// identity scale: root deltas pass through unchanged
	hips := res.Clip.Channels["Hips"]
	if hips == nil || hips.Positions == nil {
		t.Fatal("hips channel lost its positions")
	}
	want := []geom.Vector3{{Y: 1}, {X: 0.2, Y: 1.1}, {X: 0.4, Y: 1}}
	for f := range hips.Positions {
		if hips.Positions[f].Sub(&want[f]).Len() > eps {
			t.Errorf("root frame %d: got %v want %v", f, hips.Positions[f], want[f])
		}
	}
}

// A target of k times the source proportions scales root travel by k
// while leaving rotations untouched.
func TestRetargetScaledRoot(t *testing.T) {
	const eps = 0.001
	const k = 2
	target := testHumanoid(k)
	source := testHumanoid(1)

	clip := &Clip{
		Name:     "stride",
		Duration: 0.2,
		Channels: map[string]*Channel{
			"Hips": {
				Target:    "Hips",
				Times:     []float32{0, 0.1, 0.2},
				Rotations: []geom.Quaternion{{W: 1}, {W: 1}, {W: 1}},
				Positions: []geom.Vector3{{Y: 1}, {X: 0.3, Y: 1.05}, {X: 0.6, Y: 1}},
			},
		},
	}
	res, err := Retarget(&Request{
		Target:  target,
		Source:  source,
		Mapping: Mapping{"Hips": "Hips"},
		Clip:    clip,
		Options: Options{FrameRate: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	if geom.Abs(res.GlobalScale-k) > eps {
		t.Fatal("scale: ", res.GlobalScale)
	}

	hips := res.Clip.Channels["Hips"]
	rest := &target.Bones[0].LocalPosition
	src := clip.Channels["Hips"].Positions
	for f := range hips.Positions {
		want := rest.Add(src[f].Sub(&src[0]).Scale(k))
		if hips.Positions[f].Sub(want).Len() > eps {
			t.Errorf("root frame %d: got %v want %v", f, hips.Positions[f], *want)
		}
	}
}

func TestRetargetSkipsUntrackedBones(t *testing.T) {
	s := testHumanoid(1)
	clip := &Clip{Name: "idle", Duration: 0, Channels: map[string]*Channel{}}
	res, err := Retarget(&Request{
		Target:  s,
		Source:  testHumanoid(1),
		Mapping: Mapping{"Head": "Head", "Spine": "NoSuchBone"},
		Clip:    clip,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.SkippedBones != 2 {
		t.Error("skipped: ", res.SkippedBones)
	}
	if len(res.Clip.Channels) != 0 {
		t.Error("channels for skipped bones: ", len(res.Clip.Channels))
	}
}

func TestRetargetScaleClamp(t *testing.T) {
	clip := &Clip{Name: "idle", Duration: 0, Channels: map[string]*Channel{}}
	res, err := Retarget(&Request{
		Target:  testHumanoid(1),
		Source:  testHumanoid(200), // ratio 0.005, outside the plausible range
		Mapping: Mapping{},
		Clip:    clip,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.GlobalScale != 1 {
		t.Error("implausible ratio should fall back to 1: ", res.GlobalScale)
	}
}

func TestRetargetValidation(t *testing.T) {
	s := testHumanoid(1)
	clip := &Clip{Name: "idle", Duration: 0, Channels: map[string]*Channel{}}

	if _, err := Retarget(&Request{Source: s, Clip: clip}); err == nil {
		t.Error("missing target accepted")
	}
	if _, err := Retarget(&Request{Target: s, Source: s}); err == nil {
		t.Error("nil clip accepted")
	}
	bad := &Clip{Name: "bad", Channels: map[string]*Channel{
		"Hips": {Times: []float32{0, 0}, Rotations: []geom.Quaternion{{W: 1}, {W: 1}}},
	}}
	if _, err := Retarget(&Request{Target: s, Source: s, Clip: bad}); err == nil {
		t.Error("invalid clip accepted")
	}
}

func TestRetargetDefaultFrameRate(t *testing.T) {
	s := testHumanoid(1)
	clip := &Clip{
		Name:     "clip",
		Duration: 1,
		Channels: map[string]*Channel{
			"Head": {Target: "Head", Times: []float32{0, 1}, Rotations: []geom.Quaternion{{W: 1}, {W: 1}}},
		},
	}
	res, err := Retarget(&Request{
		Target:  s,
		Source:  testHumanoid(1),
		Mapping: Mapping{"Head": "Head"},
		Clip:    clip,
	})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(res.Clip.Channels["Head"].Times); n != 31 {
		t.Error("1s at the default 30fps should yield 31 frames: ", n)
	}
}

// A clip sampled through a pose restates the same world positions when
// the rig and the motion are identical; the foot pass must not disturb
// an already-correct result.
func TestRetargetFootIKStable(t *testing.T) {
	const eps = 0.01
	s := testHumanoid(1)
	bend := *geom.NewQuaternionFromAxisAngle(&geom.Vector3{X: 1}, 0.3)
	clip := &Clip{
		Name:     "step",
		Duration: 0.1,
		Channels: map[string]*Channel{
			"LeftUpLeg": {Target: "LeftUpLeg", Times: []float32{0, 0.1}, Rotations: []geom.Quaternion{bend, bend}},
		},
	}
	res, err := Retarget(&Request{
		Target:  s,
		Source:  testHumanoid(1),
		Mapping: identityMapping(s),
		Clip:    clip,
		Options: Options{FrameRate: 10, FootIK: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	// unmapped chain bones get rest-backed tracks so the pass can write
	// corrections into them
	for _, name := range []string{"LeftUpLeg", "LeftLeg", "RightUpLeg", "RightLeg"} {
		ch := res.Clip.Channels[name]
		if ch == nil {
			t.Fatal("missing channel after foot pass: ", name)
		}
		for f := range ch.Rotations {
			if !ch.Rotations[f].IsFinite() {
				t.Errorf("%s frame %d: non-finite rotation", name, f)
			}
			if geom.Abs(ch.Rotations[f].Len()-1) > eps {
				t.Errorf("%s frame %d: not unit length: %v", name, f, ch.Rotations[f].Len())
			}
		}
	}
}

func TestFrameTimes(t *testing.T) {
	if n := len(frameTimes(0, 30)); n != 1 {
		t.Error("zero duration: ", n)
	}
	times := frameTimes(0.5, 30)
	if len(times) != 16 {
		t.Fatal("frame count: ", len(times))
	}
	for i := 1; i < len(times); i++ {
		if math.Abs(float64(times[i]-times[i-1])-1.0/30) > 1e-6 {
			t.Fatal("uneven frame spacing at ", i)
		}
	}

	// frame count must not depend on how duration*fps rounds in float32
	for _, fps := range []float32{24, 25, 30, 60, 120} {
		for frames := 2; frames <= 400; frames++ {
			d := float32(frames-1) / fps
			if got := len(frameTimes(d, fps)); got != frames {
				t.Fatal("frames for ", d, "s at ", fps, "fps: ", got, " want ", frames)
			}
		}
	}
}
