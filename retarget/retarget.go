package retarget

import (
	"fmt"
	"log"

	"github.com/bindpose/autorig/geom"
	"github.com/bindpose/autorig/rig"
)

const (
	defaultFrameRate = 30
	fallbackHeight   = 1.7

	// scale factors outside this range are treated as malformed input
	minGlobalScale = 0.01
	maxGlobalScale = 100
)

type Options struct {
	FrameRate float32 // output frames per second, default 30
	FootIK    bool    // re-plant feet after the rotation pass
}

// Request carries everything one retarget run reads. All fields are
// treated as immutable for the duration of the run.
type Request struct {
	Target *rig.Skeleton
	Source *rig.Skeleton

	// Role tables may be nil, in which case roles are resolved from
	// bone names via the alias dictionary.
	TargetRoles *rig.RoleTable
	SourceRoles *rig.RoleTable

	Mapping Mapping
	Clip    *Clip
	Options Options
}

type Result struct {
	Clip        *Clip
	GlobalScale geom.Element

	// SkippedBones counts mapped target bones that produced no output
	// because the source clip carries no track for them. Expected and
	// non-fatal; callers surface it as a warning.
	SkippedBones int

	// NumericFixups counts samples replaced by a safe default because
	// the math produced a non-finite value.
	NumericFixups int
}

// Retarget transfers req.Clip onto the target skeleton. Per mapped bone
// the output rotation is targetRest * sourceRest^-1 * sourceSample: the
// source's rotation relative to its own rest pose, re-expressed in the
// target bone's rest frame. Root motion is delta-based on all three axes:
// targetRestPos + (sample - sampleAtFrame0) * globalScale. (The source
// system switched vertical-axis strategy on a root-height threshold; the
// delta form is used unconditionally here so zero-height roots behave the
// same as everything else.)
func Retarget(req *Request) (*Result, error) {
	if req.Target == nil || req.Source == nil {
		return nil, fmt.Errorf("retarget: missing skeleton")
	}
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	if err := req.Source.Validate(); err != nil {
		return nil, err
	}
	if err := req.Clip.Validate(); err != nil {
		return nil, err
	}
	fps := req.Options.FrameRate
	if fps <= 0 {
		fps = defaultFrameRate
	}

	targetRoles := req.TargetRoles
	if targetRoles == nil {
		t := ResolveRoles(req.Target)
		targetRoles = &t
	}
	sourceRoles := req.SourceRoles
	if sourceRoles == nil {
		s := ResolveRoles(req.Source)
		sourceRoles = &s
	}

	// bind poses, snapshotted before any sampling
	targetRest := req.Target.RestPose()
	targetRest.ComputeWorld(req.Target)
	sourceRest := req.Source.RestPose()
	sourceRest.ComputeWorld(req.Source)

	res := &Result{}
	res.GlobalScale = globalScale(req, targetRest, sourceRest, targetRoles, sourceRoles)

	times := frameTimes(req.Clip.Duration, fps)

	targetRoot := rootBone(req.Target, targetRoles)

	out := &Clip{
		Name:     req.Clip.Name,
		Duration: req.Clip.Duration,
		Channels: map[string]*Channel{},
	}
	outByBone := map[rig.BoneID]*Channel{}

	for ti := range req.Target.Bones {
		name := req.Target.Bones[ti].Name
		srcName, mapped := req.Mapping[name]
		if !mapped {
			continue
		}
		ch := req.Clip.Channels[srcName]
		si := req.Source.BoneByName(srcName)
		if ch == nil || si == rig.NilBone {
			res.SkippedBones++
			continue
		}

		tRest := &req.Target.Bones[ti].LocalRotation
		sRestInv := req.Source.Bones[si].LocalRotation.Inverse()
		corr := tRest.Mul(sRestInv)

		outCh := &Channel{
			Target:    name,
			Times:     times,
			Rotations: make([]geom.Quaternion, len(times)),
		}
		for f, t := range times {
			q := corr.Mul(ch.SampleRotation(t))
			if !q.IsFinite() {
				q = tRest.Clone()
				res.NumericFixups++
			}
			outCh.Rotations[f] = *q.Normalize()
		}

		if rig.BoneID(ti) == targetRoot && len(ch.Positions) > 0 {
			rest := &req.Target.Bones[ti].LocalPosition
			pos0 := ch.SamplePosition(0)
			outCh.Positions = make([]geom.Vector3, len(times))
			for f, t := range times {
				p := rest.Add(ch.SamplePosition(t).Sub(pos0).Scale(res.GlobalScale))
				if !p.IsFinite() {
					p = rest.Clone()
					res.NumericFixups++
				}
				outCh.Positions[f] = *p
			}
		}

		out.Channels[name] = outCh
		outByBone[rig.BoneID(ti)] = outCh
	}

	if req.Options.FootIK {
		applyFootIK(req, res, out, outByBone, targetRoles, sourceRoles, times)
	}

	res.Clip = out
	if res.SkippedBones > 0 {
		log.Println("retarget: skipped bones without source tracks:", res.SkippedBones)
	}
	if res.NumericFixups > 0 {
		log.Println("retarget: non-finite samples replaced:", res.NumericFixups)
	}
	return res, nil
}

func frameTimes(duration, fps float32) []float32 {
	// the float32 product can land just below a whole frame count;
	// round so the final frame survives
	n := int(duration*fps+0.5) + 1
	if n < 1 {
		n = 1
	}
	times := make([]float32, n)
	for i := range times {
		times[i] = float32(i) / fps
	}
	return times
}

// rootBone prefers the hips-role bone; a skeleton whose hips could not be
// identified falls back to the hierarchy root.
func rootBone(s *rig.Skeleton, roles *rig.RoleTable) rig.BoneID {
	if b := roles.Bone(rig.RoleHips); b != rig.NilBone {
		return b
	}
	return s.Root()
}

// skeletonHeight measures a bind pose: hips-to-head distance when both
// are identified, else the maximum pairwise bone distance, else a
// human-sized constant.
func skeletonHeight(s *rig.Skeleton, rest *rig.Pose, roles *rig.RoleTable) geom.Element {
	root := roles.Bone(rig.RoleHips)
	head := roles.Bone(rig.RoleHead)
	if root != rig.NilBone && head != rig.NilBone {
		if h := rest.World[head].Position.Sub(&rest.World[root].Position).Len(); h > 0 {
			return h
		}
	}
	var max geom.Element
	for i := range s.Bones {
		for j := i + 1; j < len(s.Bones); j++ {
			if d := rest.World[i].Position.Sub(&rest.World[j].Position).Len(); d > max {
				max = d
			}
		}
	}
	if max > 0 {
		return max
	}
	log.Println("retarget: skeleton has no measurable height, assuming", fallbackHeight)
	return fallbackHeight
}

func globalScale(req *Request, targetRest, sourceRest *rig.Pose, targetRoles, sourceRoles *rig.RoleTable) geom.Element {
	th := skeletonHeight(req.Target, targetRest, targetRoles)
	sh := skeletonHeight(req.Source, sourceRest, sourceRoles)
	scale := th / sh
	if !geom.IsFinite(scale) || scale < minGlobalScale || scale > maxGlobalScale {
		log.Println("retarget: implausible scale factor, using 1.0:", scale)
		return 1
	}
	return scale
}
