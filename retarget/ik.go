package retarget

import (
	"github.com/bindpose/autorig/geom"
	"github.com/bindpose/autorig/rig"
)

const (
	ikMaxIterations = 12
	ikTolerance     = 1e-3 // meters
	// cap each swing to half the naive correction; full steps oscillate
	// when both joints fight over the same error
	ikDamping = 0.5
)

// SolveTwoBone runs cyclic coordinate descent on a root-middle-effector
// chain, swinging the middle then the root bone toward the target until
// the effector is within tolerance or maxIter is reached. Bone lengths
// are never changed; an unreachable target converges toward the fully
// extended pose. pose.World must be current on entry; both Local and
// World are updated. Returns the number of iterations executed.
func SolveTwoBone(s *rig.Skeleton, pose *rig.Pose, root, mid, effector rig.BoneID, target *geom.Vector3, maxIter int) int {
	iter := 0
	for ; iter < maxIter; iter++ {
		if pose.World[effector].Position.Sub(target).Len() <= ikTolerance {
			break
		}
		// innermost joint first
		for _, bone := range [2]rig.BoneID{mid, root} {
			bw := &pose.World[bone]
			toEffector := pose.World[effector].Position.Sub(&bw.Position)
			toTarget := target.Sub(&bw.Position)
			if toEffector.LenSqr() == 0 || toTarget.LenSqr() == 0 {
				continue
			}
			swing := geom.NewQuaternionFromTwoVectors(toEffector, toTarget)
			swing = geom.Slerp(&geom.Quaternion{W: 1}, swing, ikDamping)

			worldRot := swing.Mul(&bw.Rotation)
			parent := s.Bones[bone].Parent
			if parent >= 0 {
				pose.Local[bone].Rotation = *pose.World[parent].Rotation.Inverse().Mul(worldRot)
			} else {
				pose.Local[bone].Rotation = *worldRot
			}
			// descendants must see the new pose before the next joint reads it
			pose.ComputeWorld(s)
		}
	}
	return iter
}

type legChain struct {
	root, mid, effector rig.BoneID // upper leg, lower leg, foot
	srcFoot             rig.BoneID
}

func legChains(targetRoles, sourceRoles *rig.RoleTable) []legChain {
	var chains []legChain
	sides := [2][4]rig.JointRole{
		{rig.RoleLeftUpperLeg, rig.RoleLeftLowerLeg, rig.RoleLeftFoot, rig.RoleLeftFoot},
		{rig.RoleRightUpperLeg, rig.RoleRightLowerLeg, rig.RoleRightFoot, rig.RoleRightFoot},
	}
	for _, s := range sides {
		c := legChain{
			root:     targetRoles.Bone(s[0]),
			mid:      targetRoles.Bone(s[1]),
			effector: targetRoles.Bone(s[2]),
			srcFoot:  sourceRoles.Bone(s[3]),
		}
		if c.root == rig.NilBone || c.mid == rig.NilBone || c.effector == rig.NilBone || c.srcFoot == rig.NilBone {
			continue
		}
		chains = append(chains, c)
	}
	return chains
}

// restChannel backs an unmapped chain bone with rest-pose samples so the
// IK pass has a track to correct.
func restChannel(s *rig.Skeleton, bone rig.BoneID, times []float32) *Channel {
	ch := &Channel{
		Target:    s.Bones[bone].Name,
		Times:     times,
		Rotations: make([]geom.Quaternion, len(times)),
	}
	for i := range ch.Rotations {
		ch.Rotations[i] = s.Bones[bone].LocalRotation
	}
	return ch
}

func resetToRest(s *rig.Skeleton, pose *rig.Pose) {
	for i := range s.Bones {
		pose.Local[i] = rig.Transform{
			Position: s.Bones[i].LocalPosition,
			Rotation: s.Bones[i].LocalRotation,
			Scale:    s.Bones[i].LocalScale,
		}
	}
}

// applyFootIK re-plants each detected foot at the source foot's position
// reprojected into the target's proportions, then writes the corrected
// thigh and shin rotations back over this frame's samples. Frames are
// independent: each restates absolute pose from the sampled tracks.
func applyFootIK(req *Request, res *Result, out *Clip, outByBone map[rig.BoneID]*Channel,
	targetRoles, sourceRoles *rig.RoleTable, times []float32) {

	chains := legChains(targetRoles, sourceRoles)
	if len(chains) == 0 {
		return
	}

	for _, c := range chains {
		for _, bone := range [2]rig.BoneID{c.root, c.mid} {
			if outByBone[bone] == nil {
				ch := restChannel(req.Target, bone, times)
				outByBone[bone] = ch
				out.Channels[ch.Target] = ch
			}
		}
	}

	targetRoot := rootBone(req.Target, targetRoles)
	sourceRoot := rootBone(req.Source, sourceRoles)

	srcByName := map[string]rig.BoneID{}
	for i := range req.Source.Bones {
		srcByName[req.Source.Bones[i].Name] = rig.BoneID(i)
	}

	targetPose := req.Target.RestPose()
	sourcePose := req.Source.RestPose()

	for f, t := range times {
		resetToRest(req.Target, targetPose)
		for bone, ch := range outByBone {
			targetPose.Local[bone].Rotation = ch.Rotations[f]
			if ch.Positions != nil {
				targetPose.Local[bone].Position = ch.Positions[f]
			}
		}
		targetPose.ComputeWorld(req.Target)

		resetToRest(req.Source, sourcePose)
		for name, ch := range req.Clip.Channels {
			si, ok := srcByName[name]
			if !ok {
				continue
			}
			if q := ch.SampleRotation(t); q.IsFinite() {
				sourcePose.Local[si].Rotation = *q
			}
			if si == sourceRoot && len(ch.Positions) > 0 {
				if p := ch.SamplePosition(t); p.IsFinite() {
					sourcePose.Local[si].Position = *p
				}
			}
		}
		sourcePose.ComputeWorld(req.Source)

		for _, c := range chains {
			desired := sourcePose.World[c.srcFoot].Position.
				Sub(&sourcePose.World[sourceRoot].Position).
				Scale(res.GlobalScale).
				Add(&targetPose.World[targetRoot].Position)
			SolveTwoBone(req.Target, targetPose, c.root, c.mid, c.effector, desired, ikMaxIterations)

			outByBone[c.root].Rotations[f] = targetPose.Local[c.root].Rotation
			outByBone[c.mid].Rotations[f] = targetPose.Local[c.mid].Rotation
		}
	}
}
