package rig

import (
	"github.com/bindpose/autorig/geom"
)

// Envelope is a capsule of influence around one bone segment.
type Envelope struct {
	Bone   BoneID
	Name   string
	Start  geom.Vector3
	End    geom.Vector3
	Radius geom.Element
}

// humanBone is one entry of the fixed humanoid hierarchy. start is the
// bone's joint position, end its aim target (the designated child joint,
// or a synthetic offset for terminal bones). radius is the per-bone
// multiplier applied to ResolvedJoints.BaseRadius; torso bones are wider
// than limb bones. The multipliers are tuned values, not derived ones.
type humanBone struct {
	name     string
	parent   int
	role     JointRole
	radius   geom.Element
	terminal bool
	start    func(*ResolvedJoints) *geom.Vector3
	end      func(*ResolvedJoints) *geom.Vector3
}

// extend continues past b in the a->b direction. Used to give terminal
// bones a non-degenerate segment.
func extend(a, b *geom.Vector3, t geom.Element) *geom.Vector3 {
	return b.Add(b.Sub(a).Scale(t))
}

var humanBones = []humanBone{
	{"hips", -1, RoleHips, 1.8, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.Pelvis },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.SpineMid }},
	{"spine", 0, RoleSpine, 1.6, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.SpineMid },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.Chest }},
	{"spine1", 1, RoleChest, 1.5, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.Chest },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.SpineUpper }},
	{"spine2", 2, RoleNone, 1.4, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.SpineUpper },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.Neck }},
	{"neck", 3, RoleNeck, 0.8, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.Neck },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.Chin }},
	{"head", 4, RoleHead, 1.2, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.Chin },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.HeadTop }},
	{"headTop", 5, RoleNone, 0.9, true,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.HeadTop },
		func(j *ResolvedJoints) *geom.Vector3 { return extend(&j.Chin, &j.HeadTop, 0.25) }},

	{"leftUpperLeg", 0, RoleLeftUpperLeg, 1.1, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftHip },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftKnee }},
	{"leftLowerLeg", 7, RoleLeftLowerLeg, 0.9, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftKnee },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftAnkle }},
	{"leftFoot", 8, RoleLeftFoot, 0.6, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftAnkle },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftToe }},
	{"leftToes", 9, RoleLeftToe, 0.5, true,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftToe },
		func(j *ResolvedJoints) *geom.Vector3 { return extend(&j.LeftAnkle, &j.LeftToe, 0.5) }},

	{"rightUpperLeg", 0, RoleRightUpperLeg, 1.1, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightHip },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightKnee }},
	{"rightLowerLeg", 11, RoleRightLowerLeg, 0.9, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightKnee },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightAnkle }},
	{"rightFoot", 12, RoleRightFoot, 0.6, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightAnkle },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightToe }},
	{"rightToes", 13, RoleRightToe, 0.5, true,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightToe },
		func(j *ResolvedJoints) *geom.Vector3 { return extend(&j.RightAnkle, &j.RightToe, 0.5) }},

	{"leftShoulder", 3, RoleLeftShoulder, 0.9, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftShoulder },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftUpperArm }},
	{"leftUpperArm", 15, RoleLeftUpperArm, 0.8, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftUpperArm },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftElbow }},
	{"leftLowerArm", 16, RoleLeftLowerArm, 0.7, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftElbow },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftWrist }},
	{"leftHand", 17, RoleLeftHand, 0.5, true,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.LeftWrist },
		func(j *ResolvedJoints) *geom.Vector3 { return extend(&j.LeftElbow, &j.LeftWrist, 0.3) }},

	{"rightShoulder", 3, RoleRightShoulder, 0.9, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightShoulder },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightUpperArm }},
	{"rightUpperArm", 19, RoleRightUpperArm, 0.8, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightUpperArm },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightElbow }},
	{"rightLowerArm", 20, RoleRightLowerArm, 0.7, false,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightElbow },
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightWrist }},
	{"rightHand", 21, RoleRightHand, 0.5, true,
		func(j *ResolvedJoints) *geom.Vector3 { return &j.RightWrist },
		func(j *ResolvedJoints) *geom.Vector3 { return extend(&j.RightElbow, &j.RightWrist, 0.3) }},
}

// BoneCount is the number of bones in the generated humanoid skeleton.
// Envelope and skeleton bone indices agree by construction.
const BoneCount = 23

// BuildEnvelopes produces one capsule per bone in canonical bone order.
// preset may be nil; a non-nil preset can override radius multipliers.
func BuildEnvelopes(j *ResolvedJoints, preset *Preset) []Envelope {
	envs := make([]Envelope, len(humanBones))
	for i, b := range humanBones {
		mult := b.radius
		if preset != nil {
			if m, ok := preset.RadiusMultipliers[b.name]; ok {
				mult = m
			}
		}
		envs[i] = Envelope{
			Bone:   BoneID(i),
			Name:   b.name,
			Start:  *b.start(j),
			End:    *b.end(j),
			Radius: j.BaseRadius * mult,
		}
	}
	return envs
}
