package rig

import (
	"github.com/bindpose/autorig/geom"
)

// boneUp is the local axis that points along a bone toward its child,
// matching the convention skeleton authoring tools expect.
var boneUp = geom.Vector3{Y: 1}

// BuildSkeleton converts resolved joint positions into a parented bone
// hierarchy with local transforms. Bone order matches BuildEnvelopes, so
// envelope bone indices index this skeleton directly. The returned role
// table maps semantic joints to bone indices.
func BuildSkeleton(j *ResolvedJoints) (*Skeleton, RoleTable) {
	worldPos := make([]geom.Vector3, len(humanBones))
	worldRot := make([]geom.Quaternion, len(humanBones))

	for i, b := range humanBones {
		worldPos[i] = *b.start(j)
		if b.name == "headTop" {
			// no meaningful aim direction above the head
			worldRot[i] = geom.Quaternion{W: 1}
			continue
		}
		dir := b.end(j).Sub(&worldPos[i])
		if dir.LenSqr() == 0 {
			worldRot[i] = geom.Quaternion{W: 1}
			continue
		}
		worldRot[i] = *geom.NewQuaternionFromTwoVectors(&boneUp, dir)
	}

	skel := &Skeleton{Bones: make([]Bone, len(humanBones))}
	roles := NewRoleTable()
	for i, b := range humanBones {
		bone := Bone{
			Name:       b.name,
			Parent:     BoneID(b.parent),
			LocalScale: geom.Vector3{X: 1, Y: 1, Z: 1},
		}
		if b.parent < 0 {
			bone.LocalPosition = worldPos[i]
			bone.LocalRotation = worldRot[i]
		} else {
			parentInv := worldRot[b.parent].Inverse()
			bone.LocalRotation = *parentInv.Mul(&worldRot[i])
			bone.LocalPosition = *parentInv.ApplyTo(worldPos[i].Sub(&worldPos[b.parent]))
		}
		skel.Bones[i] = bone
		if b.role != RoleNone {
			roles[b.role] = BoneID(i)
		}
	}
	return skel, roles
}
