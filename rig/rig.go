// Package rig builds a skeleton and per-vertex skin weights from a sparse
// set of joint markers placed on a mesh.
package rig

import (
	"fmt"

	"github.com/bindpose/autorig/geom"
)

// BoneID is an index into Skeleton.Bones. NilBone marks "no bone".
type BoneID int

const NilBone BoneID = -1

type Bone struct {
	Name          string
	Parent        BoneID
	LocalPosition geom.Vector3
	LocalRotation geom.Quaternion
	LocalScale    geom.Vector3
}

// Skeleton is a bone tree stored as a flat array. Bones are ordered so
// that a parent always precedes its children, which lets world transforms
// be computed in a single forward pass.
type Skeleton struct {
	Bones []Bone
}

func (s *Skeleton) BoneByName(name string) BoneID {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return BoneID(i)
		}
	}
	return NilBone
}

// Root returns the index of the single parentless bone.
func (s *Skeleton) Root() BoneID {
	for i := range s.Bones {
		if s.Bones[i].Parent < 0 {
			return BoneID(i)
		}
	}
	return NilBone
}

// Validate checks the skeleton structure: exactly one root, parents
// precede children, no out-of-range parent references.
func (s *Skeleton) Validate() error {
	if len(s.Bones) == 0 {
		return fmt.Errorf("rig: skeleton has no bones")
	}
	roots := 0
	for i := range s.Bones {
		p := s.Bones[i].Parent
		if p < 0 {
			roots++
			continue
		}
		if int(p) >= len(s.Bones) {
			return fmt.Errorf("rig: bone %q parent out of range: %d", s.Bones[i].Name, p)
		}
		if int(p) >= i {
			return fmt.Errorf("rig: bone %q precedes its parent", s.Bones[i].Name)
		}
	}
	if roots != 1 {
		return fmt.Errorf("rig: skeleton must have exactly one root, found %d", roots)
	}
	return nil
}

// Transform is a local or world TRS of a single bone.
type Transform struct {
	Position geom.Vector3
	Rotation geom.Quaternion
	Scale    geom.Vector3
}

// Pose holds per-bone local transforms for a skeleton, indexed like
// Skeleton.Bones. It is the mutable counterpart of the immutable skeleton.
type Pose struct {
	Local []Transform
	World []Transform
}

// RestPose copies the skeleton's bind transforms into a new pose.
func (s *Skeleton) RestPose() *Pose {
	p := &Pose{
		Local: make([]Transform, len(s.Bones)),
		World: make([]Transform, len(s.Bones)),
	}
	for i := range s.Bones {
		p.Local[i] = Transform{
			Position: s.Bones[i].LocalPosition,
			Rotation: s.Bones[i].LocalRotation,
			Scale:    s.Bones[i].LocalScale,
		}
	}
	return p
}

// ComputeWorld fills p.World from p.Local in one top-down pass.
// Valid because parents precede children in the bone array; callers must
// run this after mutating locals and before reading world transforms.
func (p *Pose) ComputeWorld(s *Skeleton) {
	for i := range s.Bones {
		parent := s.Bones[i].Parent
		if parent < 0 {
			p.World[i] = p.Local[i]
			continue
		}
		pw := &p.World[parent]
		p.World[i].Rotation = *pw.Rotation.Mul(&p.Local[i].Rotation)
		p.World[i].Position = *pw.Position.Add(pw.Rotation.ApplyTo(&p.Local[i].Position))
		p.World[i].Scale = geom.Vector3{
			X: pw.Scale.X * p.Local[i].Scale.X,
			Y: pw.Scale.Y * p.Local[i].Scale.Y,
			Z: pw.Scale.Z * p.Local[i].Scale.Z,
		}
	}
}

// JointRole names a semantic joint independently of bone naming
// conventions. Roles are resolved once per skeleton into a RoleTable
// instead of re-matching name patterns on every access.
type JointRole int

const (
	RoleNone JointRole = iota
	RoleHips
	RoleSpine
	RoleChest
	RoleNeck
	RoleHead
	RoleLeftUpperLeg
	RoleLeftLowerLeg
	RoleLeftFoot
	RoleLeftToe
	RoleRightUpperLeg
	RoleRightLowerLeg
	RoleRightFoot
	RoleRightToe
	RoleLeftShoulder
	RoleLeftUpperArm
	RoleLeftLowerArm
	RoleLeftHand
	RoleRightShoulder
	RoleRightUpperArm
	RoleRightLowerArm
	RoleRightHand
	roleCount
)

// RoleTable maps joint roles to bone indices. Missing roles are NilBone.
type RoleTable [roleCount]BoneID

func NewRoleTable() RoleTable {
	var t RoleTable
	for i := range t {
		t[i] = NilBone
	}
	return t
}

func (t *RoleTable) Bone(r JointRole) BoneID {
	return t[r]
}
