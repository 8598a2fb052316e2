package retarget

import (
	"testing"

	"github.com/bindpose/autorig/rig"
)

func TestNormalizeBoneName(t *testing.T) {
	for _, c := range []struct{ in, want string }{
		{"Hips", "hips"},
		{"mixamorig:LeftArm", "leftarm"},
		{"L_Arm", "larm"},
		{"Bip01 L Thigh", "lthigh"},
		{"Spine2", "spine"},
		{"ns:rig:RightHand", "righthand"},
		{"ｈｉｐｓ", "hips"}, // full-width
		{"左腕", "左腕"},
	} {
		if got := NormalizeBoneName(c.in); got != c.want {
			t.Errorf("NormalizeBoneName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestScore(t *testing.T) {
	m := NewMatcher()

	// identical after normalization
	if s := m.Score("mixamorig:Hips", "hips"); s != 100 {
		t.Error("exact: ", s)
	}
	// same alias group, different normalized names
	if s := m.Score("mixamorig:LeftArm", "L_Arm"); s < 90 {
		t.Error("alias: ", s)
	}
	if s := m.Score("左腕", "LeftArm"); s < 90 {
		t.Error("mmd alias: ", s)
	}
	// containment: "spine" in "spinelower", 60 + round(30*5/10)
	if s := m.Score("SpineLower", "Spine99"); s != 75 {
		t.Error("containment: ", s)
	}
	// edit distance: thigf vs thigh, sim 0.8 -> 56
	if s := m.Score("thigf", "thigh"); s != 56 {
		t.Error("edit distance: ", s)
	}
	// nothing in common
	if s := m.Score("prop_sword", "eyelid"); s != 0 {
		t.Error("unrelated: ", s)
	}
}

func TestMatcherAliasConfig(t *testing.T) {
	m := NewMatcher()
	if s := m.Score("Pelvis2Root", "hips"); s >= 90 {
		t.Skip("unexpected builtin score", s)
	}
	m.extra = map[string]rig.JointRole{NormalizeBoneName("Pelvis2Root"): rig.RoleHips}
	if s := m.Score("Pelvis2Root", "hips"); s != 90 {
		t.Error("extra alias: ", s)
	}
}

func namedSkeleton(names []string) *rig.Skeleton {
	s := &rig.Skeleton{Bones: make([]rig.Bone, len(names))}
	for i, n := range names {
		s.Bones[i] = rig.Bone{Name: n, Parent: rig.BoneID(i - 1)}
	}
	return s
}

func TestMatchInjective(t *testing.T) {
	// deliberately ambiguous naming on both sides
	target := namedSkeleton([]string{
		"Hips", "Spine", "Spine1", "Spine2", "Neck", "Head",
		"LeftUpLeg", "LeftLeg", "LeftFoot", "LeftToeBase",
		"RightUpLeg", "RightLeg", "RightFoot", "RightToeBase",
		"LeftShoulder", "LeftArm", "LeftForeArm", "LeftHand",
		"RightShoulder", "RightArm", "RightForeArm", "RightHand",
	})
	source := namedSkeleton([]string{
		"pelvis", "spine_01", "spine_02", "spine_03", "neck_01", "head",
		"thigh_l", "calf_l", "foot_l", "ball_l",
		"thigh_r", "calf_r", "foot_r", "ball_r",
		"clavicle_l", "upperarm_l", "lowerarm_l", "hand_l",
		"clavicle_r", "upperarm_r", "lowerarm_r", "hand_r",
	})

	mapping := NewMatcher().Match(target, source)

	usedSources := map[string]string{}
	for tn, sn := range mapping {
		if prev, dup := usedSources[sn]; dup {
			t.Error("source ", sn, " assigned to both ", prev, " and ", tn)
		}
		usedSources[sn] = tn
	}

	for _, want := range [][2]string{
		{"Hips", "pelvis"},
		{"Head", "head"},
		{"LeftUpLeg", "thigh_l"},
		{"RightFoot", "foot_r"},
		{"LeftForeArm", "lowerarm_l"},
		{"RightHand", "hand_r"},
	} {
		if mapping[want[0]] != want[1] {
			t.Error(want[0], " mapped to ", mapping[want[0]], ", want ", want[1])
		}
	}
}

func TestMatchSameNames(t *testing.T) {
	names := []string{"hips", "spine", "head", "leftFoot", "rightFoot"}
	mapping := NewMatcher().Match(namedSkeleton(names), namedSkeleton(names))
	if len(mapping) != len(names) {
		t.Fatal("mapping size: ", len(mapping))
	}
	for _, n := range names {
		if mapping[n] != n {
			t.Error(n, " mapped to ", mapping[n])
		}
	}
}

func TestResolveRoles(t *testing.T) {
	s := namedSkeleton([]string{"Armature", "mixamorig:Hips", "mixamorig:LeftUpLeg", "mixamorig:LeftLeg", "mixamorig:LeftFoot", "mixamorig:Head"})
	roles := ResolveRoles(s)
	if roles.Bone(rig.RoleHips) != 1 {
		t.Error("hips: ", roles.Bone(rig.RoleHips))
	}
	if roles.Bone(rig.RoleLeftFoot) != 4 {
		t.Error("left foot: ", roles.Bone(rig.RoleLeftFoot))
	}
	if roles.Bone(rig.RoleHead) != 5 {
		t.Error("head: ", roles.Bone(rig.RoleHead))
	}
	if roles.Bone(rig.RoleRightFoot) != rig.NilBone {
		t.Error("right foot should be unresolved")
	}
}
