// Package retarget transfers an animation clip from one skeleton onto a
// differently-proportioned, differently-named skeleton, optionally
// re-planting feet with inverse kinematics.
package retarget

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/bindpose/autorig/rig"
)

// rigPrefixes are naming-convention prefixes stripped during
// normalization, longest first. Checked after separators are removed,
// so "Bip01 L Thigh" and "bip01_l_thigh" normalize the same way.
var rigPrefixes = []string{
	"mixamorig",
	"valvebiped",
	"character1",
	"bip01",
	"bip",
}

var nameSeparators = strings.NewReplacer("_", "", "-", "", ".", "", " ", "")

// NormalizeBoneName lowers a bone name into the form the alias dictionary
// is keyed by: NFKC + width folded (so full-width rig names compare
// equal), namespace and rig prefixes stripped, separators removed,
// trailing digits dropped.
func NormalizeBoneName(name string) string {
	s := width.Fold.String(norm.NFKC.String(name))
	s = strings.ToLower(s)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	s = nameSeparators.Replace(s)
	for _, p := range rigPrefixes {
		if strings.HasPrefix(s, p) {
			s = s[len(p):]
			break
		}
	}
	for len(s) > 0 && s[len(s)-1] >= '0' && s[len(s)-1] <= '9' {
		s = s[:len(s)-1]
	}
	return s
}

// aliasGroups lists known naming variants per semantic joint across
// common rig conventions (Mixamo, 3ds Max Biped, Unity/VRM, MMD).
// Entries are in normalized form.
var aliasGroups = map[rig.JointRole][]string{
	rig.RoleHips:          {"hips", "hip", "pelvis", "root", "腰", "センター", "下半身"},
	rig.RoleSpine:         {"spine", "torso", "waist", "上半身"},
	rig.RoleChest:         {"chest", "spine", "上半身"},
	rig.RoleNeck:          {"neck", "首"},
	rig.RoleHead:          {"head", "頭"},
	rig.RoleLeftShoulder:  {"leftshoulder", "lshoulder", "shoulderl", "leftclavicle", "lclavicle", "claviclel", "leftcollar", "左肩"},
	rig.RoleLeftUpperArm:  {"leftupperarm", "leftarm", "larm", "upperarml", "lupperarm", "左腕"},
	rig.RoleLeftLowerArm:  {"leftlowerarm", "leftforearm", "lforearm", "lowerarml", "leftelbow", "左ひじ"},
	rig.RoleLeftHand:      {"lefthand", "lhand", "handl", "leftwrist", "左手首"},
	rig.RoleLeftUpperLeg:  {"leftupperleg", "leftupleg", "lthigh", "thighl", "leftthigh", "左足"},
	rig.RoleLeftLowerLeg:  {"leftlowerleg", "leftleg", "lcalf", "calfl", "leftknee", "leftshin", "左ひざ"},
	rig.RoleLeftFoot:      {"leftfoot", "lfoot", "footl", "leftankle", "左足首"},
	rig.RoleLeftToe:       {"lefttoes", "lefttoe", "ltoe", "toel", "lefttoebase", "balll", "左つま先"},
	rig.RoleRightShoulder: {"rightshoulder", "rshoulder", "shoulderr", "rightclavicle", "rclavicle", "clavicler", "rightcollar", "右肩"},
	rig.RoleRightUpperArm: {"rightupperarm", "rightarm", "rarm", "upperarmr", "rupperarm", "右腕"},
	rig.RoleRightLowerArm: {"rightlowerarm", "rightforearm", "rforearm", "lowerarmr", "rightelbow", "右ひじ"},
	rig.RoleRightHand:     {"righthand", "rhand", "handr", "rightwrist", "右手首"},
	rig.RoleRightUpperLeg: {"rightupperleg", "rightupleg", "rthigh", "thighr", "rightthigh", "右足"},
	rig.RoleRightLowerLeg: {"rightlowerleg", "rightleg", "rcalf", "calfr", "rightknee", "rightshin", "右ひざ"},
	rig.RoleRightFoot:     {"rightfoot", "rfoot", "footr", "rightankle", "右足首"},
	rig.RoleRightToe:      {"righttoes", "righttoe", "rtoe", "toer", "righttoebase", "ballr", "右つま先"},
}

// aliasIndex maps a normalized variant to its group. Built once; a
// variant claimed by several groups keeps the first (map iteration order
// is avoided by building from a fixed role order).
var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]rig.JointRole {
	idx := map[string]rig.JointRole{}
	for role := rig.RoleHips; role <= rig.RoleRightHand; role++ {
		for _, v := range aliasGroups[role] {
			if _, dup := idx[v]; !dup {
				idx[v] = role
			}
		}
	}
	return idx
}

// AliasRole returns the semantic joint a normalized name is a known
// variant of, or RoleNone.
func AliasRole(normalized string) rig.JointRole {
	return aliasIndex[normalized]
}

// ResolveRoles builds a role table for a foreign skeleton by normalized
// name lookup. Resolved once per skeleton; consumers index the table
// instead of re-matching names.
func ResolveRoles(s *rig.Skeleton) rig.RoleTable {
	roles := rig.NewRoleTable()
	for i := range s.Bones {
		role := AliasRole(NormalizeBoneName(s.Bones[i].Name))
		if role != rig.RoleNone && roles[role] == rig.NilBone {
			roles[role] = rig.BoneID(i)
		}
	}
	return roles
}
