package retarget

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/bindpose/autorig/rig"
)

// Tuned scoring constants, not derived values. The floor in particular
// is a judgment call: pairs scoring below it are considered noise even
// when nothing better claims either bone.
const (
	scoreExact       = 100
	scoreAlias       = 90
	matchScoreFloor  = 40
	editDistMaxRunes = 20
)

// roleByToken maps canonical joint tokens (the generated skeleton's bone
// names) to roles, for alias-config extension.
var roleByToken = map[string]rig.JointRole{
	"hips": rig.RoleHips, "spine": rig.RoleSpine, "spine1": rig.RoleChest,
	"neck": rig.RoleNeck, "head": rig.RoleHead,
	"leftShoulder": rig.RoleLeftShoulder, "leftUpperArm": rig.RoleLeftUpperArm,
	"leftLowerArm": rig.RoleLeftLowerArm, "leftHand": rig.RoleLeftHand,
	"leftUpperLeg": rig.RoleLeftUpperLeg, "leftLowerLeg": rig.RoleLeftLowerLeg,
	"leftFoot": rig.RoleLeftFoot, "leftToes": rig.RoleLeftToe,
	"rightShoulder": rig.RoleRightShoulder, "rightUpperArm": rig.RoleRightUpperArm,
	"rightLowerArm": rig.RoleRightLowerArm, "rightHand": rig.RoleRightHand,
	"rightUpperLeg": rig.RoleRightUpperLeg, "rightLowerLeg": rig.RoleRightLowerLeg,
	"rightFoot": rig.RoleRightFoot, "rightToes": rig.RoleRightToe,
}

// Mapping assigns each target bone name at most one source bone name;
// every source name is used at most once.
type Mapping map[string]string

// Matcher scores and assigns bone-name correspondences. The zero value
// uses the built-in alias dictionary; LoadAliases extends it.
type Matcher struct {
	extra map[string]rig.JointRole
}

func NewMatcher() *Matcher {
	return &Matcher{}
}

type aliasConfig struct {
	// canonical token -> extra naming variants
	Aliases map[string][]string `json:"aliases"`
}

// LoadAliases extends the alias dictionary from a JSON config keyed by
// canonical joint tokens. Unknown tokens are logged and skipped.
func (m *Matcher) LoadAliases(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	var conf aliasConfig
	if err := json.Unmarshal(data, &conf); err != nil {
		return err
	}
	if m.extra == nil {
		m.extra = map[string]rig.JointRole{}
	}
	for token, variants := range conf.Aliases {
		role, ok := roleByToken[token]
		if !ok {
			log.Println("retarget: unknown joint token in alias config:", token)
			continue
		}
		for _, v := range variants {
			m.extra[NormalizeBoneName(v)] = role
		}
	}
	return nil
}

func (m *Matcher) role(normalized string) rig.JointRole {
	if m != nil && m.extra != nil {
		if r, ok := m.extra[normalized]; ok {
			return r
		}
	}
	return AliasRole(normalized)
}

// Score rates the similarity of two bone names, 0-100.
func (m *Matcher) Score(target, source string) int {
	na := NormalizeBoneName(target)
	nb := NormalizeBoneName(source)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return scoreExact
	}
	if ra := m.role(na); ra != rig.RoleNone && ra == m.role(nb) {
		return scoreAlias
	}

	la, lb := len([]rune(na)), len([]rune(nb))
	if la >= 3 && lb >= 3 && (strings.Contains(na, nb) || strings.Contains(nb, na)) {
		shorter, longer := la, lb
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return 60 + int(math.Round(30*float64(shorter)/float64(longer)))
	}

	if la <= editDistMaxRunes && lb <= editDistMaxRunes {
		longer := la
		if lb > longer {
			longer = lb
		}
		sim := 1 - float64(editDistance(na, nb))/float64(longer)
		if sim >= 0.6 {
			return int(math.Round(70 * sim))
		}
	}
	return 0
}

type candidate struct {
	target, source int
	score          int
}

// Match assigns source bones to target bones greedily by descending
// score. Each side is used at most once; pairs below the score floor are
// dropped. Ties keep enumeration order (targets outer, sources inner),
// so the result is deterministic for a given input order.
func (m *Matcher) Match(target, source *rig.Skeleton) Mapping {
	var cands []candidate
	for ti := range target.Bones {
		for si := range source.Bones {
			if s := m.Score(target.Bones[ti].Name, source.Bones[si].Name); s > 0 {
				cands = append(cands, candidate{ti, si, s})
			}
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	usedTarget := make([]bool, len(target.Bones))
	usedSource := make([]bool, len(source.Bones))
	mapping := Mapping{}
	for _, c := range cands {
		if c.score < matchScoreFloor {
			break
		}
		if usedTarget[c.target] || usedSource[c.source] {
			continue
		}
		usedTarget[c.target] = true
		usedSource[c.source] = true
		mapping[target.Bones[c.target].Name] = source.Bones[c.source].Name
	}
	return mapping
}

// editDistance is the Levenshtein distance over runes.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
