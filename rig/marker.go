package rig

import (
	"fmt"
	"log"

	"github.com/bindpose/autorig/geom"
)

// MarkerName identifies a user-placed joint marker. The set of recognized
// names is closed; anything else in a MarkerSet is ignored.
type MarkerName string

const (
	MarkerChin          MarkerName = "chin"
	MarkerHeadTop       MarkerName = "head-top"
	MarkerChest         MarkerName = "chest"
	MarkerPelvis        MarkerName = "pelvis"
	MarkerLeftShoulder  MarkerName = "left-shoulder"
	MarkerRightShoulder MarkerName = "right-shoulder"
	MarkerLeftElbow     MarkerName = "left-elbow"
	MarkerRightElbow    MarkerName = "right-elbow"
	MarkerLeftWrist     MarkerName = "left-wrist"
	MarkerRightWrist    MarkerName = "right-wrist"
	MarkerLeftKnee      MarkerName = "left-knee"
	MarkerRightKnee     MarkerName = "right-knee"
	MarkerLeftAnkle     MarkerName = "left-ankle"
	MarkerRightAnkle    MarkerName = "right-ankle"
	MarkerLeftToe       MarkerName = "left-toe"
	MarkerRightToe      MarkerName = "right-toe"
)

// RequiredMarkers must all be present in a MarkerSet. MarkerHeadTop is
// optional and estimated when absent.
var RequiredMarkers = []MarkerName{
	MarkerChin, MarkerChest, MarkerPelvis,
	MarkerLeftShoulder, MarkerRightShoulder,
	MarkerLeftElbow, MarkerRightElbow,
	MarkerLeftWrist, MarkerRightWrist,
	MarkerLeftKnee, MarkerRightKnee,
	MarkerLeftAnkle, MarkerRightAnkle,
	MarkerLeftToe, MarkerRightToe,
}

// MarkerSet maps marker names to world positions. It is owned by the
// editing surface; this package only reads it.
type MarkerSet map[MarkerName]*geom.Vector3

// ResolvedJoints is the full set of joint positions the builders consume:
// markers copied through plus the derived joints (neck, mid spine, hip
// sockets, upper arm starts) and the overall body scale.
type ResolvedJoints struct {
	Chin    geom.Vector3
	HeadTop geom.Vector3
	Chest   geom.Vector3
	Pelvis  geom.Vector3

	Neck       geom.Vector3 // between chest and chin
	SpineMid   geom.Vector3 // between pelvis and chest
	SpineUpper geom.Vector3 // "spine2", between chest and neck

	LeftShoulder  geom.Vector3
	RightShoulder geom.Vector3
	LeftUpperArm  geom.Vector3 // where the upper arm bone begins
	RightUpperArm geom.Vector3
	LeftElbow     geom.Vector3
	RightElbow    geom.Vector3
	LeftWrist     geom.Vector3
	RightWrist    geom.Vector3

	LeftHip    geom.Vector3 // hip socket, narrowed toward knee stance
	RightHip   geom.Vector3
	LeftKnee   geom.Vector3
	RightKnee  geom.Vector3
	LeftAnkle  geom.Vector3
	RightAnkle geom.Vector3
	LeftToe    geom.Vector3
	RightToe   geom.Vector3

	BodyHeight geom.Element
	BaseRadius geom.Element // unit for every envelope radius
}

const (
	headTopEstimate = 0.2  // above chin when no head-top marker
	hipNarrowing    = 0.8  // hip socket side coordinate vs knee
	upperArmParam   = 0.3  // along shoulder->elbow
	spineUpperParam = 0.3  // along chest->neck
	defaultHeight   = 1.7  // meters, when no usable vertical reference
	baseRadiusRatio = 0.08 // of body height
)

// ResolveMarkers turns a marker set into the full joint table. A missing
// required marker is a contract violation and rejects the whole set;
// the optional head-top marker degrades to an estimate.
func ResolveMarkers(markers MarkerSet) (*ResolvedJoints, error) {
	for _, name := range RequiredMarkers {
		if markers[name] == nil {
			return nil, fmt.Errorf("rig: required marker missing: %s", name)
		}
	}

	var j ResolvedJoints
	j.Chin = *markers[MarkerChin]
	j.Chest = *markers[MarkerChest]
	j.Pelvis = *markers[MarkerPelvis]
	j.LeftShoulder = *markers[MarkerLeftShoulder]
	j.RightShoulder = *markers[MarkerRightShoulder]
	j.LeftElbow = *markers[MarkerLeftElbow]
	j.RightElbow = *markers[MarkerRightElbow]
	j.LeftWrist = *markers[MarkerLeftWrist]
	j.RightWrist = *markers[MarkerRightWrist]
	j.LeftKnee = *markers[MarkerLeftKnee]
	j.RightKnee = *markers[MarkerRightKnee]
	j.LeftAnkle = *markers[MarkerLeftAnkle]
	j.RightAnkle = *markers[MarkerRightAnkle]
	j.LeftToe = *markers[MarkerLeftToe]
	j.RightToe = *markers[MarkerRightToe]

	if ht := markers[MarkerHeadTop]; ht != nil {
		j.HeadTop = *ht
	} else {
		j.HeadTop = *j.Chin.Add(geom.NewVector3(0, headTopEstimate, 0))
		log.Println("rig: no head-top marker, estimated above chin:", j.HeadTop)
	}

	j.Neck = *j.Chest.Lerp(&j.Chin, 0.5)
	j.SpineMid = *j.Pelvis.Lerp(&j.Chest, 0.5)
	j.SpineUpper = *j.Chest.Lerp(&j.Neck, spineUpperParam)

	j.LeftHip = j.Pelvis
	j.LeftHip.X = j.LeftKnee.X * hipNarrowing
	j.RightHip = j.Pelvis
	j.RightHip.X = j.RightKnee.X * hipNarrowing

	j.LeftUpperArm = *j.LeftShoulder.Lerp(&j.LeftElbow, upperArmParam)
	j.RightUpperArm = *j.RightShoulder.Lerp(&j.RightElbow, upperArmParam)

	switch {
	case j.HeadTop.Y > 0:
		j.BodyHeight = j.HeadTop.Y
	case j.Chin.Y > 0:
		j.BodyHeight = j.Chin.Y
	default:
		j.BodyHeight = defaultHeight
		log.Println("rig: markers give no usable height, assuming", defaultHeight)
	}
	j.BaseRadius = j.BodyHeight * baseRadiusRatio
	return &j, nil
}
