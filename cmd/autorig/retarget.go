package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bindpose/autorig/gltfrig"
	"github.com/bindpose/autorig/retarget"
)

func retargetClip(target, source, output string, animIndex int, fps float64, footIK bool, timeout time.Duration, aliasFile string) error {
	targetDoc, err := gltfrig.Load(target)
	if err != nil {
		return err
	}
	sourceDoc, err := gltfrig.Load(source)
	if err != nil {
		return err
	}
	if len(targetDoc.Skins) == 0 {
		return fmt.Errorf("%s has no skin", target)
	}
	targetSkel, err := gltfrig.SkeletonFromDocument(targetDoc, 0)
	if err != nil {
		return err
	}
	sourceSkel, err := gltfrig.SkeletonFromDocument(sourceDoc, 0)
	if err != nil {
		return err
	}
	clip, err := gltfrig.ClipFromDocument(sourceDoc, animIndex)
	if err != nil {
		return err
	}

	matcher := retarget.NewMatcher()
	if aliasFile != "" {
		if err := matcher.LoadAliases(aliasFile); err != nil {
			return err
		}
	}
	mapping := matcher.Match(targetSkel, sourceSkel)
	log.Println("Matched bones: ", len(mapping), "/", len(targetSkel.Bones))

	worker := retarget.NewWorker()
	defer worker.Close()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res, err := worker.Submit(ctx, &retarget.Request{
		Target:  targetSkel,
		Source:  sourceSkel,
		Mapping: mapping,
		Clip:    clip,
		Options: retarget.Options{FrameRate: float32(fps), FootIK: footIK},
	})
	if err != nil {
		return err
	}
	log.Println("Scale: ", res.GlobalScale)
	if res.SkippedBones > 0 {
		log.Println("Skipped bones: ", res.SkippedBones)
	}

	nodeByName := map[string]uint32{}
	for _, j := range targetDoc.Skins[0].Joints {
		nodeByName[targetDoc.Nodes[j].Name] = j
	}
	if err := gltfrig.AddClip(targetDoc, res.Clip, nodeByName); err != nil {
		return err
	}
	return gltfrig.Save(targetDoc, output)
}
