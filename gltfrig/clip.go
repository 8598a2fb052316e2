package gltfrig

import (
	"fmt"
	"log"
	"sort"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/bindpose/autorig/geom"
	"github.com/bindpose/autorig/retarget"
)

// ClipFromDocument reads one glTF animation into a clip. Channels are
// keyed by target node name; scale tracks and channels targeting a
// nameless node are skipped with a log line. A node's rotation and
// translation tracks may carry different key times; mergeTracks joins
// them.
func ClipFromDocument(doc *gltf.Document, animIndex int) (*retarget.Clip, error) {
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("gltfrig: no animation %d in document", animIndex)
	}
	anim := doc.Animations[animIndex]

	clip := &retarget.Clip{Name: anim.Name, Channels: map[string]*retarget.Channel{}}
	rotTracks := map[string]*retarget.Channel{}
	posTracks := map[string]*retarget.Channel{}
	for _, ch := range anim.Channels {
		if ch.Target.Node == nil || ch.Sampler == nil {
			continue
		}
		if int(*ch.Target.Node) >= len(doc.Nodes) || int(*ch.Sampler) >= len(anim.Samplers) {
			return nil, fmt.Errorf("gltfrig: animation %q has an out-of-range channel", anim.Name)
		}
		name := doc.Nodes[*ch.Target.Node].Name
		if name == "" {
			log.Println("gltfrig: skipping channel on unnamed node", *ch.Target.Node)
			continue
		}
		sampler := anim.Samplers[*ch.Sampler]
		if sampler.Input == nil || sampler.Output == nil {
			continue
		}
		times, err := readTimes(doc, doc.Accessors[*sampler.Input])
		if err != nil {
			return nil, err
		}

		switch ch.Target.Path {
		case gltf.TRSRotation:
			rotations, err := readQuaternions(doc, doc.Accessors[*sampler.Output])
			if err != nil {
				return nil, err
			}
			if len(rotations) != len(times) {
				return nil, fmt.Errorf("gltfrig: rotation track on %q has %d samples for %d keys",
					name, len(rotations), len(times))
			}
			rotTracks[name] = &retarget.Channel{Target: name, Times: times, Rotations: rotations}
		case gltf.TRSTranslation:
			positions, err := readVectors(doc, doc.Accessors[*sampler.Output])
			if err != nil {
				return nil, err
			}
			if len(positions) != len(times) {
				return nil, fmt.Errorf("gltfrig: translation track on %q has %d samples for %d keys",
					name, len(positions), len(times))
			}
			posTracks[name] = &retarget.Channel{Target: name, Times: times, Positions: positions}
		default:
			log.Println("gltfrig: skipping unsupported channel path", ch.Target.Path, "on", name)
		}

		if n := len(times); n > 0 && times[n-1] > clip.Duration {
			clip.Duration = times[n-1]
		}
	}
	for name, rot := range rotTracks {
		if pos := posTracks[name]; pos != nil {
			clip.Channels[name] = mergeTracks(rot, pos)
		} else {
			clip.Channels[name] = rot
		}
	}
	for name, pos := range posTracks {
		if clip.Channels[name] == nil {
			clip.Channels[name] = pos
		}
	}
	if err := clip.Validate(); err != nil {
		return nil, err
	}
	return clip, nil
}

func sameTimes(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mergeTracks joins one node's rotation and translation tracks into a
// single channel. Tracks with identical keys share them; otherwise both
// are resampled onto the union of the two key sets.
func mergeTracks(rot, pos *retarget.Channel) *retarget.Channel {
	if sameTimes(rot.Times, pos.Times) {
		return &retarget.Channel{
			Target:    rot.Target,
			Times:     rot.Times,
			Rotations: rot.Rotations,
			Positions: pos.Positions,
		}
	}
	times := make([]float32, 0, len(rot.Times)+len(pos.Times))
	times = append(times, rot.Times...)
	times = append(times, pos.Times...)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	n := 0
	for i, t := range times {
		if i == 0 || t != times[n-1] {
			times[n] = t
			n++
		}
	}
	times = times[:n]

	out := &retarget.Channel{
		Target:    rot.Target,
		Times:     times,
		Rotations: make([]geom.Quaternion, n),
		Positions: make([]geom.Vector3, n),
	}
	for i, t := range times {
		out.Rotations[i] = *rot.SampleRotation(t)
		out.Positions[i] = *pos.SamplePosition(t)
	}
	return out
}

// AddClip appends the clip as a glTF animation. nodeByName maps bone
// names to node indices; channels without a node are skipped with a log
// line. When every channel is skipped no animation is added.
func AddClip(doc *gltf.Document, clip *retarget.Clip, nodeByName map[string]uint32) error {
	if err := clip.Validate(); err != nil {
		return err
	}

	names := make([]string, 0, len(clip.Channels))
	for name := range clip.Channels {
		names = append(names, name)
	}
	sort.Strings(names)

	a := gltf.Animation{Name: clip.Name}
	for _, name := range names {
		ch := clip.Channels[name]
		node, ok := nodeByName[name]
		if !ok {
			log.Println("gltfrig: no node for animated bone", name)
			continue
		}
		keysAcc := modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, ch.Times)

		if len(ch.Rotations) > 0 {
			rotations := make([][4]float32, len(ch.Rotations))
			for i, q := range ch.Rotations {
				rotations[i] = [4]float32{q.X, q.Y, q.Z, q.W}
			}
			samplesAcc := modeler.WriteTangent(doc, rotations)
			a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
				Input:         gltf.Index(keysAcc),
				Output:        gltf.Index(samplesAcc),
				Interpolation: gltf.InterpolationLinear,
			})
			a.Channels = append(a.Channels, &gltf.Channel{
				Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
				Target: gltf.ChannelTarget{
					Node: gltf.Index(node),
					Path: gltf.TRSRotation,
				},
			})
		}

		if len(ch.Positions) > 0 {
			translations := make([][3]float32, len(ch.Positions))
			for i, p := range ch.Positions {
				translations[i] = [3]float32{p.X, p.Y, p.Z}
			}
			samplesAcc := modeler.WritePosition(doc, translations)
			a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
				Input:         gltf.Index(keysAcc),
				Output:        gltf.Index(samplesAcc),
				Interpolation: gltf.InterpolationLinear,
			})
			a.Channels = append(a.Channels, &gltf.Channel{
				Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
				Target: gltf.ChannelTarget{
					Node: gltf.Index(node),
					Path: gltf.TRSTranslation,
				},
			})
		}
	}
	if len(a.Channels) > 0 {
		doc.Animations = append(doc.Animations, &a)
	}
	return nil
}
