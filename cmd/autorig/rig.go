package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/bindpose/autorig/geom"
	"github.com/bindpose/autorig/gltfrig"
	"github.com/bindpose/autorig/rig"
)

type markerFile struct {
	Markers map[string][3]float32 `json:"markers"`
}

func loadMarkers(path string) (rig.MarkerSet, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var conf markerFile
	if err := json.Unmarshal(data, &conf); err != nil {
		return nil, err
	}
	markers := rig.MarkerSet{}
	for name, p := range conf.Markers {
		markers[rig.MarkerName(name)] = geom.NewVector3(p[0], p[1], p[2])
	}
	return markers, nil
}

// meshVertices concatenates the POSITION streams of every primitive in
// the document, reindexing face indices onto the combined vertex list.
func meshVertices(doc *gltf.Document) ([]geom.Vector3, []uint32, error) {
	var verts []geom.Vector3
	var indices []uint32
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			a, ok := p.Attributes["POSITION"]
			if !ok {
				continue
			}
			pos, err := modeler.ReadPosition(doc, doc.Accessors[a], [][3]float32{})
			if err != nil {
				return nil, nil, err
			}
			offset := uint32(len(verts))
			for _, v := range pos {
				verts = append(verts, geom.Vector3{X: v[0], Y: v[1], Z: v[2]})
			}
			if p.Indices != nil {
				idx, err := modeler.ReadIndices(doc, doc.Accessors[*p.Indices], []uint32{})
				if err != nil {
					return nil, nil, err
				}
				for _, i := range idx {
					indices = append(indices, i+offset)
				}
			} else {
				for i := range pos {
					indices = append(indices, uint32(i)+offset)
				}
			}
		}
	}
	if len(verts) == 0 {
		return nil, nil, fmt.Errorf("no mesh vertices in document")
	}
	return verts, indices, nil
}

func rigModel(input, output, markerPath, presetPath string, preview bool, workers int) error {
	markers, err := loadMarkers(markerPath)
	if err != nil {
		return err
	}
	joints, err := rig.ResolveMarkers(markers)
	if err != nil {
		return err
	}
	var preset *rig.Preset
	if presetPath != "" {
		if preset, err = rig.LoadPreset(presetPath); err != nil {
			return err
		}
		log.Println("Preset: ", preset.Name)
	}
	envelopes := rig.BuildEnvelopes(joints, preset)
	skeleton, _ := rig.BuildSkeleton(joints)

	src, err := gltfrig.Load(input)
	if err != nil {
		return err
	}
	verts, indices, err := meshVertices(src)
	if err != nil {
		return err
	}

	weights := make([]rig.VertexWeights, len(verts))
	if err := rig.ComputeWeightsParallel(verts, envelopes, weights, workers); err != nil {
		return err
	}

	out := gltf.NewDocument()
	if _, err := gltfrig.AddSkeleton(out, skeleton, verts, indices, weights); err != nil {
		return err
	}
	if preview {
		colors := make([][3]geom.Element, len(verts))
		if err := rig.PreviewColors(verts, envelopes, colors); err != nil {
			return err
		}
		rgb := make([][3]uint8, len(colors))
		for i, c := range colors {
			rgb[i] = [3]uint8{uint8(c[0] * 255), uint8(c[1] * 255), uint8(c[2] * 255)}
		}
		if err := gltfrig.AddPreviewColors(out, uint32(len(out.Meshes)-1), rgb); err != nil {
			return err
		}
	}
	log.Println("Bones: ", len(skeleton.Bones), " Vertices: ", len(verts))
	return gltfrig.Save(out, output)
}
