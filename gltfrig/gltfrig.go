// Package gltfrig moves skeletons, skin weights and animation clips
// between this package's types and glTF documents.
package gltfrig

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/binary"

	"github.com/bindpose/autorig/geom"
)

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

func Save(doc *gltf.Document, path string) error {
	return gltf.SaveBinary(doc, path)
}

// accessorBytes locates an accessor's packed data inside the document
// buffers. Sparse accessors are not supported.
func accessorBytes(doc *gltf.Document, acr *gltf.Accessor) ([]byte, uint32, error) {
	if acr.Sparse != nil {
		return nil, 0, fmt.Errorf("gltfrig: sparse accessor not supported")
	}
	if acr.BufferView == nil {
		return nil, 0, fmt.Errorf("gltfrig: accessor without buffer view")
	}
	if int(*acr.BufferView) >= len(doc.BufferViews) {
		return nil, 0, fmt.Errorf("gltfrig: buffer view %d out of range", *acr.BufferView)
	}
	bufferView := doc.BufferViews[*acr.BufferView]
	data := doc.Buffers[bufferView.Buffer].Data
	offset := bufferView.ByteOffset + acr.ByteOffset
	if int(offset) > len(data) {
		return nil, 0, fmt.Errorf("gltfrig: accessor offset %d past buffer end", offset)
	}
	return data[offset:], bufferView.ByteStride, nil
}

func readTimes(doc *gltf.Document, acr *gltf.Accessor) ([]float32, error) {
	if acr.ComponentType != gltf.ComponentFloat || acr.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("gltfrig: keyframe accessor must be scalar float")
	}
	data, stride, err := accessorBytes(doc, acr)
	if err != nil {
		return nil, err
	}
	out := make([]float32, acr.Count)
	if err := binary.Read(data, stride, out); err != nil {
		return nil, err
	}
	return out, nil
}

func readQuaternions(doc *gltf.Document, acr *gltf.Accessor) ([]geom.Quaternion, error) {
	if acr.ComponentType != gltf.ComponentFloat || acr.Type != gltf.AccessorVec4 {
		return nil, fmt.Errorf("gltfrig: rotation accessor must be vec4 float")
	}
	data, stride, err := accessorBytes(doc, acr)
	if err != nil {
		return nil, err
	}
	raw := make([][4]float32, acr.Count)
	if err := binary.Read(data, stride, raw); err != nil {
		return nil, err
	}
	out := make([]geom.Quaternion, len(raw))
	for i, q := range raw {
		out[i] = geom.Quaternion{X: q[0], Y: q[1], Z: q[2], W: q[3]}
	}
	return out, nil
}

func readVectors(doc *gltf.Document, acr *gltf.Accessor) ([]geom.Vector3, error) {
	if acr.ComponentType != gltf.ComponentFloat || acr.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("gltfrig: translation accessor must be vec3 float")
	}
	data, stride, err := accessorBytes(doc, acr)
	if err != nil {
		return nil, err
	}
	raw := make([][3]float32, acr.Count)
	if err := binary.Read(data, stride, raw); err != nil {
		return nil, err
	}
	out := make([]geom.Vector3, len(raw))
	for i, v := range raw {
		out[i] = geom.Vector3{X: v[0], Y: v[1], Z: v[2]}
	}
	return out, nil
}
