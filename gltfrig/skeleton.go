package gltfrig

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/bindpose/autorig/geom"
	"github.com/bindpose/autorig/rig"
)

// SkeletonFromDocument reads the joint hierarchy of a skin into a
// skeleton. Joints are reordered so parents precede children; node
// local TRS (or a decomposed matrix) becomes the bone bind transform.
func SkeletonFromDocument(doc *gltf.Document, skinIndex int) (*rig.Skeleton, error) {
	if skinIndex < 0 || skinIndex >= len(doc.Skins) {
		return nil, fmt.Errorf("gltfrig: no skin %d in document", skinIndex)
	}
	skin := doc.Skins[skinIndex]
	if len(skin.Joints) == 0 {
		return nil, fmt.Errorf("gltfrig: skin %d has no joints", skinIndex)
	}

	parents := nodeParents(doc)
	inSkin := map[uint32]bool{}
	for _, j := range skin.Joints {
		if int(j) >= len(doc.Nodes) {
			return nil, fmt.Errorf("gltfrig: joint node %d out of range", j)
		}
		inSkin[j] = true
	}

	// order joints so that a joint's parent joint is placed before it
	order := make([]uint32, 0, len(skin.Joints))
	placed := map[uint32]bool{}
	for len(order) < len(skin.Joints) {
		progress := false
		for _, j := range skin.Joints {
			if placed[j] {
				continue
			}
			if p, ok := parents[j]; ok && inSkin[p] && !placed[p] {
				continue
			}
			placed[j] = true
			order = append(order, j)
			progress = true
		}
		if !progress {
			return nil, fmt.Errorf("gltfrig: joint hierarchy of skin %d has a cycle", skinIndex)
		}
	}

	boneOf := map[uint32]rig.BoneID{}
	for i, n := range order {
		boneOf[n] = rig.BoneID(i)
	}

	s := &rig.Skeleton{Bones: make([]rig.Bone, len(order))}
	for i, n := range order {
		node := doc.Nodes[n]
		bone := rig.Bone{Name: node.Name, Parent: rig.NilBone}
		if p, ok := parents[n]; ok && inSkin[p] {
			bone.Parent = boneOf[p]
		}
		bone.LocalPosition, bone.LocalRotation, bone.LocalScale = nodeTransform(node)
		s.Bones[i] = bone
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func nodeParents(doc *gltf.Document) map[uint32]uint32 {
	parents := map[uint32]uint32{}
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			parents[c] = uint32(i)
		}
	}
	return parents
}

func nodeTransform(node *gltf.Node) (geom.Vector3, geom.Quaternion, geom.Vector3) {
	if m := node.MatrixOrDefault(); m != gltf.DefaultMatrix {
		pos, rot, scale := geom.NewMatrix4FromSlice(m[:]).Decompose()
		return *pos, *rot, *scale
	}
	pos := geom.Vector3{X: node.Translation[0], Y: node.Translation[1], Z: node.Translation[2]}
	rot := geom.Quaternion{X: node.Rotation[0], Y: node.Rotation[1], Z: node.Rotation[2], W: node.Rotation[3]}
	if rot.LenSqr() == 0 {
		rot = geom.Quaternion{W: 1}
	}
	scale := geom.Vector3{X: node.Scale[0], Y: node.Scale[1], Z: node.Scale[2]}
	if scale.LenSqr() == 0 {
		scale = geom.Vector3{X: 1, Y: 1, Z: 1}
	}
	return pos, rot, scale
}

// AddSkeleton writes the skeleton as a node hierarchy plus a skin whose
// inverse bind matrices are taken from the rest pose. When verts is
// non-empty a skinned mesh node carrying JOINTS_0/WEIGHTS_0 is added
// too. Returns the skin index.
func AddSkeleton(doc *gltf.Document, s *rig.Skeleton, verts []geom.Vector3, indices []uint32, weights []rig.VertexWeights) (uint32, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	if len(verts) > 0 && len(weights) != len(verts) {
		return 0, fmt.Errorf("gltfrig: %d weight entries for %d vertices", len(weights), len(verts))
	}
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	}

	base := uint32(len(doc.Nodes))
	joints := make([]uint32, len(s.Bones))
	for i := range s.Bones {
		b := &s.Bones[i]
		node := &gltf.Node{
			Name:        b.Name,
			Translation: [3]float32{b.LocalPosition.X, b.LocalPosition.Y, b.LocalPosition.Z},
			Rotation:    [4]float32{b.LocalRotation.X, b.LocalRotation.Y, b.LocalRotation.Z, b.LocalRotation.W},
		}
		joints[i] = uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, node)
		if b.Parent >= 0 {
			parent := doc.Nodes[base+uint32(b.Parent)]
			parent.Children = append(parent.Children, joints[i])
		} else {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, joints[i])
		}
	}

	rest := s.RestPose()
	rest.ComputeWorld(s)
	invmats := make([][4][4]float32, len(s.Bones))
	for i := range s.Bones {
		w := &rest.World[i]
		var flat [16]geom.Element
		geom.NewTRSMatrix4(&w.Position, &w.Rotation, &w.Scale).Inverse().ToArray(flat[:])
		invmats[i] = [4][4]float32{
			{flat[0], flat[1], flat[2], flat[3]},
			{flat[4], flat[5], flat[6], flat[7]},
			{flat[8], flat[9], flat[10], flat[11]},
			{flat[12], flat[13], flat[14], flat[15]},
		}
	}
	doc.Skins = append(doc.Skins, &gltf.Skin{
		Joints:              joints,
		InverseBindMatrices: gltf.Index(addMatrices(doc, invmats)),
	})
	skinIndex := uint32(len(doc.Skins) - 1)

	if len(verts) > 0 {
		meshIndex, err := addSkinnedMesh(doc, verts, indices, weights)
		if err != nil {
			return 0, err
		}
		meshNode := &gltf.Node{
			Name: "mesh",
			Mesh: gltf.Index(meshIndex),
			Skin: gltf.Index(skinIndex),
		}
		doc.Nodes = append(doc.Nodes, meshNode)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}
	return skinIndex, nil
}

// addMatrices packs mat4 data through the vec4 writer, then fixes up the
// accessor metadata.
func addMatrices(doc *gltf.Document, mat [][4][4]float32) uint32 {
	a := make([][4]float32, len(mat)*4)
	for i, m := range mat {
		a[i*4+0] = m[0]
		a[i*4+1] = m[1]
		a[i*4+2] = m[2]
		a[i*4+3] = m[3]
	}
	acc := modeler.WriteTangent(doc, a)
	doc.Accessors[acc].Type = gltf.AccessorMat4
	doc.Accessors[acc].Count /= 4
	doc.BufferViews[*doc.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

func addSkinnedMesh(doc *gltf.Document, verts []geom.Vector3, indices []uint32, weights []rig.VertexWeights) (uint32, error) {
	positions := make([][3]float32, len(verts))
	for i, v := range verts {
		positions[i] = [3]float32{v.X, v.Y, v.Z}
	}
	joints0 := make([][4]uint16, len(weights))
	weights0 := make([][4]float32, len(weights))
	for i, w := range weights {
		for k := 0; k < rig.MaxInfluences; k++ {
			if w.Bones[k] < 0 {
				return 0, fmt.Errorf("gltfrig: vertex %d references no bone in slot %d", i, k)
			}
			joints0[i][k] = uint16(w.Bones[k])
			weights0[i][k] = w.Weights[k]
		}
	}

	attributes := map[string]uint32{
		"POSITION":  modeler.WritePosition(doc, positions),
		"JOINTS_0":  modeler.WriteJoints(doc, joints0),
		"WEIGHTS_0": modeler.WriteWeights(doc, weights0),
	}
	primitive := &gltf.Primitive{Attributes: attributes}
	if len(indices) > 0 {
		primitive.Indices = gltf.Index(modeler.WriteIndices(doc, indices))
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: "skinned", Primitives: []*gltf.Primitive{primitive}})
	return uint32(len(doc.Meshes) - 1), nil
}

// AddPreviewColors attaches per-vertex weight preview colors as COLOR_0
// on every primitive of the mesh.
func AddPreviewColors(doc *gltf.Document, meshIndex uint32, colors [][3]uint8) error {
	if int(meshIndex) >= len(doc.Meshes) {
		return fmt.Errorf("gltfrig: no mesh %d in document", meshIndex)
	}
	rgba := make([][4]uint8, len(colors))
	for i, c := range colors {
		rgba[i] = [4]uint8{c[0], c[1], c[2], 255}
	}
	acc := modeler.WriteColor(doc, rgba)
	for _, p := range doc.Meshes[meshIndex].Primitives {
		if p.Attributes == nil {
			p.Attributes = map[string]uint32{}
		}
		p.Attributes["COLOR_0"] = acc
	}
	return nil
}
