package rig

import (
	"fmt"
	"math"
	"sync"

	"github.com/bindpose/autorig/geom"
)

// MaxInfluences is the number of bone influences kept per vertex.
const MaxInfluences = 4

// VertexWeights holds a vertex's bone influences in descending weight
// order. Weights are non-negative and sum to 1.
type VertexWeights struct {
	Bones   [MaxInfluences]BoneID
	Weights [MaxInfluences]geom.Element
}

// segmentDistance is the distance from p to the capsule axis of e,
// clamping the projection to the segment. Scalar math on purpose: this
// runs vertexCount * boneCount times and must not allocate.
func segmentDistance(p *geom.Vector3, e *Envelope) geom.Element {
	abx := e.End.X - e.Start.X
	aby := e.End.Y - e.Start.Y
	abz := e.End.Z - e.Start.Z
	apx := p.X - e.Start.X
	apy := p.Y - e.Start.Y
	apz := p.Z - e.Start.Z

	lenSqr := abx*abx + aby*aby + abz*abz
	var t geom.Element
	if lenSqr > 0 {
		t = (apx*abx + apy*aby + apz*abz) / lenSqr
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	dx := apx - abx*t
	dy := apy - aby*t
	dz := apz - abz*t
	return geom.Element(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
}

// falloff converts a distance into an un-normalized weight: gaussian
// inside the envelope radius, with an extra linear attenuation outside it
// so influence fades softly instead of cutting off at the boundary.
func falloff(d, radius geom.Element) geom.Element {
	q := d / radius
	w := geom.Element(math.Exp(float64(-q * q)))
	if q > 1 {
		w *= 1 / (1 + 2*(q-1))
	}
	return w
}

// computeVertex accumulates envelope influences for one vertex into
// scratch (indexed by bone, zeroed here) and returns the top influences
// in descending weight order, normalized. A vertex no envelope reaches
// falls back entirely to bone 0, the root.
func computeVertex(p *geom.Vector3, envs []Envelope, scratch []geom.Element) ([MaxInfluences]BoneID, [MaxInfluences]geom.Element) {
	for i := range scratch {
		scratch[i] = 0
	}
	// additive per bone: a future multi-segment bone must not overwrite
	for i := range envs {
		d := segmentDistance(p, &envs[i])
		scratch[envs[i].Bone] += falloff(d, envs[i].Radius)
	}

	var bones [MaxInfluences]BoneID
	var weights [MaxInfluences]geom.Element
	for b, w := range scratch {
		if w <= weights[MaxInfluences-1] {
			continue
		}
		i := MaxInfluences - 1
		for i > 0 && weights[i-1] < w {
			weights[i] = weights[i-1]
			bones[i] = bones[i-1]
			i--
		}
		weights[i] = w
		bones[i] = BoneID(b)
	}

	total := weights[0] + weights[1] + weights[2] + weights[3]
	if total <= 0 {
		return [MaxInfluences]BoneID{0, 0, 0, 0}, [MaxInfluences]geom.Element{1, 0, 0, 0}
	}
	for i := range weights {
		weights[i] /= total
	}
	return bones, weights
}

func computeRange(verts []geom.Vector3, envs []Envelope, out []VertexWeights, boneCount int) {
	scratch := make([]geom.Element, boneCount)
	for vi := range verts {
		b, w := computeVertex(&verts[vi], envs, scratch)
		out[vi].Bones = b
		out[vi].Weights = w
	}
}

func envelopeBoneCount(envs []Envelope) int {
	max := 0
	for i := range envs {
		if int(envs[i].Bone) > max {
			max = int(envs[i].Bone)
		}
	}
	return max + 1
}

// ComputeWeights fills out with MaxInfluences bone influences per vertex.
// len(out) must equal len(verts); the caller owns both slices.
func ComputeWeights(verts []geom.Vector3, envs []Envelope, out []VertexWeights) error {
	if len(verts) == 0 {
		return fmt.Errorf("rig: empty mesh")
	}
	if len(envs) == 0 {
		return fmt.Errorf("rig: no envelopes")
	}
	if len(out) != len(verts) {
		return fmt.Errorf("rig: output length %d != vertex count %d", len(out), len(verts))
	}
	computeRange(verts, envs, out, envelopeBoneCount(envs))
	return nil
}

// ComputeWeightsParallel is ComputeWeights split across workers. The
// per-vertex computation is pure, so vertex ranges are independent.
func ComputeWeightsParallel(verts []geom.Vector3, envs []Envelope, out []VertexWeights, workers int) error {
	if workers <= 1 || len(verts) < workers*64 {
		return ComputeWeights(verts, envs, out)
	}
	if len(out) != len(verts) {
		return fmt.Errorf("rig: output length %d != vertex count %d", len(out), len(verts))
	}
	if len(envs) == 0 {
		return fmt.Errorf("rig: no envelopes")
	}
	boneCount := envelopeBoneCount(envs)
	chunk := (len(verts) + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < len(verts); lo += chunk {
		hi := lo + chunk
		if hi > len(verts) {
			hi = len(verts)
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			computeRange(verts[lo:hi], envs, out[lo:hi], boneCount)
		}(lo, hi)
	}
	wg.Wait()
	return nil
}

// previewPalette is the fixed per-bone color table for weight preview.
// Colors repeat when a skeleton has more bones than entries.
var previewPalette = [][3]geom.Element{
	{1, 0.2, 0.2}, {1, 0.6, 0.2}, {1, 1, 0.2}, {0.6, 1, 0.2},
	{0.2, 1, 0.2}, {0.2, 1, 0.6}, {0.2, 1, 1}, {0.2, 0.6, 1},
	{0.2, 0.2, 1}, {0.6, 0.2, 1}, {1, 0.2, 1}, {1, 0.2, 0.6},
}

// PreviewColors runs the exact weight computation and blends a per-bone
// palette instead of emitting indices, for live preview before a skeleton
// exists. Sharing computeVertex keeps preview and final weights from
// diverging.
func PreviewColors(verts []geom.Vector3, envs []Envelope, out [][3]geom.Element) error {
	if len(out) != len(verts) {
		return fmt.Errorf("rig: output length %d != vertex count %d", len(out), len(verts))
	}
	if len(verts) == 0 {
		return fmt.Errorf("rig: empty mesh")
	}
	if len(envs) == 0 {
		return fmt.Errorf("rig: no envelopes")
	}
	scratch := make([]geom.Element, envelopeBoneCount(envs))
	for vi := range verts {
		bones, weights := computeVertex(&verts[vi], envs, scratch)
		var c [3]geom.Element
		for i := 0; i < MaxInfluences; i++ {
			p := previewPalette[int(bones[i])%len(previewPalette)]
			c[0] += p[0] * weights[i]
			c[1] += p[1] * weights[i]
			c[2] += p[2] * weights[i]
		}
		out[vi] = c
	}
	return nil
}
