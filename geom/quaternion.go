package geom

import "math"

type Vector4 struct {
	X Element
	Y Element
	Z Element
	W Element
}

type Quaternion = Vector4

func NewVector4(x, y, z, w float32) *Vector4 {
	return &Vector4{X: x, Y: y, Z: z, W: w}
}

func NewQuaternion(x, y, z, w float32) *Vector4 {
	return &Vector4{X: x, Y: y, Z: z, W: w}
}

func NewQuaternionFromArray(arr [4]Element) *Vector4 {
	return &Vector4{X: arr[0], Y: arr[1], Z: arr[2], W: arr[3]}
}

func NewQuaternionFromAxisAngle(axis *Vector3, angle Element) *Quaternion {
	a := axis.Clone().Normalize()
	s := Element(math.Sin(float64(angle / 2)))
	return &Vector4{
		X: a.X * s,
		Y: a.Y * s,
		Z: a.Z * s,
		W: Element(math.Cos(float64(angle / 2))),
	}
}

// NewQuaternionFromTwoVectors returns the shortest-arc rotation from one
// direction to another. Inputs do not need to be normalized.
// The general formula breaks down near parallel and antiparallel inputs,
// so those cases are handled separately: parallel returns identity,
// antiparallel returns a half turn around a perpendicular axis.
func NewQuaternionFromTwoVectors(from, to *Vector3) *Quaternion {
	const eps = 1e-6
	f := from.Clone().Normalize()
	t := to.Clone().Normalize()
	d := f.Dot(t)
	if d > 1-eps {
		return &Vector4{W: 1}
	}
	if d < -1+eps {
		axis := NewVector3(1, 0, 0).Cross(f)
		if axis.LenSqr() < eps {
			axis = NewVector3(0, 1, 0).Cross(f)
		}
		axis.Normalize()
		return &Vector4{X: axis.X, Y: axis.Y, Z: axis.Z, W: 0}
	}
	c := f.Cross(t)
	q := &Vector4{X: c.X, Y: c.Y, Z: c.Z, W: 1 + d}
	return q.Normalize()
}

func (v *Vector4) Add(v2 *Vector4) *Vector4 {
	return &Vector4{X: v.X + v2.X, Y: v.Y + v2.Y, Z: v.Z + v2.Z, W: v.W + v2.W}
}

func (v *Vector4) Sub(v2 *Vector4) *Vector4 {
	return &Vector4{X: v.X - v2.X, Y: v.Y - v2.Y, Z: v.Z - v2.Z, W: v.W - v2.W}
}

func (v *Vector4) Dot(v2 *Vector4) Element {
	return v.X*v2.X + v.Y*v2.Y + v.Z*v2.Z + v.W*v2.W
}

func (v *Vector4) Scale(s Element) *Vector4 {
	return &Vector4{X: v.X * s, Y: v.Y * s, Z: v.Z * s, W: v.W * s}
}

func (v *Vector4) Len() Element {
	return Element(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z + v.W*v.W)))
}

func (v *Vector4) LenSqr() Element {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z + v.W*v.W
}

func (v *Vector4) Normalize() *Vector4 {
	l := v.Len()
	if l > 0 {
		v.X /= l
		v.Y /= l
		v.Z /= l
		v.W /= l
	} else {
		v.W = 1
	}
	return v
}

func (v *Vector4) Clone() *Vector4 {
	r := *v
	return &r
}

func (v *Vector4) Inverse() *Vector4 {
	return &Vector4{X: -v.X, Y: -v.Y, Z: -v.Z, W: v.W}
}

// Returns Hamilton product
func (a *Vector4) Mul(b *Vector4) *Vector4 {
	return &Vector4{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z, // 1
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y, // i
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X, // j
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W, // k
	}
}

// ApplyTo rotates a vector. q * (v,0) * ~q
func (q *Vector4) ApplyTo(v *Vector3) *Vector3 {
	p := &Vector4{X: v.X, Y: v.Y, Z: v.Z, W: 0}
	r := q.Mul(p).Mul(q.Inverse())
	return &Vector3{X: r.X, Y: r.Y, Z: r.Z}
}

// Slerp interpolates between two unit quaternions. Inputs on opposite
// hemispheres are flipped so the interpolation takes the short way.
func Slerp(a, b *Quaternion, t Element) *Quaternion {
	const eps = 1e-6
	d := a.Dot(b)
	bb := b
	if d < 0 {
		bb = b.Scale(-1)
		d = -d
	}
	if d > 1-eps {
		return a.Scale(1 - t).Add(bb.Scale(t)).Normalize()
	}
	theta := math.Acos(math.Max(-1, math.Min(float64(d), 1)))
	sin := math.Sin(theta)
	wa := Element(math.Sin((1-float64(t))*theta) / sin)
	wb := Element(math.Sin(float64(t)*theta) / sin)
	return a.Scale(wa).Add(bb.Scale(wb))
}
