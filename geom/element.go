package geom

import "math"

func Abs(v Element) Element {
	if v < 0 {
		return -v
	}
	return v
}

func Clamp(v, min, max Element) Element {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func Lerp(a, b, t Element) Element {
	return a + (b-a)*t
}

func IsFinite(v Element) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (v *Vector3) IsFinite() bool {
	return IsFinite(v.X) && IsFinite(v.Y) && IsFinite(v.Z)
}

func (v *Vector4) IsFinite() bool {
	return IsFinite(v.X) && IsFinite(v.Y) && IsFinite(v.Z) && IsFinite(v.W)
}
