package geom

import (
	"math"
	"testing"
)

func TestQuaternion(t *testing.T) {
	const eps = 0.000001

	{
		q := NewEuler(0, 0, 0, RotationOrderXYZ).ToQuaternion()
		v1 := NewVector3(1, 2, 3)
		v2 := q.ApplyTo(v1)
		if v2.Sub(v1).Len() > eps {
			t.Error("v1 != v2: ", v1, v2)
		}
	}

	{
		q := NewEuler(2*math.Pi, 0, 0, RotationOrderXYZ).ToQuaternion()
		v1 := NewVector3(1, 2, 3)
		v2 := q.ApplyTo(v1)
		if v2.Sub(v1).Len() > eps {
			t.Error("v1 != v2: ", v1, v2)
		}
	}

	{
		q := NewEuler(math.Pi, 0, 0, RotationOrderXYZ).ToQuaternion()
		q = q.Mul(q)
		v1 := NewVector3(1, 2, 3)
		v2 := q.ApplyTo(v1)
		if v2.Sub(v1).Len() > eps {
			t.Error("v1 != v2: ", v1, v2)
		}
	}

	{
		q := NewEuler(1, 2, 3, RotationOrderXYZ).ToQuaternion()
		q = q.Mul(q.Inverse())
		v1 := NewVector3(1, 2, 3)
		v2 := q.ApplyTo(v1)
		if v2.Sub(v1).Len() > eps {
			t.Error("v1 != v2: ", v1, v2)
		}
	}
}

func TestQuaternionFromTwoVectors(t *testing.T) {
	const eps = 0.00001

	for i, c := range []struct{ from, to *Vector3 }{
		{NewVector3(0, 1, 0), NewVector3(1, 0, 0)},
		{NewVector3(0, 1, 0), NewVector3(0, 0, 1)},
		{NewVector3(1, 2, 3), NewVector3(-3, 1, 2)},
		{NewVector3(0, 1, 0), NewVector3(0, 2, 0)},     // parallel
		{NewVector3(0, 1, 0), NewVector3(0, -1, 0)},    // antiparallel
		{NewVector3(1, 0, 0), NewVector3(-1, 0, 0)},    // antiparallel, x axis
		{NewVector3(0.3, 1, 0), NewVector3(-0.3, -1, 0)},
	} {
		q := NewQuaternionFromTwoVectors(c.from, c.to)
		if Abs(q.Len()-1) > eps {
			t.Error(i, "not unit: ", q)
		}
		got := q.ApplyTo(c.from.Clone().Normalize())
		want := c.to.Clone().Normalize()
		if got.Sub(want).Len() > eps {
			t.Error(i, "rotated vector: ", got, " != ", want)
		}
	}
}

func TestQuaternionFromAxisAngle(t *testing.T) {
	const eps = 0.00001

	q := NewQuaternionFromAxisAngle(NewVector3(0, 0, 1), math.Pi/2)
	got := q.ApplyTo(NewVector3(1, 0, 0))
	if got.Sub(NewVector3(0, 1, 0)).Len() > eps {
		t.Error("rotate x to y: ", got)
	}
}

func TestSlerp(t *testing.T) {
	const eps = 0.0001

	a := NewQuaternion(0, 0, 0, 1)
	b := NewQuaternionFromAxisAngle(NewVector3(0, 1, 0), math.Pi/2)

	if q := Slerp(a, b, 0); q.Sub(a).Len() > eps {
		t.Error("t=0: ", q)
	}
	if q := Slerp(a, b, 1); q.Sub(b).Len() > eps {
		t.Error("t=1: ", q)
	}

	half := NewQuaternionFromAxisAngle(NewVector3(0, 1, 0), math.Pi/4)
	if q := Slerp(a, b, 0.5); q.Sub(half).Len() > eps {
		t.Error("t=0.5: ", q, half)
	}

	// opposite hemisphere input takes the short way
	if q := Slerp(a, b.Scale(-1), 0.5); q.ApplyTo(NewVector3(1, 0, 0)).Sub(half.ApplyTo(NewVector3(1, 0, 0))).Len() > eps {
		t.Error("hemisphere: ", q, half)
	}
}
