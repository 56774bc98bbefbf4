package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestQuaternionBasics(t *testing.T) {
	t.Run("normalize", func(t *testing.T) {
		q := Normalize(quat.Number{Real: 2, Imag: 0, Jmag: 0, Kmag: 0})
		test.That(t, q.Real, test.ShouldAlmostEqual, 1)
		test.That(t, quat.Abs(Normalize(quat.Number{Real: 1, Imag: 2, Jmag: 3, Kmag: 4})), test.ShouldAlmostEqual, 1, 1e-12)
	})

	t.Run("canonicalize", func(t *testing.T) {
		q := Canonicalize(quat.Number{Real: -0.5, Imag: 0.5, Jmag: 0.5, Kmag: 0.5})
		test.That(t, q.Real, test.ShouldBeGreaterThan, 0)
		// A zero scalar part canonicalizes on the first imaginary component.
		q = Canonicalize(quat.Number{Real: 0, Imag: -1})
		test.That(t, q.Imag, test.ShouldEqual, 1.0)
	})

	t.Run("angle between treats q and -q as equal", func(t *testing.T) {
		q := QuatFromAxisAngle(r3.Vector{Z: 1}, 0.3)
		test.That(t, AngleBetween(q, q), test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, AngleBetween(q, Flip(q)), test.ShouldAlmostEqual, 0, 1e-9)
		q2 := QuatFromAxisAngle(r3.Vector{Z: 1}, 0.5)
		test.That(t, AngleBetween(q, q2), test.ShouldAlmostEqual, 0.2, 1e-9)
	})

	t.Run("rotate vector", func(t *testing.T) {
		q := QuatFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
		v := RotateVector(q, r3.Vector{X: 1})
		test.That(t, v.X, test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, v.Y, test.ShouldAlmostEqual, 1, 1e-12)
		test.That(t, v.Z, test.ShouldAlmostEqual, 0, 1e-12)
	})
}

func TestQuatExpLog(t *testing.T) {
	ws := []r3.Vector{
		{X: 0.1},
		{Y: -0.7},
		{X: 0.3, Y: 0.2, Z: -0.5},
		{},
	}
	for _, w := range ws {
		q := QuatExp(w)
		test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1, 1e-12)
		back := QuatLog(q)
		test.That(t, back.Sub(w).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	}
}

func TestSlerp(t *testing.T) {
	q1 := QuatFromAxisAngle(r3.Vector{X: 1}, 0)
	q2 := QuatFromAxisAngle(r3.Vector{X: 1}, math.Pi/2)
	mid := Slerp(q1, q2, 0.5)
	test.That(t, AngleBetween(mid, QuatFromAxisAngle(r3.Vector{X: 1}, math.Pi/4)), test.ShouldAlmostEqual, 0, 1e-9)
	// Slerp takes the short way around even across sign flips.
	mid = Slerp(q1, Flip(q2), 0.5)
	test.That(t, AngleBetween(mid, QuatFromAxisAngle(r3.Vector{X: 1}, math.Pi/4)), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestQuatFromRotationMatrix(t *testing.T) {
	axes := []r3.Vector{{X: 1}, {Y: 1}, {X: 1, Y: 1, Z: 1}}
	for _, axis := range axes {
		q := QuatFromAxisAngle(axis, 0.8)
		c0 := RotateVector(q, r3.Vector{X: 1})
		c1 := RotateVector(q, r3.Vector{Y: 1})
		c2 := RotateVector(q, r3.Vector{Z: 1})
		back := QuatFromRotationMatrix(c0, c1, c2)
		test.That(t, AngleBetween(q, back), test.ShouldAlmostEqual, 0, 1e-9)
	}
}

func TestOrthonormalBasis(t *testing.T) {
	dirs := []r3.Vector{{X: 1}, {Z: 1}, r3.Vector{X: 0.3, Y: -0.4, Z: 0.86}.Normalize()}
	for _, w := range dirs {
		u, v := OrthonormalBasis(w)
		test.That(t, u.Norm(), test.ShouldAlmostEqual, 1, 1e-12)
		test.That(t, v.Norm(), test.ShouldAlmostEqual, 1, 1e-12)
		test.That(t, u.Dot(w), test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, v.Dot(w), test.ShouldAlmostEqual, 0, 1e-12)
		// Right-handed: w x u = v.
		test.That(t, w.Cross(u).Sub(v).Norm(), test.ShouldAlmostEqual, 0, 1e-12)
	}
}

func TestComposeInvert(t *testing.T) {
	loc1 := r3.Vector{X: 1, Y: 2, Z: 3}
	ori1 := QuatFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
	loc2 := r3.Vector{X: -4, Y: 0.5, Z: 2}
	ori2 := QuatFromAxisAngle(r3.Vector{X: 1, Y: 1, Z: 0}, 0.4)

	t.Run("compose matches sequential application", func(t *testing.T) {
		p := r3.Vector{X: 0.3, Y: -0.7, Z: 1.1}
		loc, ori := Compose(loc1, ori1, loc2, ori2)
		direct := TransformPoint(loc1, ori1, TransformPoint(loc2, ori2, p))
		composed := TransformPoint(loc, ori, p)
		test.That(t, composed.Sub(direct).Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	})

	t.Run("invert undoes the transform", func(t *testing.T) {
		invLoc, invOri := Invert(loc1, ori1)
		loc, ori := Compose(invLoc, invOri, loc1, ori1)
		test.That(t, loc.Norm(), test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, AngleBetween(ori, quat.Number{Real: 1}), test.ShouldAlmostEqual, 0, 1e-9)
	})
}
