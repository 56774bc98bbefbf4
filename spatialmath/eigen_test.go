package spatialmath

import (
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestEigenSym3(t *testing.T) {
	t.Run("diagonal matrix", func(t *testing.T) {
		m := mat.NewSymDense(3, []float64{
			2, 0, 0,
			0, 5, 0,
			0, 0, 1,
		})
		vals, vecs, err := EigenSym3(m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vals[0], test.ShouldAlmostEqual, 5, 1e-12)
		test.That(t, vals[1], test.ShouldAlmostEqual, 2, 1e-12)
		test.That(t, vals[2], test.ShouldAlmostEqual, 1, 1e-12)
		// Leading eigenvector along y, up to sign.
		test.That(t, vecs[0].Y*vecs[0].Y, test.ShouldAlmostEqual, 1, 1e-12)
	})

	t.Run("sorted by magnitude", func(t *testing.T) {
		m := mat.NewSymDense(3, []float64{
			-10, 0, 0,
			0, 3, 0,
			0, 0, 0.5,
		})
		vals, _, err := EigenSym3(m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vals[0], test.ShouldAlmostEqual, -10, 1e-12)
		test.That(t, vals[1], test.ShouldAlmostEqual, 3, 1e-12)
	})

	t.Run("right-handed frame", func(t *testing.T) {
		m := mat.NewSymDense(3, []float64{
			4, 1, 0,
			1, 3, 1,
			0, 1, 2,
		})
		_, vecs, err := EigenSym3(m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, vecs[0].Cross(vecs[1]).Dot(vecs[2]), test.ShouldBeGreaterThan, 0)
	})
}

func TestDeterminantInverse(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		2, 0, 0,
		0, 3, 0,
		1, 0, 4,
	})

	t.Run("determinant", func(t *testing.T) {
		det, err := Determinant(m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, det, test.ShouldAlmostEqual, 24, 1e-9)
	})

	t.Run("inverse", func(t *testing.T) {
		inv, err := Inverse(m)
		test.That(t, err, test.ShouldBeNil)
		var prod mat.Dense
		prod.Mul(m, inv)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := 0.0
				if i == j {
					want = 1
				}
				test.That(t, prod.At(i, j), test.ShouldAlmostEqual, want, 1e-12)
			}
		}
	})

	t.Run("singular matrix errors", func(t *testing.T) {
		singular := mat.NewDense(2, 2, []float64{1, 2, 2, 4})
		_, err := Inverse(singular)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestBesselI1(t *testing.T) {
	// Reference values from Abramowitz & Stegun tables.
	test.That(t, BesselI1(0), test.ShouldEqual, 0.0)
	test.That(t, BesselI1(1), test.ShouldAlmostEqual, 0.5651591, 1e-6)
	test.That(t, BesselI1(5), test.ShouldAlmostEqual, 24.335642, 1e-4)
	test.That(t, BesselI1(-1), test.ShouldAlmostEqual, -0.5651591, 1e-6)
	// The scaled form stays finite where the raw form overflows.
	test.That(t, BesselI1e(1000), test.ShouldBeBetween, 0, 1)
}
