package kernels

import (
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestComputeSurfaceNormals(t *testing.T) {
	// A flat grid in the z=0 plane: every fitted normal must be +-z.
	c := NewCollection()
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			p := r3.Vector{X: float64(i) * 0.1, Y: float64(j) * 0.1}
			test.That(t, c.Add(NewR3(p)), test.ShouldBeNil)
		}
	}
	logger := golog.NewTestLogger(t)

	t.Run("requires a tree", func(t *testing.T) {
		_, err := c.ComputeSurfaceNormals(8, logger)
		test.That(t, err, test.ShouldEqual, ErrKDTreeRequired)
	})

	test.That(t, c.BuildKdTree(), test.ShouldBeNil)
	normals, err := c.ComputeSurfaceNormals(8, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, normals.KernelType(), test.ShouldEqual, TypeR3XS2P)
	test.That(t, normals.Size(), test.ShouldEqual, c.Size())

	for i := 0; i < normals.Size(); i++ {
		d := normals.At(i).(*R3XS2).Dir()
		test.That(t, math.Abs(d.Z), test.ShouldAlmostEqual, 1, 1e-9)
	}

	t.Run("only position clouds are upgradable", func(t *testing.T) {
		_, err := normals.ComputeSurfaceNormals(8, logger)
		test.That(t, err, test.ShouldEqual, ErrDomainMismatch)
	})
}
