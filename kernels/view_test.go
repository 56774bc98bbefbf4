package kernels

import (
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// sphereCloud builds a unit-sphere cloud of projective kernels with outward
// normals.
func sphereCloud(t *testing.T, n int) *Collection {
	t.Helper()
	c := NewCollection()
	for i := 0; i < n; i++ {
		z := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - z*z)
		phi := math.Pi * (1 + math.Sqrt(5)) * float64(i)
		p := r3.Vector{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
		test.That(t, c.Add(NewR3XS2P(p, p)), test.ShouldBeNil)
	}
	return c
}

func TestVisibility(t *testing.T) {
	c := sphereCloud(t, 500)
	test.That(t, c.ComputeKernelStatistics(), test.ShouldBeNil)

	t.Run("queries need a mesh", func(t *testing.T) {
		_, err := c.IsVisibleFrom(c.At(0), r3.Vector{Z: 10}, 0.1)
		test.That(t, err, test.ShouldEqual, ErrMeshRequired)
	})

	test.That(t, c.BuildMesh(), test.ShouldBeNil)
	viewpoint := r3.Vector{Z: 10}

	t.Run("partial view is the facing hemisphere", func(t *testing.T) {
		view, err := c.PartialView(viewpoint, 0.25, false, true)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(view), test.ShouldBeGreaterThan, 100)

		for _, i := range view {
			test.That(t, c.At(i).Loc().Z, test.ShouldBeGreaterThan, 0.0)
		}
		// Everything comfortably inside the facing cap is seen.
		missed := 0
		inView := make(map[int]bool, len(view))
		for _, i := range view {
			inView[i] = true
		}
		for i := 0; i < c.Size(); i++ {
			if c.At(i).Loc().Z > 0.3 && !inView[i] {
				missed++
			}
		}
		test.That(t, missed, test.ShouldEqual, 0)
	})

	t.Run("far-side points are occluded", func(t *testing.T) {
		var bottom Kernel
		for i := 0; i < c.Size(); i++ {
			if bottom == nil || c.At(i).Loc().Z < bottom.Loc().Z {
				bottom = c.At(i)
			}
		}
		visible, err := c.IsVisibleFrom(bottom, viewpoint, 0.25)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, visible, test.ShouldBeFalse)
	})
}

func TestPartialViewCache(t *testing.T) {
	c := sphereCloud(t, 300)
	test.That(t, c.ComputeKernelStatistics(), test.ShouldBeNil)
	test.That(t, c.BuildMesh(), test.ShouldBeNil)

	logger := golog.NewTestLogger(t)
	test.That(t, c.BuildPartialViewCache(0.25, true, logger), test.ShouldBeNil)
	test.That(t, c.HasPartialViewCache(), test.ShouldBeTrue)

	// Along a few viewing directions, cached and direct views agree up to
	// the direction binning and the standoff approximation of a viewpoint
	// at infinity.
	for _, dir := range []r3.Vector{{Z: 1}, {X: 1}, r3.Vector{X: 1, Y: 1, Z: 1}.Normalize()} {
		viewpoint := dir.Mul(1000)
		cached, err := c.PartialView(viewpoint, 0.25, true, true)
		test.That(t, err, test.ShouldBeNil)
		direct, err := c.PartialView(viewpoint, 0.25, false, true)
		test.That(t, err, test.ShouldBeNil)

		inDirect := make(map[int]bool, len(direct))
		for _, i := range direct {
			inDirect[i] = true
		}
		overlap := 0
		for _, i := range cached {
			if inDirect[i] {
				overlap++
			}
		}
		// The cache bins directions, so allow a small silhouette band.
		test.That(t, len(cached), test.ShouldBeGreaterThan, 0)
		test.That(t, float64(overlap)/float64(len(cached)), test.ShouldBeGreaterThan, 0.85)
	}
}

func TestBuildMeshDegenerate(t *testing.T) {
	c := r3Collection(t, r3.Vector{}, r3.Vector{X: 1}, r3.Vector{X: 2})
	test.That(t, c.BuildMesh(), test.ShouldNotBeNil)
}
