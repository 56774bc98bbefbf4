package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func cubeCorners() []r3.Vector {
	var pts []r3.Vector
	for _, x := range []float64{-1, 1} {
		for _, y := range []float64{-1, 1} {
			for _, z := range []float64{-1, 1} {
				pts = append(pts, r3.Vector{X: x, Y: y, Z: z})
			}
		}
	}
	return pts
}

func TestConvexHullCube(t *testing.T) {
	pts := append(cubeCorners(), r3.Vector{X: 0, Y: 0, Z: 0}, r3.Vector{X: 0.5, Y: 0.2, Z: -0.3})
	hull, err := ConvexHull(pts)
	test.That(t, err, test.ShouldBeNil)

	// A triangulated cube has 12 faces.
	test.That(t, hull.Size(), test.ShouldEqual, 12)

	t.Run("normals point outward", func(t *testing.T) {
		for _, tri := range hull.Triangles() {
			test.That(t, tri.Normal().Dot(tri.Centroid()), test.ShouldBeGreaterThan, 0)
		}
	})

	t.Run("total area matches the cube surface", func(t *testing.T) {
		area := 0.0
		for _, tri := range hull.Triangles() {
			area += tri.Area()
		}
		test.That(t, area, test.ShouldAlmostEqual, 24, 1e-9)
	})

	t.Run("interior points are occluded, surface points are not", func(t *testing.T) {
		viewpoint := r3.Vector{X: 0, Y: 0, Z: 10}
		test.That(t, hull.Occludes(viewpoint, r3.Vector{X: 0, Y: 0, Z: -1}, 0.1), test.ShouldBeTrue)
		test.That(t, hull.Occludes(viewpoint, r3.Vector{X: 0.3, Y: 0.3, Z: 1}, 0.1), test.ShouldBeFalse)
	})
}

func TestConvexHullSphere(t *testing.T) {
	var pts []r3.Vector
	n := 200
	for i := 0; i < n; i++ {
		// Fibonacci sphere sampling.
		z := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - z*z)
		phi := math.Pi * (1 + math.Sqrt(5)) * float64(i)
		pts = append(pts, r3.Vector{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z})
	}
	hull, err := ConvexHull(pts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hull.Size(), test.ShouldBeGreaterThan, 100)
	area := 0.0
	for _, tri := range hull.Triangles() {
		area += tri.Area()
	}
	// Inscribed in the unit sphere, close to but below 4*pi.
	test.That(t, area, test.ShouldBeBetween, 11, 4*math.Pi)
}

func TestConvexHullDegenerate(t *testing.T) {
	t.Run("too few points", func(t *testing.T) {
		_, err := ConvexHull([]r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}})
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("coplanar points", func(t *testing.T) {
		_, err := ConvexHull([]r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0.5, Y: 0.5, Z: 0}})
		test.That(t, err, test.ShouldNotBeNil)
	})
}
