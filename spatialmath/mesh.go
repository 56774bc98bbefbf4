package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Mesh is a set of triangles approximating a closed surface. Visibility
// queries treat the triangles as opaque.
type Mesh struct {
	triangles []*Triangle
}

// NewMesh creates a mesh from a set of triangles.
func NewMesh(triangles []*Triangle) *Mesh {
	return &Mesh{triangles: triangles}
}

// Triangles returns the triangles of the mesh.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// Size returns the number of triangles.
func (m *Mesh) Size() int {
	return len(m.triangles)
}

// DistanceToPoint returns the distance from p to the closest point on the
// mesh surface.
func (m *Mesh) DistanceToPoint(p r3.Vector) float64 {
	best := math.Inf(1)
	for _, tri := range m.triangles {
		if d := p.Sub(tri.ClosestPointToPoint(p)).Norm2(); d < best {
			best = d
		}
	}
	return math.Sqrt(best)
}

// Occludes reports whether the mesh blocks the line of sight from viewpoint
// to target. Intersections closer than tol to the target do not count; tol
// absorbs the thickness of the sampled surface around the target itself.
func (m *Mesh) Occludes(viewpoint, target r3.Vector, tol float64) bool {
	for _, tri := range m.triangles {
		hit, ok := tri.SegmentIntersection(viewpoint, target)
		if !ok {
			continue
		}
		if hit.Sub(target).Norm() > tol {
			return true
		}
	}
	return false
}
