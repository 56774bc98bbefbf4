package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ConvexHull computes the convex hull of a point set as a triangle mesh with
// outward-facing normals, using an incremental construction. It is used to
// approximate a closed surface around a sampled object when no mesh file is
// available. Returns an error if the points are degenerate (fewer than four
// points, or all coplanar).
func ConvexHull(points []r3.Vector) (*Mesh, error) {
	if len(points) < 4 {
		return nil, errors.Errorf("need at least 4 points to build a hull, got %d", len(points))
	}
	seed, err := hullSeed(points)
	if err != nil {
		return nil, err
	}

	type face struct {
		v      [3]int
		normal r3.Vector
		origin r3.Vector
	}
	newFace := func(a, b, c int) face {
		return face{
			v:      [3]int{a, b, c},
			normal: PlaneNormal(points[a], points[b], points[c]),
			origin: points[a],
		}
	}

	// Seed tetrahedron, each face oriented away from the remaining vertex.
	faces := make([]face, 0, 4*len(points))
	for i := 0; i < 4; i++ {
		a, b, c := seed[(i+1)%4], seed[(i+2)%4], seed[(i+3)%4]
		f := newFace(a, b, c)
		if f.normal.Dot(points[seed[i]].Sub(f.origin)) > 0 {
			f = newFace(a, c, b)
		}
		faces = append(faces, f)
	}

	inSeed := func(i int) bool {
		return i == seed[0] || i == seed[1] || i == seed[2] || i == seed[3]
	}

	const eps = 1e-10
	for i := range points {
		if inSeed(i) {
			continue
		}
		p := points[i]

		// Faces the point can see get removed; their boundary is the horizon.
		visible := make([]bool, len(faces))
		any := false
		for j, f := range faces {
			if f.normal.Dot(p.Sub(f.origin)) > eps {
				visible[j] = true
				any = true
			}
		}
		if !any {
			continue
		}

		// Horizon edges appear in exactly one visible face.
		type edge struct{ a, b int }
		edgeCount := map[edge]int{}
		for j, f := range faces {
			if !visible[j] {
				continue
			}
			for k := 0; k < 3; k++ {
				a, b := f.v[k], f.v[(k+1)%3]
				key := edge{a, b}
				if a > b {
					key = edge{b, a}
				}
				edgeCount[key]++
			}
		}
		kept := faces[:0]
		horizon := make([]edge, 0, 8)
		for j, f := range faces {
			if !visible[j] {
				kept = append(kept, f)
				continue
			}
			for k := 0; k < 3; k++ {
				a, b := f.v[k], f.v[(k+1)%3]
				key := edge{a, b}
				if a > b {
					key = edge{b, a}
				}
				if edgeCount[key] == 1 {
					horizon = append(horizon, edge{a, b})
				}
			}
		}
		faces = kept
		for _, e := range horizon {
			f := newFace(e.a, e.b, i)
			if f.normal == (r3.Vector{}) {
				continue
			}
			faces = append(faces, f)
		}
	}

	triangles := make([]*Triangle, 0, len(faces))
	for _, f := range faces {
		tri := NewTriangle(points[f.v[0]], points[f.v[1]], points[f.v[2]])
		if tri.Degenerate() {
			continue
		}
		triangles = append(triangles, tri)
	}
	if len(triangles) < 4 {
		return nil, errors.New("hull construction collapsed, input may be degenerate")
	}
	return NewMesh(triangles), nil
}

// hullSeed picks four non-coplanar points: two extremes, the point farthest
// from their line, and the point farthest from their plane.
func hullSeed(points []r3.Vector) ([4]int, error) {
	var seed [4]int
	lo, hi := 0, 0
	for i, p := range points {
		if p.X < points[lo].X {
			lo = i
		}
		if p.X > points[hi].X {
			hi = i
		}
	}
	if lo == hi {
		return seed, errors.New("all points coincide")
	}
	seed[0], seed[1] = lo, hi

	line := points[hi].Sub(points[lo])
	third, best := -1, floatEpsilon
	for i, p := range points {
		d := line.Cross(p.Sub(points[lo])).Norm()
		if d > best {
			third, best = i, d
		}
	}
	if third < 0 {
		return seed, errors.New("all points are collinear")
	}
	seed[2] = third

	normal := PlaneNormal(points[lo], points[hi], points[third])
	fourth, best := -1, floatEpsilon
	for i, p := range points {
		d := math.Abs(normal.Dot(p.Sub(points[lo])))
		if d > best {
			fourth, best = i, d
		}
	}
	if fourth < 0 {
		return seed, errors.New("all points are coplanar")
	}
	seed[3] = fourth
	return seed, nil
}
