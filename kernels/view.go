package kernels

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/nuklei/nuklei-go/spatialmath"
)

// partialViewCache holds, for each direction of a fixed discretization of
// the unit sphere, the kernel indices visible from far away along that
// direction. Lookups pick the cached direction with the largest dot product
// with the query, so there is no floating-point keying.
type partialViewCache struct {
	directions []r3.Vector
	visible    [][]int
	tol        float64
	useNormals bool
}

// AttachMesh associates a triangle mesh with the collection for visibility
// queries. The mesh lives in the same frame as the kernels.
func (c *Collection) AttachMesh(m *spatialmath.Mesh) {
	c.mesh = m
	c.viewCache = nil
}

// Mesh returns the attached mesh, or nil.
func (c *Collection) Mesh() *spatialmath.Mesh {
	return c.mesh
}

// ReadMeshFromOFF attaches the mesh stored in an OFF file.
func (c *Collection) ReadMeshFromOFF(fn string) error {
	m, err := spatialmath.ReadMeshFromOFF(fn)
	if err != nil {
		return err
	}
	c.AttachMesh(m)
	return nil
}

// BuildMesh approximates a closed surface around the kernel positions and
// attaches it. The current construction is the convex hull of the
// positions.
func (c *Collection) BuildMesh() error {
	if c.Empty() {
		return ErrEmptyCollection
	}
	m, err := spatialmath.ConvexHull(c.Locations())
	if err != nil {
		return err
	}
	c.AttachMesh(m)
	return nil
}

// IsVisibleFrom reports whether the kernel k is visible from the viewpoint:
// the segment from the viewpoint to the kernel position must not cross the
// mesh farther than tol from the kernel, and for kernels carrying a surface
// normal the normal must face the viewpoint.
func (c *Collection) IsVisibleFrom(k Kernel, viewpoint r3.Vector, tol float64) (bool, error) {
	if n, ok := k.(*R3XS2); ok && n.projective {
		if !normalFaces(n.loc, n.dir, viewpoint) {
			return false, nil
		}
	}
	return c.isLocVisibleFrom(k.Loc(), viewpoint, tol)
}

func (c *Collection) isLocVisibleFrom(p, viewpoint r3.Vector, tol float64) (bool, error) {
	if c.mesh == nil {
		return false, ErrMeshRequired
	}
	return !c.mesh.Occludes(viewpoint, p, tol), nil
}

// normalFaces reports whether the surface normal d at p faces the viewpoint
// v.
func normalFaces(p, d, v r3.Vector) bool {
	return d.Dot(v.Sub(p)) > 0
}

// PartialView returns the indices of all kernels visible from the
// viewpoint. With useCache, the query direction from the collection centroid
// toward the viewpoint selects the nearest precomputed view; otherwise each
// kernel is tested directly. useNormals adds the normal-facing test on
// projective direction kernels.
func (c *Collection) PartialView(viewpoint r3.Vector, tol float64, useCache, useNormals bool) ([]int, error) {
	if c.mesh == nil {
		return nil, ErrMeshRequired
	}
	if useCache && c.viewCache != nil {
		dir, err := c.viewDirection(viewpoint)
		if err != nil {
			return nil, err
		}
		return c.viewCache.lookup(dir), nil
	}
	return c.directPartialView(viewpoint, tol, useNormals)
}

func (c *Collection) directPartialView(viewpoint r3.Vector, tol float64, useNormals bool) ([]int, error) {
	out := make([]int, 0, len(c.kernels))
	for i, k := range c.kernels {
		if useNormals {
			if n, ok := k.(*R3XS2); ok && n.projective && !normalFaces(n.loc, n.dir, viewpoint) {
				continue
			}
		}
		visible, err := c.isLocVisibleFrom(k.Loc(), viewpoint, tol)
		if err != nil {
			return nil, err
		}
		if visible {
			out = append(out, i)
		}
	}
	return out, nil
}

// viewDirection returns the unit direction from the collection centroid
// toward the viewpoint. A viewpoint at the centroid maps to +z.
func (c *Collection) viewDirection(viewpoint r3.Vector) (r3.Vector, error) {
	mean, err := c.Mean()
	if err != nil {
		return r3.Vector{}, err
	}
	d := viewpoint.Sub(mean.Loc())
	if d.Norm() < 1e-12 {
		return r3.Vector{Z: 1}, nil
	}
	return d.Normalize(), nil
}

// BuildPartialViewCache precomputes partial views for a discretization of
// viewing directions, a subdivided icosahedron with 80 face directions.
// useNormals enables the normal-facing test; the caller enables it when the
// kernels carry surface normals. Requires statistics and an attached mesh.
func (c *Collection) BuildPartialViewCache(tol float64, useNormals bool, logger golog.Logger) error {
	if c.mesh == nil {
		return ErrMeshRequired
	}
	if !c.statsValid {
		return ErrStatisticsRequired
	}
	mean := c.mean.Loc()

	// Viewpoints far outside the cloud stand in for directions at infinity.
	radius := c.mean.LocH()
	if radius <= 0 {
		radius = 1
	}
	standoff := 1000 * radius

	dirs := icosphereDirections()
	cache := &partialViewCache{
		directions: dirs,
		visible:    make([][]int, len(dirs)),
		tol:        tol,
		useNormals: useNormals,
	}
	empty := 0
	for i, d := range dirs {
		view, err := c.directPartialView(mean.Add(d.Mul(standoff)), tol, useNormals)
		if err != nil {
			return err
		}
		if len(view) == 0 {
			empty++
		}
		cache.visible[i] = view
	}
	if empty > 0 && logger != nil {
		logger.Debugf("partial-view cache: %d of %d directions see no points", empty, len(dirs))
	}
	c.viewCache = cache
	return nil
}

// HasPartialViewCache reports whether a view cache is attached.
func (c *Collection) HasPartialViewCache() bool {
	return c.viewCache != nil
}

func (pvc *partialViewCache) lookup(dir r3.Vector) []int {
	best, bestDot := 0, math.Inf(-1)
	for i, d := range pvc.directions {
		if dot := d.Dot(dir); dot > bestDot {
			best, bestDot = i, dot
		}
	}
	return pvc.visible[best]
}

// icosphereDirections returns the 80 face-center directions of a
// once-subdivided icosahedron.
func icosphereDirections() []r3.Vector {
	phi := (1 + math.Sqrt(5)) / 2
	verts := []r3.Vector{
		{X: -1, Y: phi, Z: 0}, {X: 1, Y: phi, Z: 0}, {X: -1, Y: -phi, Z: 0}, {X: 1, Y: -phi, Z: 0},
		{X: 0, Y: -1, Z: phi}, {X: 0, Y: 1, Z: phi}, {X: 0, Y: -1, Z: -phi}, {X: 0, Y: 1, Z: -phi},
		{X: phi, Y: 0, Z: -1}, {X: phi, Y: 0, Z: 1}, {X: -phi, Y: 0, Z: -1}, {X: -phi, Y: 0, Z: 1},
	}
	for i := range verts {
		verts[i] = verts[i].Normalize()
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	dirs := make([]r3.Vector, 0, 4*len(faces))
	for _, f := range faces {
		a, b, c := verts[f[0]], verts[f[1]], verts[f[2]]
		ab := a.Add(b).Normalize()
		bc := b.Add(c).Normalize()
		ca := c.Add(a).Normalize()
		for _, tri := range [][3]r3.Vector{
			{a, ab, ca}, {b, bc, ab}, {c, ca, bc}, {ab, bc, ca},
		} {
			dirs = append(dirs, tri[0].Add(tri[1]).Add(tri[2]).Normalize())
		}
	}
	return dirs
}
