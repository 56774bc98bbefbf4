package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

const floatEpsilon = 1e-9

// Triangle is a three-vertex face with a precomputed normal.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a Triangle from three points.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// PlaneNormal returns the unit normal of the plane through three points.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	norm := n.Norm()
	if norm < floatEpsilon {
		return r3.Vector{}
	}
	return n.Mul(1 / norm)
}

// Points returns the vertices of the triangle.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal of the triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Centroid returns the centroid of the triangle.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1.0 / 3.0)
}

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm() / 2
}

// Degenerate reports whether the triangle has (near) zero area.
func (t *Triangle) Degenerate() bool {
	return t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm() < floatEpsilon
}

// ClosestPointSegmentPoint returns the closest point to p on the segment ab.
func ClosestPointSegmentPoint(a, b, p r3.Vector) r3.Vector {
	ab := b.Sub(a)
	denom := ab.Norm2()
	if denom < floatEpsilon {
		return a
	}
	u := p.Sub(a).Dot(ab) / denom
	switch {
	case u <= 0:
		return a
	case u >= 1:
		return b
	}
	return a.Add(ab.Mul(u))
}

// ClosestInsidePoint returns the closest point on the triangle if and only if
// the query point's projection overlaps the triangle; the second return is
// false otherwise.
func (t *Triangle) ClosestInsidePoint(point r3.Vector) (r3.Vector, bool) {
	eps := 1e-6

	// Parametrize the triangle s.t. a point inside the triangle is
	// Q = p0 + u * e0 + v * e1, when 0 <= u <= 1, 0 <= v <= 1, and
	// 0 <= u + v <= 1. Let e0 = (p1 - p0) and e1 = (p2 - p0).
	// We analytically minimize the distance between the point pt and Q.
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	a := e0.Norm2()
	b := e0.Dot(e1)
	c := e1.Norm2()
	d := point.Sub(t.p0)
	// The determinant is 0 only if the angle between e1 and e0 is 0
	// (i.e. the triangle has overlapping lines).
	det := a*c - b*b
	u := (c*e0.Dot(d) - b*e1.Dot(d)) / det
	v := (-b*e0.Dot(d) + a*e1.Dot(d)) / det
	inside := (0 <= u+eps) && (u <= 1+eps) && (0 <= v+eps) && (v <= 1+eps) && (u+v <= 1+eps)
	return t.p0.Add(e0.Mul(u)).Add(e1.Mul(v)), inside
}

// ClosestPointToPoint returns the closest point on the triangle to the given
// point.
func (t *Triangle) ClosestPointToPoint(point r3.Vector) r3.Vector {
	closestPtInside, inside := t.ClosestInsidePoint(point)
	if inside {
		return closestPtInside
	}

	// If the closest point is outside the triangle, it must be on an edge, so
	// check each triangle edge for a closest point to the point pt.
	closestPt := ClosestPointSegmentPoint(t.p0, t.p1, point)
	bestDist := point.Sub(closestPt).Norm2()

	newPt := ClosestPointSegmentPoint(t.p1, t.p2, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		closestPt = newPt
		bestDist = newDist
	}

	newPt = ClosestPointSegmentPoint(t.p2, t.p0, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		return newPt
	}
	return closestPt
}

// SegmentIntersection returns the point where the segment from start to end
// crosses the triangle, using the Moller-Trumbore construction. The second
// return is false if the segment misses the triangle.
func (t *Triangle) SegmentIntersection(start, end r3.Vector) (r3.Vector, bool) {
	dir := end.Sub(start)
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	h := dir.Cross(e1)
	det := e0.Dot(h)
	if math.Abs(det) < floatEpsilon {
		// Segment parallel to the triangle plane.
		return r3.Vector{}, false
	}
	invDet := 1 / det
	s := start.Sub(t.p0)
	u := s.Dot(h) * invDet
	if u < 0 || u > 1 {
		return r3.Vector{}, false
	}
	q := s.Cross(e0)
	v := dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return r3.Vector{}, false
	}
	ray := e1.Dot(q) * invDet
	if ray < 0 || ray > 1 {
		return r3.Vector{}, false
	}
	return start.Add(dir.Mul(ray)), true
}
