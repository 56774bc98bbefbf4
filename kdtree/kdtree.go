// Package kdtree implements a balanced 3-dimensional k-d tree over point
// locations, used to accelerate kernel density evaluation with range and
// k-nearest-neighbor queries. Entries keep the index they had in the owning
// container so query results can address kernels directly.
package kdtree

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

type node struct {
	index int // index into the owning container
	left  int32
	right int32
	axis  int8
}

// Tree is an immutable balanced k-d tree. Build once with New; rebuild after
// any mutation of the indexed container.
type Tree struct {
	nodes  []node
	points []r3.Vector
	root   int32
}

// New builds a tree over the given points in O(n log n). The i-th point keeps
// index i.
func New(points []r3.Vector) *Tree {
	t := &Tree{
		nodes:  make([]node, 0, len(points)),
		points: append([]r3.Vector(nil), points...),
		root:   -1,
	}
	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}
	t.root = t.build(indices, 0)
	return t
}

// Size returns the number of indexed points.
func (t *Tree) Size() int {
	return len(t.points)
}

func coord(p r3.Vector, axis int8) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	}
	return p.Z
}

func (t *Tree) build(indices []int, depth int) int32 {
	if len(indices) == 0 {
		return -1
	}
	axis := int8(depth % 3)
	// Ties sort by index so the layout is deterministic.
	sort.Slice(indices, func(i, j int) bool {
		a, b := coord(t.points[indices[i]], axis), coord(t.points[indices[j]], axis)
		if a != b {
			return a < b
		}
		return indices[i] < indices[j]
	})
	median := len(indices) / 2
	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{index: indices[median], axis: axis})
	left := t.build(indices[:median], depth+1)
	right := t.build(indices[median+1:], depth+1)
	t.nodes[id].left = left
	t.nodes[id].right = right
	return id
}

// RadiusSearch returns the indices of all points within radius of q, in
// ascending index order.
func (t *Tree) RadiusSearch(q r3.Vector, radius float64) []int {
	if t.root < 0 || radius < 0 {
		return nil
	}
	var out []int
	r2 := radius * radius
	t.radiusSearch(t.root, q, radius, r2, &out)
	sort.Ints(out)
	return out
}

func (t *Tree) radiusSearch(id int32, q r3.Vector, radius, r2 float64, out *[]int) {
	n := t.nodes[id]
	p := t.points[n.index]
	if q.Sub(p).Norm2() <= r2 {
		*out = append(*out, n.index)
	}
	delta := coord(q, n.axis) - coord(p, n.axis)
	if n.left >= 0 && delta <= radius {
		t.radiusSearch(n.left, q, radius, r2, out)
	}
	if n.right >= 0 && delta >= -radius {
		t.radiusSearch(n.right, q, radius, r2, out)
	}
}

type neighbor struct {
	index int
	dist2 float64
}

// KNearest returns the indices of the k points closest to q, ordered by
// ascending distance; equidistant points order by ascending index.
func (t *Tree) KNearest(q r3.Vector, k int) []int {
	if t.root < 0 || k <= 0 {
		return nil
	}
	if k > len(t.points) {
		k = len(t.points)
	}
	best := make([]neighbor, 0, k+1)
	t.kNearest(t.root, q, k, &best)
	out := make([]int, len(best))
	for i, nb := range best {
		out[i] = nb.index
	}
	return out
}

func (t *Tree) kNearest(id int32, q r3.Vector, k int, best *[]neighbor) {
	n := t.nodes[id]
	p := t.points[n.index]

	nb := neighbor{index: n.index, dist2: q.Sub(p).Norm2()}
	pos := sort.Search(len(*best), func(i int) bool {
		if (*best)[i].dist2 != nb.dist2 {
			return (*best)[i].dist2 > nb.dist2
		}
		return (*best)[i].index > nb.index
	})
	if pos < k {
		*best = append(*best, neighbor{})
		copy((*best)[pos+1:], (*best)[pos:])
		(*best)[pos] = nb
		if len(*best) > k {
			*best = (*best)[:k]
		}
	}

	delta := coord(q, n.axis) - coord(p, n.axis)
	near, far := n.left, n.right
	if delta > 0 {
		near, far = far, near
	}
	if near >= 0 {
		t.kNearest(near, q, k, best)
	}
	if far >= 0 {
		worst := math.Inf(1)
		if len(*best) == k {
			worst = (*best)[k-1].dist2
		}
		if delta*delta <= worst {
			t.kNearest(far, q, k, best)
		}
	}
}
