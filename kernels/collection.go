package kernels

import (
	"github.com/golang/geo/r3"

	"github.com/nuklei/nuklei-go/kdtree"
	"github.com/nuklei/nuklei-go/spatialmath"
)

// Collection is an ordered, weighted set of kernels on one manifold, with
// cached statistics, an optional k-d tree over kernel positions, and an
// optional mesh with partial-view support.
//
// A collection is built by appending kernels; ComputeKernelStatistics then
// freezes the caches. Any mutation invalidates statistics, tree and view
// caches, which must be recomputed. The pose estimator treats its input
// collections as read-only.
type Collection struct {
	kernels    []Kernel
	kernelType Type

	statsValid  bool
	totalWeight float64
	maxLocH     float64
	mean        Kernel
	moments     Kernel

	tree      *kdtree.Tree
	mesh      *spatialmath.Mesh
	viewCache *partialViewCache
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Size returns the number of kernels.
func (c *Collection) Size() int {
	return len(c.kernels)
}

// Empty reports whether the collection has no kernels.
func (c *Collection) Empty() bool {
	return len(c.kernels) == 0
}

// KernelType returns the manifold shared by all kernels of the collection.
// Only meaningful on a non-empty collection.
func (c *Collection) KernelType() Type {
	return c.kernelType
}

// At returns the i-th kernel. The caller must not mutate it while the
// collection's caches are in use.
func (c *Collection) At(i int) Kernel {
	return c.kernels[i]
}

// Add appends a kernel. All kernels of a collection must live on the same
// manifold.
func (c *Collection) Add(k Kernel) error {
	if len(c.kernels) == 0 {
		c.kernelType = k.Type()
	} else if k.Type() != c.kernelType {
		return ErrDomainMismatch
	}
	c.kernels = append(c.kernels, k)
	c.invalidate()
	return nil
}

// invalidate drops every cache derived from the kernel set.
func (c *Collection) invalidate() {
	c.statsValid = false
	c.mean = nil
	c.moments = nil
	c.tree = nil
	c.viewCache = nil
}

// Clone returns a deep copy of the kernel set. Caches are not carried over.
func (c *Collection) Clone() *Collection {
	out := &Collection{
		kernels:    make([]Kernel, len(c.kernels)),
		kernelType: c.kernelType,
	}
	for i, k := range c.kernels {
		out.kernels[i] = k.Clone()
	}
	out.mesh = c.mesh
	return out
}

// TotalWeight returns the sum of kernel weights. Valid after
// ComputeKernelStatistics.
func (c *Collection) TotalWeight() (float64, error) {
	if !c.statsValid {
		return 0, ErrStatisticsRequired
	}
	return c.totalWeight, nil
}

// NormalizeWeights scales weights so they sum to one.
func (c *Collection) NormalizeWeights() error {
	total := 0.0
	for _, k := range c.kernels {
		total += k.Weight()
	}
	if total <= 0 {
		return ErrNonPositiveWeight
	}
	for _, k := range c.kernels {
		k.SetWeight(k.Weight() / total)
	}
	c.invalidate()
	return nil
}

// SetKernelLocH sets the positional bandwidth of every kernel.
func (c *Collection) SetKernelLocH(h float64) {
	for _, k := range c.kernels {
		k.SetLocH(h)
	}
	c.statsValid = false
}

// SetKernelOriH sets the angular bandwidth of every kernel.
func (c *Collection) SetKernelOriH(h float64) {
	for _, k := range c.kernels {
		k.SetOriH(h)
	}
	c.statsValid = false
}

// Transform moves every kernel by the rigid transform t.
func (c *Collection) Transform(t *SE3) {
	for i, k := range c.kernels {
		c.kernels[i] = k.TransformedWith(t)
	}
	c.invalidate()
}

// BuildKdTree indexes the kernel positions for range and nearest-neighbor
// queries. Must be rebuilt after any mutation.
func (c *Collection) BuildKdTree() error {
	if c.Empty() {
		return ErrEmptyCollection
	}
	locs := make([]r3.Vector, len(c.kernels))
	maxLocH := 0.0
	for i, k := range c.kernels {
		locs[i] = k.Loc()
		if k.LocH() > maxLocH {
			maxLocH = k.LocH()
		}
	}
	c.maxLocH = maxLocH
	c.tree = kdtree.New(locs)
	return nil
}

// KdTree returns the attached tree, or nil.
func (c *Collection) KdTree() *kdtree.Tree {
	return c.tree
}

// Locations returns a copy of all kernel positions.
func (c *Collection) Locations() []r3.Vector {
	locs := make([]r3.Vector, len(c.kernels))
	for i, k := range c.kernels {
		locs[i] = k.Loc()
	}
	return locs
}
