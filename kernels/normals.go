package kernels

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/nuklei/nuklei-go/spatialmath"
)

// ComputeSurfaceNormals estimates a surface normal at each kernel position
// from the eigenstructure of its k nearest neighbors and returns a new
// collection of projective direction kernels (the sign of a fitted normal is
// arbitrary). Points whose neighborhoods are too small or degenerate are
// skipped and counted; a summary is logged.
//
// Requires a k-d tree on the collection.
func (c *Collection) ComputeSurfaceNormals(k int, logger golog.Logger) (*Collection, error) {
	if c.Empty() {
		return nil, ErrEmptyCollection
	}
	if c.kernelType != TypeR3 {
		return nil, ErrDomainMismatch
	}
	if c.tree == nil {
		return nil, ErrKDTreeRequired
	}
	if k < 3 {
		k = 3
	}

	out := NewCollection()
	skipped := 0
	for _, kk := range c.kernels {
		p := kk.Loc()
		neighbors := c.tree.KNearest(p, k+1)
		if len(neighbors) < 4 {
			skipped++
			continue
		}

		normal, err := fitPlaneNormal(c, neighbors)
		if err != nil {
			skipped++
			continue
		}

		n := NewR3XS2P(p, normal)
		n.SetWeight(kk.Weight())
		n.SetLocH(kk.LocH())
		n.SetOriH(kk.OriH())
		if d := kk.Descriptor(); d != nil {
			n.SetDescriptor(d.Clone())
		}
		if err := out.Add(n); err != nil {
			return nil, err
		}
	}
	if skipped > 0 && logger != nil {
		logger.Warnf("surface normals: skipped %d of %d points with degenerate neighborhoods", skipped, c.Size())
	}
	if out.Empty() {
		return nil, ErrEmptyCollection
	}
	return out, nil
}

// fitPlaneNormal returns the direction of least variance of the neighbor
// positions: the eigenvector of the covariance with the smallest absolute
// eigenvalue.
func fitPlaneNormal(c *Collection, neighbors []int) (r3.Vector, error) {
	centroid := r3.Vector{}
	for _, i := range neighbors {
		centroid = centroid.Add(c.kernels[i].Loc())
	}
	centroid = centroid.Mul(1 / float64(len(neighbors)))

	var cov [3][3]float64
	for _, i := range neighbors {
		d := c.kernels[i].Loc().Sub(centroid)
		comps := [3]float64{d.X, d.Y, d.Z}
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				cov[a][b] += comps[a] * comps[b]
			}
		}
	}
	sym := mat.NewSymDense(3, []float64{
		cov[0][0], cov[0][1], cov[0][2],
		cov[1][0], cov[1][1], cov[1][2],
		cov[2][0], cov[2][1], cov[2][2],
	})
	_, vecs, err := spatialmath.EigenSym3(sym)
	if err != nil {
		return r3.Vector{}, err
	}
	// Eigenvalues come sorted by descending magnitude; the last eigenvector
	// spans the direction of least spread.
	return vecs[2], nil
}
