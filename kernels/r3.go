package kernels

import (
	"github.com/golang/geo/r3"

	"github.com/nuklei/nuklei-go/spatialmath"
	"github.com/nuklei/nuklei-go/utils"
)

// R3 is a position-only kernel.
type R3 struct {
	base
}

// NewR3 creates a position-only kernel.
func NewR3(loc r3.Vector) *R3 {
	return &R3{base: base{loc: loc, weight: 1}}
}

// Type returns TypeR3.
func (k *R3) Type() Type { return TypeR3 }

// Clone returns a deep copy.
func (k *R3) Clone() Kernel {
	return &R3{base: k.cloneBase()}
}

// TransformedWith returns a copy of the kernel moved by t.
func (k *R3) TransformedWith(t *SE3) Kernel {
	c := &R3{base: k.cloneBase()}
	c.loc = spatialmath.TransformPoint(t.loc, t.ori, k.loc)
	return c
}

// Sample draws a position from the kernel's Gaussian.
func (k *R3) Sample(rng *utils.Rand) Kernel {
	c := &R3{base: k.cloneBase()}
	c.loc = sampleGaussianLoc(k.loc, k.locH, rng)
	return c
}

// SE3Proj is not defined for a position-only kernel.
func (k *R3) SE3Proj() (*SE3, error) {
	return nil, ErrUnsupportedOperation
}

// EvaluateAt returns the kernel density at the query position.
func (k *R3) EvaluateAt(q Kernel) (float64, error) {
	if q.Type() != TypeR3 {
		return 0, ErrDomainMismatch
	}
	return gaussian(k.loc.Sub(q.Loc()).Norm2(), k.locH), nil
}
