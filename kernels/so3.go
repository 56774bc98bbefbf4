package kernels

import (
	"gonum.org/v1/gonum/num/quat"

	"github.com/nuklei/nuklei-go/spatialmath"
	"github.com/nuklei/nuklei-go/utils"
)

// SO3 is an orientation-only kernel: a unit quaternion with q and -q
// identified.
type SO3 struct {
	base
	ori quat.Number
}

// NewSO3 creates an orientation-only kernel. The quaternion is normalized
// and sign-canonicalized.
func NewSO3(ori quat.Number) *SO3 {
	k := &SO3{base: base{weight: 1}}
	k.SetOri(ori)
	return k
}

// Type returns TypeSO3.
func (k *SO3) Type() Type { return TypeSO3 }

// Ori returns the orientation quaternion.
func (k *SO3) Ori() quat.Number { return k.ori }

// SetOri sets the orientation, normalizing and canonicalizing the sign.
func (k *SO3) SetOri(q quat.Number) {
	k.ori = spatialmath.Canonicalize(spatialmath.Normalize(q))
}

// Clone returns a deep copy.
func (k *SO3) Clone() Kernel {
	return &SO3{base: k.cloneBase(), ori: k.ori}
}

// TransformedWith rotates the orientation by t's rotation; the positional
// part of t does not apply.
func (k *SO3) TransformedWith(t *SE3) Kernel {
	c := &SO3{base: k.cloneBase()}
	c.SetOri(quat.Mul(t.ori, k.ori))
	return c
}

// Sample draws an orientation from the kernel's Fisher density.
func (k *SO3) Sample(rng *utils.Rand) Kernel {
	c := &SO3{base: k.cloneBase()}
	c.SetOri(quat.Mul(k.ori, spatialmath.QuatExp(sampleTangent(k.oriH, rng))))
	return c
}

// SE3Proj is not defined for an orientation-only kernel.
func (k *SO3) SE3Proj() (*SE3, error) {
	return nil, ErrUnsupportedOperation
}

// EvaluateAt returns the kernel density at the query orientation.
func (k *SO3) EvaluateAt(q Kernel) (float64, error) {
	o, ok := q.(*SO3)
	if !ok {
		return 0, ErrDomainMismatch
	}
	return fisherS3(spatialmath.Dot(k.ori, o.ori), k.oriH), nil
}
