package kernels

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/nuklei/nuklei-go/spatialmath"
	"github.com/nuklei/nuklei-go/utils"
)

// SE3 is a kernel on the group of rigid transforms: a position and a unit
// quaternion (Hamiltonian, scalar first). It doubles as the pose type of the
// estimator.
type SE3 struct {
	base
	ori quat.Number
}

// NewSE3 creates an SE(3) kernel with the given position and orientation.
// The orientation is normalized and sign-canonicalized.
func NewSE3(loc r3.Vector, ori quat.Number) *SE3 {
	k := &SE3{base: base{loc: loc, weight: 1}}
	k.SetOri(ori)
	return k
}

// NewSE3Identity returns the identity transform as a kernel.
func NewSE3Identity() *SE3 {
	return NewSE3(r3.Vector{}, quat.Number{Real: 1})
}

// Type returns TypeSE3.
func (k *SE3) Type() Type { return TypeSE3 }

// Ori returns the orientation quaternion.
func (k *SE3) Ori() quat.Number { return k.ori }

// SetOri sets the orientation, normalizing and canonicalizing the sign.
func (k *SE3) SetOri(q quat.Number) {
	k.ori = spatialmath.Canonicalize(spatialmath.Normalize(q))
}

// Clone returns a deep copy.
func (k *SE3) Clone() Kernel {
	return k.cloneSE3()
}

func (k *SE3) cloneSE3() *SE3 {
	c := &SE3{base: k.cloneBase(), ori: k.ori}
	return c
}

// TransformedWith returns a copy of the kernel moved by t.
func (k *SE3) TransformedWith(t *SE3) Kernel {
	return k.PoseTransformedWith(t)
}

// PoseTransformedWith is TransformedWith with a concrete return type.
func (k *SE3) PoseTransformedWith(t *SE3) *SE3 {
	c := k.cloneSE3()
	c.loc = spatialmath.TransformPoint(t.loc, t.ori, k.loc)
	c.SetOri(quat.Mul(t.ori, k.ori))
	return c
}

// TransformationFrom returns the transform T such that T applied to other
// equals this kernel.
func (k *SE3) TransformationFrom(other *SE3) *SE3 {
	invLoc, invOri := spatialmath.Invert(other.loc, other.ori)
	loc, ori := spatialmath.Compose(k.loc, k.ori, invLoc, invOri)
	t := NewSE3(loc, ori)
	t.locH = k.locH
	t.oriH = k.oriH
	return t
}

// DistanceTo returns the positional Euclidean distance and the SO(3)
// geodesic distance to another pose, treating q and -q as equal.
func (k *SE3) DistanceTo(other *SE3) (float64, float64) {
	return k.loc.Sub(other.loc).Norm(), spatialmath.AngleBetween(k.ori, other.ori)
}

// Sample draws a pose from the kernel's own density: Gaussian position with
// stdev LocH, Fisher orientation with angular spread OriH.
func (k *SE3) Sample(rng *utils.Rand) Kernel {
	return k.SamplePose(rng)
}

// SamplePose is Sample with a concrete return type.
func (k *SE3) SamplePose(rng *utils.Rand) *SE3 {
	c := k.cloneSE3()
	c.loc = sampleGaussianLoc(k.loc, k.locH, rng)
	c.SetOri(quat.Mul(k.ori, spatialmath.QuatExp(sampleTangent(k.oriH, rng))))
	return c
}

// SE3Proj returns a copy of the kernel; an SE(3) kernel is already a full
// frame.
func (k *SE3) SE3Proj() (*SE3, error) {
	return k.cloneSE3(), nil
}

// EvaluateAt returns the kernel density at the query pose.
func (k *SE3) EvaluateAt(q Kernel) (float64, error) {
	o, ok := q.(*SE3)
	if !ok {
		return 0, ErrDomainMismatch
	}
	d2 := k.loc.Sub(o.loc).Norm2()
	dot := spatialmath.Dot(k.ori, o.ori)
	return gaussian(d2, k.locH) * fisherS3(dot, k.oriH), nil
}

func sampleGaussianLoc(mean r3.Vector, h float64, rng *utils.Rand) r3.Vector {
	return r3.Vector{
		X: mean.X + h*rng.NormFloat64(),
		Y: mean.Y + h*rng.NormFloat64(),
		Z: mean.Z + h*rng.NormFloat64(),
	}
}

// sampleTangent draws a rotation vector with isotropic Gaussian components
// of standard deviation h, the tangent-space counterpart of a Fisher
// distribution with matching spread.
func sampleTangent(h float64, rng *utils.Rand) r3.Vector {
	return r3.Vector{
		X: h * rng.NormFloat64(),
		Y: h * rng.NormFloat64(),
		Z: h * rng.NormFloat64(),
	}
}
