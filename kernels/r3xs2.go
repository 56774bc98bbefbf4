package kernels

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/nuklei/nuklei-go/spatialmath"
	"github.com/nuklei/nuklei-go/utils"
)

// R3XS2 is a kernel carrying a position and a unit direction. In the
// projective variant the direction and its negative are identified, which is
// how surface normals of unknown sign are represented.
type R3XS2 struct {
	base
	dir        r3.Vector
	projective bool
}

// NewR3XS2 creates a position+direction kernel. The direction is normalized.
func NewR3XS2(loc, dir r3.Vector) *R3XS2 {
	return &R3XS2{base: base{loc: loc, weight: 1}, dir: normalizeDir(dir)}
}

// NewR3XS2P creates the projective variant, identifying dir and -dir.
func NewR3XS2P(loc, dir r3.Vector) *R3XS2 {
	k := NewR3XS2(loc, dir)
	k.projective = true
	return k
}

func normalizeDir(dir r3.Vector) r3.Vector {
	n := dir.Norm()
	if n == 0 {
		return r3.Vector{Z: 1}
	}
	return dir.Mul(1 / n)
}

// Type returns TypeR3XS2 or TypeR3XS2P.
func (k *R3XS2) Type() Type {
	if k.projective {
		return TypeR3XS2P
	}
	return TypeR3XS2
}

// Dir returns the unit direction.
func (k *R3XS2) Dir() r3.Vector { return k.dir }

// SetDir sets the direction, normalizing it.
func (k *R3XS2) SetDir(dir r3.Vector) { k.dir = normalizeDir(dir) }

// Clone returns a deep copy.
func (k *R3XS2) Clone() Kernel {
	return k.cloneR3XS2()
}

func (k *R3XS2) cloneR3XS2() *R3XS2 {
	return &R3XS2{base: k.cloneBase(), dir: k.dir, projective: k.projective}
}

// TransformedWith returns a copy of the kernel moved by t; the direction
// rotates with the transform.
func (k *R3XS2) TransformedWith(t *SE3) Kernel {
	c := k.cloneR3XS2()
	c.loc = spatialmath.TransformPoint(t.loc, t.ori, k.loc)
	c.dir = spatialmath.RotateVector(t.ori, k.dir)
	return c
}

// Sample draws from the kernel's density: Gaussian position, Fisher
// direction.
func (k *R3XS2) Sample(rng *utils.Rand) Kernel {
	c := k.cloneR3XS2()
	c.loc = sampleGaussianLoc(k.loc, k.locH, rng)
	perturb := spatialmath.QuatExp(sampleTangent(k.oriH, rng))
	c.dir = spatialmath.RotateVector(perturb, k.dir)
	return c
}

// SE3Proj lifts the position and direction to a full SE(3) frame whose x
// axis is the direction. The yaw about the direction is arbitrary but
// deterministic in the direction.
func (k *R3XS2) SE3Proj() (*SE3, error) {
	u, v := spatialmath.OrthonormalBasis(k.dir)
	p := NewSE3(k.loc, spatialmath.QuatFromRotationMatrix(k.dir, u, v))
	p.locH = k.locH
	p.oriH = k.oriH
	p.weight = k.weight
	return p, nil
}

// EvaluateAt returns the kernel density at the query kernel. For the
// projective variant the direction term uses |d.d'| so that d and -d are
// equivalent.
func (k *R3XS2) EvaluateAt(q Kernel) (float64, error) {
	o, ok := q.(*R3XS2)
	if !ok || o.projective != k.projective {
		return 0, ErrDomainMismatch
	}
	dot := k.dir.Dot(o.dir)
	if k.projective {
		dot = math.Abs(dot)
	}
	return gaussian(k.loc.Sub(o.loc).Norm2(), k.locH) * fisherS2(dot, k.oriH, k.projective), nil
}
