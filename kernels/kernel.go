// Package kernels defines weighted kernels on the manifolds used for pose
// estimation (R3, R3xS2, R3xS2 with antipodal directions, SE(3), SO(3)) and
// collections of such kernels supporting sampling, density evaluation,
// statistics, spatial indexing and partial-view queries.
package kernels

import (
	"image/color"

	"github.com/golang/geo/r3"

	"github.com/nuklei/nuklei-go/utils"
)

// Type discriminates the manifold a kernel lives on.
type Type int

const (
	// TypeR3 is position only.
	TypeR3 Type = iota
	// TypeR3XS2 is position plus an oriented unit direction.
	TypeR3XS2
	// TypeR3XS2P is position plus a direction with d and -d identified, as
	// used for surface normals of unknown sign.
	TypeR3XS2P
	// TypeSE3 is a full rigid transform: position plus unit quaternion.
	TypeSE3
	// TypeSO3 is orientation only.
	TypeSO3
)

func (t Type) String() string {
	switch t {
	case TypeR3:
		return "r3"
	case TypeR3XS2:
		return "r3xs2"
	case TypeR3XS2P:
		return "r3xs2p"
	case TypeSE3:
		return "se3"
	case TypeSO3:
		return "so3"
	}
	return "unknown"
}

// Descriptor is an opaque payload attached to a kernel, such as a color.
type Descriptor interface {
	Clone() Descriptor
}

// ColorDescriptor tags a kernel with an RGB color.
type ColorDescriptor struct {
	Color color.NRGBA
}

// Clone returns a copy of the descriptor.
func (d *ColorDescriptor) Clone() Descriptor {
	c := *d
	return &c
}

// Kernel is the tagged-sum interface over the manifold variants. All
// orientations are stored normalized; per-kernel bandwidths are the standard
// deviations used when the kernel acts as a density.
type Kernel interface {
	// Type returns the manifold discriminator.
	Type() Type

	// Loc returns the kernel position.
	Loc() r3.Vector
	// SetLoc sets the kernel position.
	SetLoc(v r3.Vector)

	// Weight returns the non-negative kernel weight.
	Weight() float64
	// SetWeight sets the kernel weight.
	SetWeight(w float64)

	// LocH returns the positional bandwidth (standard deviation, in
	// coordinate units).
	LocH() float64
	// SetLocH sets the positional bandwidth.
	SetLocH(h float64)

	// OriH returns the angular bandwidth (standard deviation, radians).
	OriH() float64
	// SetOriH sets the angular bandwidth.
	SetOriH(h float64)

	// Descriptor returns the attached payload, or nil.
	Descriptor() Descriptor
	// SetDescriptor attaches a payload.
	SetDescriptor(d Descriptor)

	// Clone returns a deep copy.
	Clone() Kernel

	// TransformedWith returns a copy moved by the rigid transform t.
	TransformedWith(t *SE3) Kernel

	// Sample draws a kernel from this kernel's own density.
	Sample(rng *utils.Rand) Kernel

	// SE3Proj lifts the kernel to a full SE(3) frame. Variants without
	// enough orientation information return ErrUnsupportedOperation; the
	// lift is deterministic in the kernel's fields.
	SE3Proj() (*SE3, error)

	// EvaluateAt returns this kernel's density value at the query kernel's
	// position (and orientation, on product manifolds). The query must live
	// on the same manifold.
	EvaluateAt(q Kernel) (float64, error)

	// CutPoint returns the radius beyond which the kernel's positional
	// density is negligible, for range-search truncation.
	CutPoint() float64
}

// base carries the fields common to every variant.
type base struct {
	loc    r3.Vector
	weight float64
	locH   float64
	oriH   float64
	desc   Descriptor
}

func (b *base) Loc() r3.Vector     { return b.loc }
func (b *base) SetLoc(v r3.Vector) { b.loc = v }

func (b *base) Weight() float64     { return b.weight }
func (b *base) SetWeight(w float64) { b.weight = w }

func (b *base) LocH() float64     { return b.locH }
func (b *base) SetLocH(h float64) { b.locH = h }

func (b *base) OriH() float64     { return b.oriH }
func (b *base) SetOriH(h float64) { b.oriH = h }

func (b *base) Descriptor() Descriptor {
	return b.desc
}

func (b *base) SetDescriptor(d Descriptor) {
	b.desc = d
}

func (b *base) cloneBase() base {
	c := *b
	if b.desc != nil {
		c.desc = b.desc.Clone()
	}
	return c
}

func (b *base) CutPoint() float64 {
	return locCutFactor * clampLocH(b.locH)
}
