package kernels

import (
	"math"

	"github.com/nuklei/nuklei-go/spatialmath"
)

// Bandwidth floors applied whenever a kernel is used as a density. Values
// below these make the normalizers explode.
const (
	// LocStdevMin is the smallest positional bandwidth used in evaluation.
	LocStdevMin = 0.1
	// OriStdevMin is the smallest angular bandwidth used in evaluation, in
	// radians.
	OriStdevMin = 0.04
)

// normalizeDensities selects between properly normalized densities and bare
// exponentials.
const normalizeDensities = true

// locCutFactor sets the range-search truncation radius in units of the
// positional bandwidth. Beyond five standard deviations the Gaussian factor
// is below 4e-6 of its peak.
const locCutFactor = 5.0

func clampLocH(h float64) float64 {
	if h < LocStdevMin {
		return LocStdevMin
	}
	return h
}

func clampOriH(h float64) float64 {
	if h < OriStdevMin {
		return OriStdevMin
	}
	return h
}

// gaussian evaluates an isotropic trivariate Gaussian with standard
// deviation h at squared distance d2 from its center.
func gaussian(d2, h float64) float64 {
	h = clampLocH(h)
	v := math.Exp(-d2 / (2 * h * h))
	if normalizeDensities {
		v /= math.Pow(2*math.Pi, 1.5) * h * h * h
	}
	return v
}

// fisherS2 evaluates a von Mises-Fisher density on the unit sphere with mean
// direction cosine dot and concentration derived from the angular bandwidth
// h. With projective set, d and -d are identified and the density is the
// sum of the values at the two antipodal directions.
func fisherS2(dot, h float64, projective bool) float64 {
	h = clampOriH(h)
	kappa := 1 / (h * h)
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	// C(kappa) = kappa / (2 pi (e^kappa - e^-kappa)), evaluated against
	// exp(kappa*dot) in a form that cannot overflow.
	c := 1.0
	if normalizeDensities {
		c = kappa / (2 * math.Pi * (1 - math.Exp(-2*kappa)))
	}
	if projective {
		return c * (math.Exp(kappa*(dot-1)) + math.Exp(-kappa*(dot+1)))
	}
	return c * math.Exp(kappa*(dot-1))
}

// fisherS3 evaluates a von Mises-Fisher density on the quaternion 3-sphere
// with antipodal symmetry (q and -q identified), parametrized by the 4-D dot
// product with the mean quaternion and the angular bandwidth h.
func fisherS3(dot, h float64) float64 {
	h = clampOriH(h)
	kappa := 1 / (h * h)
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	// C4(kappa) = kappa / (4 pi^2 I1(kappa)); the scaled Bessel form keeps
	// the pairing with exp(kappa*dot) finite at large concentrations.
	c := 1.0
	if normalizeDensities {
		c = kappa / (4 * math.Pi * math.Pi * spatialmath.BesselI1e(kappa))
	}
	return c * (math.Exp(kappa*(dot-1)) + math.Exp(-kappa*(dot+1))) / 2
}
