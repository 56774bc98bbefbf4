package spatialmath

import "math"

// BesselI1e returns the exponentially scaled modified Bessel function of the
// first kind of order one, I1(x)*exp(-|x|). The scaled form stays finite for
// the large concentrations produced by small angular bandwidths.
//
// Polynomial approximations from Abramowitz & Stegun 9.8.3 and 9.8.4.
func BesselI1e(x float64) float64 {
	ax := math.Abs(x)
	var result float64
	if ax < 3.75 {
		t := x / 3.75
		t *= t
		result = ax * (0.5 + t*(0.87890594+t*(0.51498869+t*(0.15084934+
			t*(0.02658733+t*(0.00301532+t*0.00032411))))))
		result *= math.Exp(-ax)
	} else {
		t := 3.75 / ax
		result = 0.02282967 + t*(-0.02895312+t*(0.01787654-t*0.00420059))
		result = 0.39894228 + t*(-0.03988024+t*(-0.00362018+
			t*(0.00163801+t*(-0.01031555+t*result))))
		result /= math.Sqrt(ax)
	}
	if x < 0 {
		return -result
	}
	return result
}

// BesselI1 returns the modified Bessel function of the first kind of order
// one. Overflows to +Inf for x beyond roughly 709.8, where exp(|x|) leaves
// the float64 range (-Inf for x below -709.8).
func BesselI1(x float64) float64 {
	return BesselI1e(x) * math.Exp(math.Abs(x))
}
