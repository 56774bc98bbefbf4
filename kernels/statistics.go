package kernels

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/nuklei/nuklei-go/spatialmath"
)

// ComputeKernelStatistics computes the total weight, the mean kernel and the
// moments kernel, and caches the largest positional bandwidth for evaluation
// truncation. It must be called again after any mutation.
func (c *Collection) ComputeKernelStatistics() error {
	if c.Empty() {
		return ErrEmptyCollection
	}

	total := 0.0
	maxLocH := 0.0
	for _, k := range c.kernels {
		total += k.Weight()
		if k.LocH() > maxLocH {
			maxLocH = k.LocH()
		}
	}
	if total <= 0 {
		return ErrNonPositiveWeight
	}

	meanLoc := r3.Vector{}
	for _, k := range c.kernels {
		meanLoc = meanLoc.Add(k.Loc().Mul(k.Weight() / total))
	}

	// Isotropic positional spread about the centroid.
	sqDev := 0.0
	for _, k := range c.kernels {
		sqDev += k.Weight() / total * k.Loc().Sub(meanLoc).Norm2()
	}
	locSpread := math.Sqrt(sqDev)

	c.totalWeight = total
	c.maxLocH = maxLocH
	c.mean = c.summaryKernel(meanLoc, locSpread, 0)
	oriSpread := c.orientationSpread(c.mean, total)
	c.moments = c.summaryKernel(meanLoc, locSpread, oriSpread)
	c.statsValid = true
	return nil
}

// summaryKernel packs summary statistics into a kernel of the collection's
// manifold: position is the centroid, orientation the weighted chordal mean,
// LocH the isotropic positional spread, OriH the angular spread.
func (c *Collection) summaryKernel(loc r3.Vector, locSpread, oriSpread float64) Kernel {
	var k Kernel
	switch c.kernelType {
	case TypeR3:
		k = NewR3(loc)
	case TypeR3XS2, TypeR3XS2P:
		projective := c.kernelType == TypeR3XS2P
		ref := c.kernels[0].(*R3XS2).dir
		sum := r3.Vector{}
		for _, kk := range c.kernels {
			d := kk.(*R3XS2).dir
			if projective && d.Dot(ref) < 0 {
				d = d.Mul(-1)
			}
			sum = sum.Add(d.Mul(kk.Weight()))
		}
		if projective {
			k = NewR3XS2P(loc, sum)
		} else {
			k = NewR3XS2(loc, sum)
		}
	case TypeSE3, TypeSO3:
		ref := c.orientationOf(c.kernels[0])
		sum := quat.Number{}
		for _, kk := range c.kernels {
			q := c.orientationOf(kk)
			if spatialmath.Dot(q, ref) < 0 {
				q = spatialmath.Flip(q)
			}
			sum = quat.Add(sum, quat.Scale(kk.Weight(), q))
		}
		mean := spatialmath.Normalize(sum)
		if c.kernelType == TypeSE3 {
			k = NewSE3(loc, mean)
		} else {
			k = NewSO3(mean)
		}
	}
	k.SetWeight(c.totalWeight)
	k.SetLocH(locSpread)
	k.SetOriH(oriSpread)
	return k
}

// orientationSpread returns the weighted mean angular deviation from the
// summary kernel's orientation, on manifolds that carry one.
func (c *Collection) orientationSpread(summary Kernel, total float64) float64 {
	switch c.kernelType {
	case TypeSE3, TypeSO3:
		mean := c.orientationOf(summary)
		spread := 0.0
		for _, k := range c.kernels {
			spread += k.Weight() / total * spatialmath.AngleBetween(c.orientationOf(k), mean)
		}
		return spread
	case TypeR3XS2, TypeR3XS2P:
		mean := summary.(*R3XS2).dir
		spread := 0.0
		for _, k := range c.kernels {
			dot := k.(*R3XS2).dir.Dot(mean)
			if c.kernelType == TypeR3XS2P {
				dot = math.Abs(dot)
			}
			spread += k.Weight() / total * math.Acos(math.Min(1, math.Max(-1, dot)))
		}
		return spread
	}
	return 0
}

func (c *Collection) orientationOf(k Kernel) quat.Number {
	switch v := k.(type) {
	case *SE3:
		return v.ori
	case *SO3:
		return v.ori
	}
	return quat.Number{Real: 1}
}

// Mean returns the kernel summarizing the collection centroid. Its LocH is
// the isotropic positional standard deviation about the centroid.
func (c *Collection) Mean() (Kernel, error) {
	if !c.statsValid {
		return nil, ErrStatisticsRequired
	}
	return c.mean, nil
}

// Moments returns the kernel summarizing position and orientation spread.
func (c *Collection) Moments() (Kernel, error) {
	if !c.statsValid {
		return nil, ErrStatisticsRequired
	}
	return c.moments, nil
}
