package kernels

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/nuklei/nuklei-go/utils"
)

func TestSampleBegin(t *testing.T) {
	c := r3Collection(t, r3.Vector{}, r3.Vector{X: 1}, r3.Vector{X: 2}, r3.Vector{X: 3})
	test.That(t, c.ComputeKernelStatistics(), test.ShouldBeNil)

	t.Run("yields exactly n items", func(t *testing.T) {
		it, err := c.SampleBegin(17, utils.NewRand(1))
		test.That(t, err, test.ShouldBeNil)
		count := 0
		for {
			k, idx, ok := it.Next()
			if !ok {
				break
			}
			test.That(t, k, test.ShouldNotBeNil)
			test.That(t, idx, test.ShouldBeBetweenOrEqual, 0, 3)
			count++
		}
		test.That(t, count, test.ShouldEqual, 17)
	})

	t.Run("requires statistics", func(t *testing.T) {
		fresh := r3Collection(t, r3.Vector{})
		_, err := fresh.SampleBegin(2, utils.NewRand(1))
		test.That(t, err, test.ShouldEqual, ErrStatisticsRequired)
	})

	t.Run("empty collection fails", func(t *testing.T) {
		_, err := NewCollection().SampleBegin(2, utils.NewRand(1))
		test.That(t, err, test.ShouldEqual, ErrEmptyCollection)
	})
}

func TestSampleProportionalToWeight(t *testing.T) {
	c := r3Collection(t, r3.Vector{}, r3.Vector{X: 1}, r3.Vector{X: 2})
	c.At(0).SetWeight(0.5)
	c.At(1).SetWeight(0.3)
	c.At(2).SetWeight(0.2)
	test.That(t, c.ComputeKernelStatistics(), test.ShouldBeNil)

	n := 10000
	it, err := c.SampleBegin(n, utils.NewRand(99))
	test.That(t, err, test.ShouldBeNil)
	counts := make([]int, 3)
	for {
		_, idx, ok := it.Next()
		if !ok {
			break
		}
		counts[idx]++
	}
	// Systematic resampling: the total-variation gap to the weights shrinks
	// with n; at this size it is essentially the rounding error.
	tv := 0.0
	for i, w := range []float64{0.5, 0.3, 0.2} {
		tv += math.Abs(float64(counts[i])/float64(n) - w)
	}
	test.That(t, tv/2, test.ShouldBeLessThan, 0.001)
}

func TestSampleIteratorClone(t *testing.T) {
	c := r3Collection(t, r3.Vector{}, r3.Vector{X: 1}, r3.Vector{X: 2}, r3.Vector{X: 3})
	for i := 0; i < c.Size(); i++ {
		c.At(i).SetWeight(float64(i + 1))
	}
	test.That(t, c.ComputeKernelStatistics(), test.ShouldBeNil)

	it, err := c.SampleBegin(20, utils.NewRand(5))
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 7; i++ {
		it.Next()
	}
	test.That(t, it.Remaining(), test.ShouldEqual, 13)

	// A clone must continue with the identical stream.
	clone := it.Clone()
	for {
		_, wantIdx, ok := it.Next()
		if !ok {
			break
		}
		_, gotIdx, ok2 := clone.Next()
		test.That(t, ok2, test.ShouldBeTrue)
		test.That(t, gotIdx, test.ShouldEqual, wantIdx)
	}
	_, _, ok := clone.Next()
	test.That(t, ok, test.ShouldBeFalse)
}
