package kernels

import (
	"github.com/nuklei/nuklei-go/utils"
)

// SampleIterator draws exactly n kernels from a collection with probability
// proportional to weight, using systematic resampling: a single uniform
// offset followed by equally spaced strides through the cumulative weights.
//
// The iterator state is an explicit struct so it can be cloned at any point;
// a clone continues with an identical stream.
type SampleIterator struct {
	c      *Collection
	n      int
	stride float64
	offset float64

	k   int     // next sample number
	idx int     // cursor into the kernel sequence
	cum float64 // cumulative weight up to and including idx
}

// SampleBegin starts a systematic resampling pass yielding n kernels.
// Requires ComputeKernelStatistics. Deterministic given the RNG state.
func (c *Collection) SampleBegin(n int, rng *utils.Rand) (*SampleIterator, error) {
	if c.Empty() {
		return nil, ErrEmptyCollection
	}
	if !c.statsValid {
		return nil, ErrStatisticsRequired
	}
	if n <= 0 {
		return nil, ErrNonPositiveWeight
	}
	stride := c.totalWeight / float64(n)
	it := &SampleIterator{
		c:      c,
		n:      n,
		stride: stride,
		offset: rng.Uniform() * stride,
		cum:    c.kernels[0].Weight(),
	}
	return it, nil
}

// Next returns the next sampled kernel and its index in the collection. The
// third return is false once n kernels have been yielded.
func (it *SampleIterator) Next() (Kernel, int, bool) {
	if it.k >= it.n {
		return nil, 0, false
	}
	target := it.offset + float64(it.k)*it.stride
	for it.cum < target && it.idx < it.c.Size()-1 {
		it.idx++
		it.cum += it.c.kernels[it.idx].Weight()
	}
	it.k++
	return it.c.kernels[it.idx], it.idx, true
}

// Remaining returns how many samples the iterator will still yield.
func (it *SampleIterator) Remaining() int {
	return it.n - it.k
}

// Clone returns an iterator that continues with the identical sample stream.
func (it *SampleIterator) Clone() *SampleIterator {
	c := *it
	return &c
}
