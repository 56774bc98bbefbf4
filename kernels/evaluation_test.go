package kernels

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestEvaluationAt(t *testing.T) {
	c := r3Collection(t,
		r3.Vector{}, r3.Vector{X: 0.2}, r3.Vector{X: 5},
	)
	c.SetKernelLocH(0.3)
	test.That(t, c.ComputeKernelStatistics(), test.ShouldBeNil)

	t.Run("empty collection evaluates to zero", func(t *testing.T) {
		v, err := NewCollection().EvaluationAt(NewR3(r3.Vector{}), MaxEval)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, 0.0)
	})

	t.Run("max eval needs a tree", func(t *testing.T) {
		_, err := c.EvaluationAt(NewR3(r3.Vector{}), MaxEval)
		test.That(t, err, test.ShouldEqual, ErrKDTreeRequired)
	})

	t.Run("weighted sum falls back to a full scan", func(t *testing.T) {
		v, err := c.EvaluationAt(NewR3(r3.Vector{}), WeightedSumEval)
		test.That(t, err, test.ShouldBeNil)
		// Manual sum over the three kernels.
		want := 0.0
		for i := 0; i < c.Size(); i++ {
			kv, kerr := c.At(i).EvaluateAt(NewR3(r3.Vector{}))
			test.That(t, kerr, test.ShouldBeNil)
			want += c.At(i).Weight() * kv
		}
		test.That(t, v, test.ShouldAlmostEqual, want, 1e-12)
	})

	test.That(t, c.BuildKdTree(), test.ShouldBeNil)

	t.Run("max eval picks the largest contribution", func(t *testing.T) {
		q := NewR3(r3.Vector{X: 0.1})
		maxV, err := c.EvaluationAt(q, MaxEval)
		test.That(t, err, test.ShouldBeNil)
		sumV, err := c.EvaluationAt(q, WeightedSumEval)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, maxV, test.ShouldBeGreaterThan, 0.0)
		test.That(t, maxV, test.ShouldBeLessThan, sumV)

		// Never above the tightest single-kernel bound.
		peak, err := c.At(0).EvaluateAt(NewR3(c.At(0).Loc()))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, maxV, test.ShouldBeLessThan, peak+1e-12)
	})

	t.Run("truncated and full sums agree near the data", func(t *testing.T) {
		q := NewR3(r3.Vector{X: 0.1})
		withTree, err := c.EvaluationAt(q, WeightedSumEval)
		test.That(t, err, test.ShouldBeNil)
		noTree := c.Clone()
		noTree.SetKernelLocH(0.3)
		test.That(t, noTree.ComputeKernelStatistics(), test.ShouldBeNil)
		full, err := noTree.EvaluationAt(q, WeightedSumEval)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, withTree, test.ShouldAlmostEqual, full, 1e-6)
	})

	t.Run("domain mismatch errors", func(t *testing.T) {
		_, err := c.EvaluationAt(NewR3XS2P(r3.Vector{}, r3.Vector{Z: 1}), MaxEval)
		test.That(t, err, test.ShouldEqual, ErrDomainMismatch)
	})

	t.Run("far queries evaluate to zero under truncation", func(t *testing.T) {
		v, err := c.EvaluationAt(NewR3(r3.Vector{X: 100}), MaxEval)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, 0.0)
	})
}
