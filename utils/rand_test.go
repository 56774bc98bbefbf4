package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestRandReproducible(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)
	for i := 0; i < 100; i++ {
		test.That(t, a.Uniform(), test.ShouldEqual, b.Uniform())
		test.That(t, a.UniformInt(1000), test.ShouldEqual, b.UniformInt(1000))
		test.That(t, a.NormFloat64(), test.ShouldEqual, b.NormFloat64())
	}
}

func TestRandFork(t *testing.T) {
	master := NewRand(7)

	t.Run("forks are deterministic", func(t *testing.T) {
		a := master.Fork(3)
		b := NewRand(7).Fork(3)
		for i := 0; i < 20; i++ {
			test.That(t, a.Uniform(), test.ShouldEqual, b.Uniform())
		}
	})

	t.Run("distinct ids give distinct streams", func(t *testing.T) {
		a := master.Fork(0)
		b := master.Fork(1)
		same := true
		for i := 0; i < 10; i++ {
			if a.Uniform() != b.Uniform() {
				same = false
			}
		}
		test.That(t, same, test.ShouldBeFalse)
	})
}

func TestShuffleReproducible(t *testing.T) {
	perm := func(seed int64) []int {
		r := NewRand(seed)
		s := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
		r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		return s
	}
	test.That(t, perm(9), test.ShouldResemble, perm(9))
}
