package pose

import (
	"testing"

	"go.viam.com/test"
)

func TestTemperatureSchedule(t *testing.T) {
	f := 400

	t.Run("starts at T0 and is non-increasing", func(t *testing.T) {
		test.That(t, temperature(0, f), test.ShouldAlmostEqual, temperatureStart, 1e-12)
		prev := temperature(0, f)
		for i := 1; i < 3*f; i++ {
			ti := temperature(i, f)
			test.That(t, ti, test.ShouldBeLessThanOrEqualTo, prev)
			prev = ti
		}
	})

	t.Run("clamps at TF", func(t *testing.T) {
		test.That(t, temperature(f, f), test.ShouldAlmostEqual, temperatureFinal, 1e-12)
		test.That(t, temperature(100*f, f), test.ShouldEqual, temperatureFinal)
	})
}

func TestEarlyAbortConstant(t *testing.T) {
	// The abort threshold is empirical and deliberately a named constant.
	test.That(t, earlyAbortRatio, test.ShouldEqual, 0.6)
}
