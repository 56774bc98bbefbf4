// Package pose implements 6-DoF pose estimation: it aligns a rigid object
// kernel collection to a scene collection by maximizing the scene's kernel
// density estimate over SE(3), using simulated-annealing Metropolis-Hastings
// chains run in parallel.
package pose

import "github.com/nuklei/nuklei-go/kernels"

// CustomIntegrandFactor modifies the posterior over poses. Implementations
// must be safe for concurrent use: all chains share one instance, and the
// estimator only reads through it.
type CustomIntegrandFactor interface {
	// Factor returns a multiplicative weight on the posterior at the given
	// pose. The neutral value is 1.
	Factor(pose *kernels.SE3) float64

	// Test rejects poses outright, e.g. for physical plausibility. A pose
	// failing Test never becomes a chain state; in partial-view mode it
	// also scores 0.
	Test(pose *kernels.SE3) bool
}
