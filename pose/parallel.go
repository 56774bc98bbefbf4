package pose

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/multierr"
	viamutils "go.viam.com/utils"

	"github.com/nuklei/nuklei-go/kernels"
	"github.com/nuklei/nuklei-go/utils"
)

// runChains runs nChains independent annealed MH chains over the shared,
// read-only collections and returns their best poses in chain order. Each
// chain owns an RNG stream derived deterministically from the master seed
// and its chain id, so results do not depend on goroutine scheduling.
//
// The context is polled once per chain launch; a cancellation stops
// launching further chains, waits for the running ones, and returns the
// context error. The loaded collections are never touched.
func (e *Estimator) runChains(ctx context.Context, n int) ([]*kernels.SE3, error) {
	workers := e.cfg.NThreads
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	master := utils.NewRand(e.seed)
	results := make([]*kernels.SE3, e.nChains)
	errs := make([]error, e.nChains)
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	var ctxErr error
	for id := 0; id < e.nChains; id++ {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		chainRNG := master.Fork(int64(id))
		id := id
		wg.Add(1)
		viamutils.PanicCapturingGo(func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			c := &chain{e: e, rng: chainRNG}
			results[id], errs[id] = c.mcmc(n)
		})
	}
	wg.Wait()

	err := ctxErr
	for _, chainErr := range errs {
		err = multierr.Combine(err, chainErr)
	}
	if err != nil {
		return nil, err
	}

	poses := make([]*kernels.SE3, 0, len(results))
	for _, p := range results {
		if p != nil {
			poses = append(poses, p)
		}
	}
	return poses, nil
}

// sortPosesByWeight orders poses by descending weight; equal weights keep
// their chain order so the reduction is deterministic.
func sortPosesByWeight(poses []*kernels.SE3) {
	sort.SliceStable(poses, func(i, j int) bool {
		return poses[i].Weight() > poses[j].Weight()
	})
}
