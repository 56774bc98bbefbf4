package pose

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nuklei/nuklei-go/kernels"
	"github.com/nuklei/nuklei-go/utils"
)

const (
	// independentProposalProb is the probability of drawing an independent
	// correspondence-based proposal instead of a local perturbation.
	independentProposalProb = 0.75
	// proposalRetryLimit caps proposal rejections per MH step; on
	// exhaustion the step is a no-op.
	proposalRetryLimit = 100
	// minPartialViewIndices is the smallest usable partial view; proposals
	// seeing fewer model points are rejected.
	minPartialViewIndices = 20
	// earlyAbortRatio scales the acceptance threshold for the incremental
	// early-abort test. The value is empirical.
	earlyAbortRatio = 0.6

	// Annealing schedule endpoints.
	temperatureStart = 0.5
	temperatureFinal = 0.05
)

// temperature is the cooling schedule: a geometric descent from
// temperatureStart clamped at temperatureFinal, with i counting steps and f
// setting the descent rate. Non-increasing in i.
func temperature(i, f int) float64 {
	t := temperatureStart * math.Pow(temperatureFinal/temperatureStart, float64(i)/float64(f))
	return math.Max(t, temperatureFinal)
}

// chain is the thread-local state of one annealed MH run. Chains share the
// estimator's collections read-only and own their RNG stream.
type chain struct {
	e   *Estimator
	rng *utils.Rand
}

// mcmc runs one full annealed chain over n model points per step and
// returns the best pose visited, weighted by its chain evidence.
func (c *chain) mcmc(n int) (*kernels.SE3, error) {
	current := kernels.NewSE3Identity()
	currentWeight := 0.0
	best := kernels.NewSE3Identity()
	best.SetWeight(0)

	// Seed the chain: force-accept one fully evaluated random transform.
	if err := c.metropolisHastings(current, &currentWeight, 1, true, n); err != nil {
		return nil, err
	}

	nSteps := 10 * n
	if c.e.partialView {
		nSteps *= 4
	}

	bLocH, eLocH := c.e.objectSize/10, c.e.objectSize/40
	bOriH, eOriH := 0.1, 0.02

	for i := 0; i < nSteps; i++ {
		last := nSteps - 1
		// Local-proposal bandwidths anneal linearly over the run.
		frac := float64(i) / float64(last)
		current.SetLocH((1-frac)*bLocH + frac*eLocH)
		current.SetOriH((1-frac)*bOriH + frac*eOriH)
		if current.LocH() <= 0 {
			return nil, errors.Errorf("unexpected local proposal bandwidth %g", current.LocH())
		}

		if err := c.metropolisHastings(current, &currentWeight, temperature(i, nSteps/5), false, n); err != nil {
			return nil, err
		}

		if currentWeight > best.Weight() {
			best = current.Clone().(*kernels.SE3)
			best.SetWeight(currentWeight)
		}
	}
	return best, nil
}

// metropolisHastings performs one MH transition of the chain. With firstRun
// set, the proposal is always independent, every model point is evaluated,
// and the result is accepted unconditionally to seed the chain state.
func (c *chain) metropolisHastings(
	current *kernels.SE3,
	currentWeight *float64,
	temp float64,
	firstRun bool,
	n int,
) error {
	e := c.e

	// Random model subset for this step, proportional to kernel weight.
	it, err := e.objectModel.SampleBegin(n, c.rng)
	if err != nil {
		return err
	}
	indices := make([]int, 0, n)
	for {
		_, idx, ok := it.Next()
		if !ok {
			break
		}
		indices = append(indices, idx)
	}
	c.rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	var nextPose *kernels.SE3
	independentProposal := false

	if c.rng.Uniform() < independentProposalProb || firstRun {
		independentProposal = true
		for count := 0; ; count++ {
			if count == proposalRetryLimit {
				return nil
			}
			modelPoint := e.objectModel.At(indices[c.rng.UniformInt(len(indices))])
			k2, err := modelPoint.SE3Proj()
			if err != nil {
				return errors.Wrap(err, "object model does not support pose proposals")
			}
			k1, err := e.sceneModel.At(c.rng.UniformInt(e.sceneModel.Size())).SE3Proj()
			if err != nil {
				return errors.Wrap(err, "scene model does not support pose proposals")
			}
			nextPose = k1.TransformationFrom(k2)

			if e.cif != nil && !e.cif.Test(nextPose) {
				continue
			}
			if e.partialView {
				visible, err := e.objectModel.IsVisibleFrom(modelPoint, e.viewpointInFrame(nextPose), e.meshTol)
				if err != nil {
					return err
				}
				if !visible {
					continue
				}
				ok, err := c.recomputeIndices(&indices, nextPose, n)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}
			break
		}
	} else {
		for count := 0; ; count++ {
			if count == proposalRetryLimit {
				return nil
			}
			nextPose = current.SamplePose(c.rng)
			if e.cif != nil && !e.cif.Test(nextPose) {
				continue
			}
			if e.partialView {
				ok, err := c.recomputeIndices(&indices, nextPose, n)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}
			break
		}
	}

	weight := 0.0
	threshold := c.rng.Uniform()
	factor := 1.0
	if e.cif != nil {
		factor = e.cif.Factor(nextPose)
	}
	minEvaluated := math.Sqrt(float64(len(indices)))

	for pi := 0; pi < len(indices); pi++ {
		objectPoint := e.objectModel.At(indices[pi])
		moved := objectPoint.TransformedWith(nextPose)

		v, err := e.sceneModel.EvaluationAt(moved, e.evaluationStrategy)
		if err != nil {
			return err
		}
		var w float64
		if e.evaluationStrategy == kernels.WeightedSumEval {
			w = v + e.cfg.WhiteNoisePower/float64(e.sceneModel.Size())
		} else {
			w = v + e.cfg.WhiteNoisePower
		}
		w *= factor
		weight += w

		// Always consider at least sqrt(len(indices)) points before any
		// decision.
		if float64(pi) < minEvaluated {
			continue
		}

		nextWeight := weight / float64(pi+1)
		if e.partialView {
			nextWeight = weight / math.Sqrt(float64(pi+1))
		}

		if firstRun {
			if pi == len(indices)-1 {
				*current = *nextPose
				*currentWeight = nextWeight
				return nil
			}
			continue
		}

		dec := math.Pow(nextWeight / *currentWeight, 1/temp)
		if independentProposal {
			// Cancel the proposal asymmetry of the independent draw.
			dec *= *currentWeight / nextWeight
		}

		if dec < earlyAbortRatio*threshold {
			return nil
		}

		if pi == len(indices)-1 {
			if dec > threshold {
				*current = *nextPose
				*currentWeight = nextWeight
			}
			return nil
		}
	}
	return errors.New("reached forbidden state")
}

// recomputeIndices replaces the step's model subset by the points visible
// from the viewpoint under the candidate pose, shuffled and truncated to n.
// Views smaller than minPartialViewIndices reject the proposal.
func (c *chain) recomputeIndices(indices *[]int, nextPose *kernels.SE3, n int) (bool, error) {
	view, err := c.e.objectModel.PartialView(c.e.viewpointInFrame(nextPose), c.e.meshTol, true, true)
	if err != nil {
		return false, err
	}
	if len(view) < minPartialViewIndices {
		return false, nil
	}
	shuffled := append([]int(nil), view...)
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > n {
		shuffled = shuffled[:n]
	}
	*indices = shuffled
	return true, nil
}
