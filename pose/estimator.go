package pose

import (
	"context"
	"image/color"
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/nuklei/nuklei-go/config"
	"github.com/nuklei/nuklei-go/kernels"
	"github.com/nuklei/nuklei-go/utils"
)

const (
	// defaultNChains is the number of independent chains when the caller
	// does not choose one.
	defaultNChains = 8
	// maxModelPoints caps the per-iteration model subset when the caller
	// leaves it unset.
	maxModelPoints = 1000
	// lightSceneSize is the scene size that light loading subsamples down
	// to.
	lightSceneSize = 10000
	// defaultMeshTol absorbs the thickness of the sampled surface in
	// visibility tests.
	defaultMeshTol = 4.0
)

// Estimator aligns an object kernel collection to a scene collection. Build
// with New, feed with Load, then run ModelToSceneTransformation. The loaded
// collections are treated as read-only during inference; all chains share
// them without locking.
type Estimator struct {
	cfg    config.Config
	logger golog.Logger

	evaluationStrategy kernels.EvaluationStrategy
	locH, oriH         float64
	nChains            int
	n                  int
	cif                CustomIntegrandFactor
	partialView        bool
	meshTol            float64
	seed               int64

	objectModel *kernels.Collection
	sceneModel  *kernels.Collection
	viewpoint   r3.Vector
	objectSize  float64
	loaded      bool
}

// New creates an estimator. locH and oriH are the global KDE bandwidths; a
// non-positive locH is derived from the object size at load time. nChains
// and n fall back to defaults when non-positive. cif may be nil.
func New(
	cfg config.Config,
	locH, oriH float64,
	nChains, n int,
	cif CustomIntegrandFactor,
	partialView bool,
	logger golog.Logger,
) *Estimator {
	if nChains <= 0 {
		nChains = defaultNChains
	}
	return &Estimator{
		cfg:                cfg,
		logger:             logger,
		evaluationStrategy: kernels.MaxEval,
		locH:               locH,
		oriH:               oriH,
		nChains:            nChains,
		n:                  n,
		cif:                cif,
		partialView:        partialView,
		meshTol:            defaultMeshTol,
	}
}

// SetSeed fixes the master seed of the chain RNG streams. Runs with the same
// seed and inputs produce identical poses.
func (e *Estimator) SetSeed(seed int64) {
	e.seed = seed
}

// SetMeshTol overrides the point-to-mesh visibility distance.
func (e *Estimator) SetMeshTol(tol float64) {
	e.meshTol = tol
}

// SetEvaluationStrategy overrides the scene density evaluation strategy.
// The default is kernels.MaxEval.
func (e *Estimator) SetEvaluationStrategy(s kernels.EvaluationStrategy) {
	e.evaluationStrategy = s
}

// SetCustomIntegrandFactor installs a posterior modifier shared by all
// chains.
func (e *Estimator) SetCustomIntegrandFactor(cif CustomIntegrandFactor) {
	e.cif = cif
}

// CustomIntegrandFactor returns the installed posterior modifier, or nil.
func (e *Estimator) CustomIntegrandFactor() CustomIntegrandFactor {
	return e.cif
}

// Load prepares the estimator with an object and a scene collection. The
// inputs are copied; the estimator never mutates the caller's collections.
//
// meshFile optionally names an OFF mesh for partial-view culling; with an
// empty name a mesh is approximated from the object cloud. viewpoint is the
// camera position in the scene frame, required in partial-view mode. With
// light set, oversized scenes are subsampled by weighted systematic
// sampling. With computeNormals set, position-only clouds are upgraded to
// surface-normal clouds before matching.
func (e *Estimator) Load(
	object, scene *kernels.Collection,
	meshFile string,
	viewpoint r3.Vector,
	light, computeNormals bool,
) error {
	if object.Empty() || scene.Empty() {
		return errors.New("Empty input cloud.")
	}

	objectModel := object.Clone()
	sceneModel := scene.Clone()

	var err error
	if objectModel.KernelType() == kernels.TypeR3 && computeNormals {
		if objectModel, err = e.withNormals(objectModel); err != nil {
			return errors.Wrap(err, "computing object normals")
		}
	}
	if sceneModel.KernelType() == kernels.TypeR3 && computeNormals {
		if sceneModel, err = e.withNormals(sceneModel); err != nil {
			return errors.Wrap(err, "computing scene normals")
		}
	}

	if objectModel.KernelType() != sceneModel.KernelType() {
		return errors.New("Input point clouds must be defined on the same domain.")
	}

	if light && sceneModel.Size() > lightSceneSize {
		e.logger.Warnf("scene has %d points, subsampling to %d", sceneModel.Size(), lightSceneSize)
		if sceneModel, err = subsample(sceneModel, lightSceneSize, e.seed); err != nil {
			return errors.Wrap(err, "subsampling scene")
		}
	}

	if err := objectModel.ComputeKernelStatistics(); err != nil {
		return err
	}
	moments, err := objectModel.Moments()
	if err != nil {
		return err
	}
	e.objectSize = moments.LocH()

	if e.locH <= 0 {
		e.locH = e.objectSize / 10
	}

	objectModel.SetKernelLocH(e.locH)
	objectModel.SetKernelOriH(e.oriH)
	sceneModel.SetKernelLocH(e.locH)
	sceneModel.SetKernelOriH(e.oriH)

	if err := objectModel.ComputeKernelStatistics(); err != nil {
		return err
	}
	if err := sceneModel.ComputeKernelStatistics(); err != nil {
		return err
	}
	if err := sceneModel.BuildKdTree(); err != nil {
		return err
	}

	if e.partialView {
		if viewpoint == (r3.Vector{}) {
			e.logger.Warn("partial-view mode with a viewpoint at the origin")
		}
		if meshFile != "" {
			if err := objectModel.ReadMeshFromOFF(meshFile); err != nil {
				return err
			}
		} else if err := objectModel.BuildMesh(); err != nil {
			return errors.Wrap(err, "approximating object mesh")
		}
		useNormals := objectModel.KernelType() == kernels.TypeR3XS2P
		if err := objectModel.BuildPartialViewCache(e.meshTol, useNormals, e.logger); err != nil {
			return err
		}
	}

	e.objectModel = objectModel
	e.sceneModel = sceneModel
	e.viewpoint = viewpoint
	e.loaded = true
	return nil
}

// LoadFiles reads the object, scene and optional viewpoint pose from files
// and then behaves like Load. The viewpoint file is required in partial-view
// mode.
func (e *Estimator) LoadFiles(objectFn, sceneFn, meshFn, viewpointFn string, light, computeNormals bool) error {
	defaults := kernels.ObservationDefaults{
		LocH: e.cfg.ObservationLocationStdev,
		OriH: e.cfg.ObservationOrientationStdev,
	}
	object, err := kernels.ReadObservations(objectFn, defaults, e.logger)
	if err != nil {
		return err
	}
	scene, err := kernels.ReadObservations(sceneFn, defaults, e.logger)
	if err != nil {
		return err
	}
	viewpoint := r3.Vector{}
	if e.partialView {
		if viewpointFn == "" {
			return errors.New("partial-view mode requires a viewpoint")
		}
		vp, err := kernels.ReadPose(viewpointFn)
		if err != nil {
			return err
		}
		viewpoint = vp.Loc()
	}
	return e.Load(object, scene, meshFn, viewpoint, light, computeNormals)
}

func (e *Estimator) withNormals(c *kernels.Collection) (*kernels.Collection, error) {
	if err := c.BuildKdTree(); err != nil {
		return nil, err
	}
	return c.ComputeSurfaceNormals(e.cfg.KDEKthNearestNeighbor, e.logger)
}

// subsample draws size kernels by weighted systematic sampling.
func subsample(c *kernels.Collection, size int, seed int64) (*kernels.Collection, error) {
	if err := c.ComputeKernelStatistics(); err != nil {
		return nil, err
	}
	rng := utils.NewRand(seed)
	it, err := c.SampleBegin(size, rng)
	if err != nil {
		return nil, err
	}
	out := kernels.NewCollection()
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		if err := out.Add(k.Clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ModelToSceneTransformation runs the chains and returns the transform
// taking the object model into the scene frame, weighted by its matching
// score. With a ground-truth pose, each chain's result is compared against
// it within the ground truth's bandwidth tolerances and a per-chain report
// is logged. The context is polled between chain launches; inference has no
// other cancellation points.
func (e *Estimator) ModelToSceneTransformation(ctx context.Context, gt *kernels.SE3) (*kernels.SE3, error) {
	if !e.loaded {
		return nil, errors.New("estimator has not been loaded")
	}

	n := e.n
	if n <= 0 {
		n = e.objectModel.Size()
		if n > maxModelPoints {
			e.logger.Warnf(
				"object model has %d points; only %d will be used at each inference loop",
				e.objectModel.Size(), maxModelPoints)
			n = maxModelPoints
		}
	}

	poses, err := e.runChains(ctx, n)
	if err != nil {
		return nil, err
	}
	if len(poses) == 0 {
		return nil, errors.New("no chain produced a pose")
	}

	// Highest weight first; equal weights keep chain order.
	sortPosesByWeight(poses)

	if gt != nil {
		e.reportAgainstGroundTruth(poses, gt)
	}

	best := poses[0]
	score, err := e.FindMatchingScore(best)
	if err != nil {
		return nil, err
	}
	best.SetWeight(score)
	return best, nil
}

func (e *Estimator) reportAgainstGroundTruth(poses []*kernels.SE3, gt *kernels.SE3) int {
	success := 0
	scores := make(stats.Float64Data, 0, len(poses))
	for _, p := range poses {
		dLoc, dOri := p.DistanceTo(gt)
		ok := dLoc < gt.LocH() && dOri < gt.OriH()
		if ok {
			success++
		}
		status := "failure"
		if ok {
			status = "success"
		}
		e.logger.Infof("matching score: %g, distance to GT: %g %g, %s", p.Weight(), dLoc, dOri, status)
		scores = append(scores, p.Weight())
	}
	meanScore, err := scores.Mean()
	if err == nil {
		e.logger.Infof("chain score mean: %g", meanScore)
	}
	e.logger.Infof("number of successful chains: %d out of %d", success, len(poses))
	return success
}

// FindMatchingScore evaluates how well the object explains the scene under
// the given pose. In partial-view mode only points visible from the
// viewpoint contribute and the sum is normalized by visibleCount^0.7; a
// pose failing the integrand factor's Test scores 0.
func (e *Estimator) FindMatchingScore(pose *kernels.SE3) (float64, error) {
	if !e.loaded {
		return 0, errors.New("estimator has not been loaded")
	}
	factor := 1.0
	if e.cif != nil {
		factor = e.cif.Factor(pose)
	}

	if !e.partialView {
		// TODO(pose scoring): the symmetric variant
		// sqrt(w1/|object| * w2/|object|), with w2 evaluating the scene
		// against the transformed object, is a candidate replacement for
		// this one-directional mean.
		w1 := 0.0
		for i := 0; i < e.objectModel.Size(); i++ {
			v, err := e.sceneModel.EvaluationAt(e.objectModel.At(i).TransformedWith(pose), e.evaluationStrategy)
			if err != nil {
				return 0, err
			}
			w1 += v
		}
		return w1 / float64(e.objectModel.Size()) * factor, nil
	}

	visible, err := e.objectModel.PartialView(e.viewpointInFrame(pose), e.meshTol, false, true)
	if err != nil {
		return 0, err
	}
	if len(visible) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, i := range visible {
		v, err := e.sceneModel.EvaluationAt(e.objectModel.At(i).TransformedWith(pose), e.evaluationStrategy)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	score := sum / math.Pow(float64(len(visible)), 0.7) * factor
	if e.cif != nil && !e.cif.Test(pose) {
		score = 0
	}
	return score, nil
}

// viewpointInFrame maps the scene-frame viewpoint into the object frame
// under the candidate pose.
func (e *Estimator) viewpointInFrame(t *kernels.SE3) r3.Vector {
	inv := kernels.NewSE3Identity().TransformationFrom(t)
	vp := kernels.NewR3(e.viewpoint)
	return vp.TransformedWith(inv).Loc()
}

// WriteAlignedModel writes the object model transformed by the pose as a PLY
// cloud. In partial-view mode, points visible from the viewpoint are tagged
// blue.
func (e *Estimator) WriteAlignedModel(fn string, pose *kernels.SE3) error {
	if !e.loaded {
		return errors.New("estimator has not been loaded")
	}
	aligned := e.objectModel.Clone()
	if e.partialView {
		vp := e.viewpointInFrame(pose)
		for i := 0; i < aligned.Size(); i++ {
			visible, err := e.objectModel.IsVisibleFrom(e.objectModel.At(i), vp, e.meshTol)
			if err != nil {
				return err
			}
			if visible {
				aligned.At(i).SetDescriptor(&kernels.ColorDescriptor{
					Color: color.NRGBA{B: 255, A: 255},
				})
			}
		}
	}
	aligned.Transform(pose)
	return kernels.WritePLY(fn, aligned)
}
