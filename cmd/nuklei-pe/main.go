// Command nuklei-pe estimates the 6-DoF pose of an object point cloud
// within a scene point cloud.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nuklei/nuklei-go/config"
	"github.com/nuklei/nuklei-go/kernels"
	"github.com/nuklei/nuklei-go/pose"
)

type options struct {
	locH        float64
	oriH        float64
	nChains     int
	n           int
	partial     bool
	light       bool
	normals     bool
	seed        int64
	quiet       bool
	mesh        string
	viewpoint   string
	groundTruth string
	alignedOut  string
	bestTransfo string
	meshTol     float64
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "nuklei-pe OBJECT SCENE",
		Short: "KDE-based 6-DoF pose estimation of a rigid object in a scene",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], opts)
		},
		SilenceUsage: true,
	}

	flags := cmd.Flags()
	flags.Float64VarP(&opts.locH, "loc-h", "l", -1, "positional KDE bandwidth; non-positive derives it from the object size")
	flags.Float64Var(&opts.oriH, "ori-h", 0.1, "angular KDE bandwidth (radians)")
	flags.IntVarP(&opts.nChains, "chains", "c", 0, "number of MCMC chains (0 = default)")
	flags.IntVarP(&opts.n, "points", "n", 0, "model points per chain iteration (0 = auto)")
	flags.BoolVar(&opts.partial, "partial", false, "enable partial-view matching")
	flags.BoolVar(&opts.light, "light", false, "subsample oversized scenes")
	flags.BoolVar(&opts.normals, "normals", false, "compute surface normals on position-only clouds")
	flags.Int64Var(&opts.seed, "seed", 0, "master RNG seed")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "production logging only")
	flags.StringVar(&opts.mesh, "mesh", "", "OFF mesh for partial-view culling")
	flags.StringVar(&opts.viewpoint, "viewpoint", "", "viewpoint pose file (required with --partial)")
	flags.StringVar(&opts.groundTruth, "ground-truth-transfo", "", "pose file to score chains against")
	flags.StringVarP(&opts.alignedOut, "aligned", "o", "", "write the aligned object model to this PLY file")
	flags.StringVar(&opts.bestTransfo, "best-transfo", "", "write the best pose to this file")
	flags.Float64Var(&opts.meshTol, "point-to-mesh-visibility-dist", 4, "visibility distance tolerance to the mesh")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(objectFn, sceneFn string, opts *options) error {
	var logger golog.Logger
	if opts.quiet {
		logger = zap.Must(zap.NewProduction()).Sugar()
	} else {
		logger = golog.NewDevelopmentLogger("nuklei-pe")
	}

	cfg := config.FromEnv()
	estimator := pose.New(cfg, opts.locH, opts.oriH, opts.nChains, opts.n, nil, opts.partial, logger)
	estimator.SetSeed(opts.seed)
	estimator.SetMeshTol(opts.meshTol)

	if err := estimator.LoadFiles(objectFn, sceneFn, opts.mesh, opts.viewpoint, opts.light, opts.normals); err != nil {
		return err
	}

	var gt *kernels.SE3
	if opts.groundTruth != "" {
		var err error
		if gt, err = kernels.ReadPose(opts.groundTruth); err != nil {
			return err
		}
	}

	best, err := estimator.ModelToSceneTransformation(context.Background(), gt)
	if err != nil {
		return err
	}

	loc, ori := best.Loc(), best.Ori()
	fmt.Printf("pose: loc [%g %g %g] ori [%g %g %g %g] score %g\n",
		loc.X, loc.Y, loc.Z, ori.Real, ori.Imag, ori.Jmag, ori.Kmag, best.Weight())

	if opts.bestTransfo != "" {
		if err := kernels.WritePose(opts.bestTransfo, best); err != nil {
			return err
		}
	}
	if opts.alignedOut != "" {
		if err := estimator.WriteAlignedModel(opts.alignedOut, best); err != nil {
			return err
		}
	}
	return nil
}
