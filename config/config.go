// Package config holds the immutable runtime configuration of the pose
// estimation library. A Config is built once, from defaults or from NUKLEI_*
// environment variables, and passed by value into the estimator.
package config

import (
	"os"

	"github.com/spf13/cast"
)

// Config collects the tunables recognized by the library. Zero values are
// not meaningful; construct with Default or FromEnv.
type Config struct {
	// RotationStdev is the default angular bandwidth for orientation-bearing
	// observations, in radians. It is loaded and kept here only; no component
	// of the library reads it (observation files use
	// ObservationOrientationStdev).
	RotationStdev float64
	// ObservationOrientationStdev is the angular bandwidth assigned to
	// kernels read from observation files.
	ObservationOrientationStdev float64
	// ObservationLocationStdev is the positional bandwidth assigned to
	// kernels read from observation files.
	ObservationLocationStdev float64

	// WhiteNoisePower is the density floor added to KDE values to stabilize
	// log-likelihoods.
	WhiteNoisePower float64
	// KDEKthNearestNeighbor is the neighborhood size for k-NN based
	// estimation, e.g. surface normal fitting.
	KDEKthNearestNeighbor int

	// NThreads bounds the number of concurrently running chains; zero picks
	// the number of CPUs.
	NThreads int

	// MCMCNBP and MCMCNBPNChains are recognized for compatibility with the
	// nonparametric-belief-propagation experiments; the pose estimator does
	// not consume them.
	MCMCNBP        bool
	MCMCNBPNChains int

	// LocStdevMin and OriStdevMin record the bandwidth floors of density
	// evaluation. Kernel evaluation clamps against the fixed constants
	// kernels.LocStdevMin and kernels.OriStdevMin, which hold the same
	// default values; changing these fields does not change the clamping.
	LocStdevMin float64
	OriStdevMin float64

	// NormalizeDensities records whether kernels are properly normalized
	// rather than bare exponentials. Kernel evaluation always normalizes;
	// this field does not switch it off.
	NormalizeDensities bool
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		RotationStdev:               0.2,
		ObservationOrientationStdev: 0.4,
		ObservationLocationStdev:    12,
		WhiteNoisePower:             1e-4,
		KDEKthNearestNeighbor:       8,
		NThreads:                    0,
		MCMCNBP:                     false,
		MCMCNBPNChains:              2,
		LocStdevMin:                 0.1,
		OriStdevMin:                 0.04,
		NormalizeDensities:          true,
	}
}

// FromEnv returns the default configuration overridden by any NUKLEI_*
// environment variables. Call once at startup; the result never changes
// afterwards.
func FromEnv() Config {
	c := Default()
	envFloat("NUKLEI_ROTATION_STDEV", &c.RotationStdev)
	envFloat("NUKLEI_OBSERVATION_ORIENTATION_STDEV", &c.ObservationOrientationStdev)
	envFloat("NUKLEI_OBSERVATION_LOCATION_STDEV", &c.ObservationLocationStdev)
	envFloat("NUKLEI_WHITE_NOISE_POWER", &c.WhiteNoisePower)
	envInt("NUKLEI_KDE_KTH_NEAREST_NEIGHBOR", &c.KDEKthNearestNeighbor)
	envInt("NUKLEI_N_THREADS", &c.NThreads)
	envBool("NUKLEI_MCMC_NBP", &c.MCMCNBP)
	envInt("NUKLEI_MCMC_NBP_N_CHAINS", &c.MCMCNBPNChains)
	envFloat("NUKLEI_LOC_STDEV_MIN", &c.LocStdevMin)
	envFloat("NUKLEI_ORI_STDEV_MIN", &c.OriStdevMin)
	envBool("NUKLEI_NORMALIZE_DENSITIES", &c.NormalizeDensities)
	return c
}

func envFloat(name string, dst *float64) {
	if v, ok := os.LookupEnv(name); ok {
		if parsed, err := cast.ToFloat64E(v); err == nil {
			*dst = parsed
		}
	}
}

func envInt(name string, dst *int) {
	if v, ok := os.LookupEnv(name); ok {
		if parsed, err := cast.ToIntE(v); err == nil {
			*dst = parsed
		}
	}
}

func envBool(name string, dst *bool) {
	if v, ok := os.LookupEnv(name); ok {
		if parsed, err := cast.ToBoolE(v); err == nil {
			*dst = parsed
		}
	}
}
