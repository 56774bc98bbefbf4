package kernels

import "github.com/pkg/errors"

var (
	// ErrEmptyCollection is returned when an operation needs at least one
	// kernel.
	ErrEmptyCollection = errors.New("empty kernel collection")

	// ErrDomainMismatch is returned when kernels from different manifolds are
	// mixed within one collection or one evaluation.
	ErrDomainMismatch = errors.New("kernels are not defined on the same domain")

	// ErrUnsupportedOperation is returned when a kernel variant lacks a
	// capability, e.g. an SE(3) projection of a position-only kernel.
	ErrUnsupportedOperation = errors.New("operation not supported on this kernel domain")

	// ErrStatisticsRequired is returned when an operation needs
	// ComputeKernelStatistics to have run on the current contents.
	ErrStatisticsRequired = errors.New("kernel statistics have not been computed")

	// ErrKDTreeRequired is returned by evaluation strategies that need a k-d
	// tree attached to the collection.
	ErrKDTreeRequired = errors.New("evaluation strategy requires a k-d tree, call BuildKdTree first")

	// ErrMeshRequired is returned by visibility queries on a collection with
	// no attached mesh.
	ErrMeshRequired = errors.New("no mesh attached to the collection")

	// ErrNonPositiveWeight is returned when normalizing a collection whose
	// total weight is not positive.
	ErrNonPositiveWeight = errors.New("total weight is not positive")
)
