package spatialmath

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// EigenSym3 decomposes a symmetric 3x3 matrix into eigenvalues sorted by
// descending magnitude and the matching eigenvector columns. The returned
// frame is right-handed; the third column is flipped when the cross-product
// test fails.
func EigenSym3(m *mat.SymDense) ([3]float64, [3]r3.Vector, error) {
	var vals [3]float64
	var vecs [3]r3.Vector
	if m.SymmetricDim() != 3 {
		return vals, vecs, errors.Errorf("expected a 3x3 matrix, got %dx%d", m.SymmetricDim(), m.SymmetricDim())
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(m, true); !ok {
		return vals, vecs, errors.New("eigendecomposition failed to converge")
	}
	raw := eig.Values(nil)
	var rawVecs mat.Dense
	eig.VectorsTo(&rawVecs)

	order := []int{0, 1, 2}
	sort.SliceStable(order, func(i, j int) bool {
		return math.Abs(raw[order[i]]) > math.Abs(raw[order[j]])
	})
	for i, o := range order {
		vals[i] = raw[o]
		vecs[i] = r3.Vector{X: rawVecs.At(0, o), Y: rawVecs.At(1, o), Z: rawVecs.At(2, o)}
	}

	if vecs[0].Cross(vecs[1]).Dot(vecs[2]) < 0 {
		vecs[2] = vecs[2].Mul(-1)
	}
	return vals, vecs, nil
}

// Determinant returns the determinant of a square dense matrix via LU
// factorization.
func Determinant(m mat.Matrix) (float64, error) {
	r, c := m.Dims()
	if r != c {
		return 0, errors.Errorf("determinant needs a square matrix, got %dx%d", r, c)
	}
	var lu mat.LU
	lu.Factorize(m)
	return lu.Det(), nil
}

// Inverse returns the inverse of a square dense matrix via LU factorization.
// Singular matrices yield an error.
func Inverse(m mat.Matrix) (*mat.Dense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, errors.Errorf("inverse needs a square matrix, got %dx%d", r, c)
	}
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, errors.Wrap(err, "matrix is singular")
	}
	return &inv, nil
}
