package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultEigenTolerance is the relative eigenvalue magnitude below which a
// component is treated as numerically zero.
const DefaultEigenTolerance = 1e-9

// Nystrom computes a normalised-cut spectral embedding from an n x N
// similarity matrix whose first n columns are the in-sample block A and
// whose remaining columns are the in-to-out block B (Fowlkes et al.,
// "Spectral grouping using the Nystrom method").
//
// The returned matrix has one row per column of the input, in the same
// order, and min(Dims, rank) columns. Column j is the j-th leading
// eigenvector weighted by its eigenvalue ratio to the leading one, so noise
// components carry little weight. Every row is then scaled to unit length:
// when groups are nearly disconnected the leading eigenvalues are close to
// degenerate and any single eigenvector may vanish on a whole group, but
// the row directions still tell the groups apart.
type Nystrom struct {
	Dims int
	Tol  float64
}

// Embed implements the embedding step. ridge is added to the diagonal of A
// before any decomposition.
func (ny Nystrom) Embed(s *mat.Dense, ridge float64) (*mat.Dense, error) {
	n, cols := s.Dims()
	if n < 2 || cols < n {
		return nil, &Failure{Op: "nystrom", Ridge: ridge, Err: fmt.Errorf("%w: similarity is %dx%d", ErrInvalidValue, n, cols)}
	}
	if !allFinite(s) {
		return nil, &Failure{Op: "nystrom", Ridge: ridge, Err: fmt.Errorf("%w: non-finite similarity", ErrInvalidValue)}
	}
	tol := ny.Tol
	if tol <= 0 {
		tol = DefaultEigenTolerance
	}
	m := cols - n

	a := symmetrise(s.Slice(0, n, 0, n), ridge)
	var b *mat.Dense
	if m > 0 {
		b = mat.DenseCopyOf(s.Slice(0, n, n, cols))
	}

	// Degrees of the approximated full matrix.
	d1 := rowSums(a)
	var d2 []float64
	if m > 0 {
		vals, vecs, err := decompose(a)
		if err != nil {
			return nil, &Failure{Op: "degree inverse", Ridge: ridge, Err: err}
		}
		if err := checkDefinite(vals, tol); err != nil {
			return nil, &Failure{Op: "degree inverse", Ridge: ridge, Err: err}
		}
		aPinv := spectralFunc(vals, vecs, tol, func(l float64) float64 { return 1 / l })

		b1 := mat.NewVecDense(n, rowSums(b))
		for i := range d1 {
			d1[i] += b1.AtVec(i)
		}
		var ab1, bab1 mat.VecDense
		ab1.MulVec(aPinv, b1)
		bab1.MulVec(b.T(), &ab1)
		d2 = colSums(b)
		for j := range d2 {
			d2[j] += bab1.AtVec(j)
		}
	}
	if err := checkDegrees(d1); err != nil {
		return nil, &Failure{Op: "degrees", Ridge: ridge, Err: err}
	}
	if err := checkDegrees(d2); err != nil {
		return nil, &Failure{Op: "degrees", Ridge: ridge, Err: err}
	}

	// Normalise both blocks by D^-1/2.
	aN := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aN.Set(i, j, a.At(i, j)/math.Sqrt(d1[i]*d1[j]))
		}
	}
	var bN *mat.Dense
	if m > 0 {
		bN = mat.NewDense(n, m, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				bN.Set(i, j, b.At(i, j)/math.Sqrt(d1[i]*d2[j]))
			}
		}
	}

	vals, vecs, err := decompose(symmetrise(aN, 0))
	if err != nil {
		return nil, &Failure{Op: "inverse square root", Ridge: ridge, Err: err}
	}
	if err := checkDefinite(vals, tol); err != nil {
		return nil, &Failure{Op: "inverse square root", Ridge: ridge, Err: err}
	}
	asi := spectralFunc(vals, vecs, tol, func(l float64) float64 { return 1 / math.Sqrt(l) })

	// Q = A + A^-1/2 B B^T A^-1/2; its eigenvectors orthogonalise the
	// extended eigenvectors.
	q := mat.DenseCopyOf(aN)
	if m > 0 {
		var bbt, left, right mat.Dense
		bbt.Mul(bN, bN.T())
		left.Mul(asi, &bbt)
		right.Mul(&left, asi)
		q.Add(q, &right)
	}
	qVals, qVecs, err := decompose(symmetrise(q, 0))
	if err != nil {
		return nil, &Failure{Op: "orthogonalisation", Ridge: ridge, Err: err}
	}

	// Leading components, descending.
	lead := qVals[len(qVals)-1]
	if !(lead > 0) {
		return nil, &Failure{Op: "orthogonalisation", Ridge: ridge, Err: fmt.Errorf("%w: leading eigenvalue %g", ErrNumerical, lead)}
	}
	var keep []int
	for i := len(qVals) - 1; i >= 0; i-- {
		if qVals[i] > tol*lead {
			keep = append(keep, i)
		}
	}
	if len(keep) < 2 {
		return nil, &Failure{Op: "orthogonalisation", Ridge: ridge, Err: fmt.Errorf("%w: rank %d too low to embed", ErrNumerical, len(keep))}
	}

	// V = [A; B^T] A^-1/2 U L^-1/2
	k := len(keep)
	scaled := mat.NewDense(n, k, nil)
	for c, idx := range keep {
		f := 1 / math.Sqrt(qVals[idx])
		for r := 0; r < n; r++ {
			scaled.Set(r, c, qVecs.At(r, idx)*f)
		}
	}
	var proj mat.Dense
	proj.Mul(asi, scaled)

	var stacked mat.Dense
	if m > 0 {
		stacked.Stack(aN, bN.T())
	} else {
		stacked.CloneFrom(aN)
	}
	var v mat.Dense
	v.Mul(&stacked, &proj)

	dims := ny.Dims
	if dims <= 0 || dims > k {
		dims = k
	}
	out := mat.NewDense(cols, dims, nil)
	for r := 0; r < cols; r++ {
		row := out.RawRowView(r)
		for j := 0; j < dims; j++ {
			row[j] = qVals[keep[j]] / lead * v.At(r, j)
		}
		norm := floats.Norm(row, 2)
		if !(norm > 0) || math.IsInf(norm, 0) {
			return nil, &Failure{Op: "embedding", Ridge: ridge, Err: fmt.Errorf("%w: row %d has norm %g", ErrInvalidValue, r, norm)}
		}
		floats.Scale(1/norm, row)
	}
	if !allFinite(out) {
		return nil, &Failure{Op: "embedding", Ridge: ridge, Err: fmt.Errorf("%w: non-finite embedding", ErrInvalidValue)}
	}
	return out, nil
}

// decompose returns ascending eigenvalues and the matching eigenvectors.
func decompose(a *mat.SymDense) ([]float64, *mat.Dense, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(a, true); !ok {
		return nil, nil, fmt.Errorf("%w: symmetric eigendecomposition did not converge", ErrNumerical)
	}
	vals := eig.Values(nil)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%w: non-finite eigenvalue", ErrInvalidValue)
		}
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	return vals, &vecs, nil
}

// checkDefinite rejects spectra with a non-positive maximum or with a
// negative eigenvalue larger in magnitude than tol times the maximum.
func checkDefinite(vals []float64, tol float64) error {
	maxVal := vals[len(vals)-1]
	if !(maxVal > 0) {
		return fmt.Errorf("%w: largest eigenvalue %g", ErrIndefinite, maxVal)
	}
	if vals[0] < -tol*maxVal {
		return fmt.Errorf("%w: eigenvalue %g", ErrIndefinite, vals[0])
	}
	return nil
}

// spectralFunc returns U f(L) U^T, skipping components whose eigenvalue is
// not above tol times the largest one (pseudo-inverse semantics).
func spectralFunc(vals []float64, vecs *mat.Dense, tol float64, f func(float64) float64) *mat.Dense {
	n := len(vals)
	cut := tol * vals[n-1]
	diag := make([]float64, n)
	for i, l := range vals {
		if l > cut {
			diag[i] = f(l)
		}
	}
	var tmp, out mat.Dense
	tmp.Mul(vecs, mat.NewDiagDense(n, diag))
	out.Mul(&tmp, vecs.T())
	return &out
}

func symmetrise(m mat.Matrix, ridge float64) *mat.SymDense {
	n, _ := m.Dims()
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data[i*n+j] = (m.At(i, j) + m.At(j, i)) / 2
		}
		data[i*n+i] += ridge
	}
	return mat.NewSymDense(n, data)
}

func rowSums(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i] += m.At(i, j)
		}
	}
	return out
}

func colSums(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[j] += m.At(i, j)
		}
	}
	return out
}

func checkDegrees(d []float64) error {
	for i, v := range d {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: degree %g at %d", ErrInvalidValue, v, i)
		}
	}
	return nil
}

func allFinite(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
