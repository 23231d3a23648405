package cluster

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Embedder computes a spectral embedding from an n x N similarity matrix
// whose first n columns are the in-sample block. The returned matrix has
// one row per similarity column in the same order.
type Embedder interface {
	Embed(similarity *mat.Dense, ridge float64) (*mat.Dense, error)
}

// Bipartitioner recursively splits an embedding into a binary tree and
// returns top-level 0/1 labels and the leaf code of every row.
type Bipartitioner interface {
	Bipartition(embedding *mat.Dense, positions [][]float64) (labels, intPaths []int, err error)
}

// RidgePolicy drives the regularisation retries of the embedding step.
// Each ridge value is tried TriesPerRidge times, every try on a freshly
// drawn sample; the ridge then grows by Factor while it stays at or below
// Max. Max equal to Initial with one try gives a single attempt.
type RidgePolicy struct {
	Initial       float64
	Factor        float64
	Max           float64
	TriesPerRidge int
}

// ridgeSlack keeps Initial*Factor^k that lands a rounding error above Max in
// the schedule.
const ridgeSlack = 1e-9

// ridgeDigits is the number of significant digits kept per ridge value.
const ridgeDigits = 12

// Schedule returns the ridge value of every step, one entry per ridge
// value (not per try).
func (p RidgePolicy) Schedule() []float64 {
	r := p.Initial
	out := []float64{r}
	if r <= 0 || p.Factor <= 1 {
		return out
	}
	limit := p.Max * (1 + ridgeSlack)
	for k := 1; ; k++ {
		next := roundRidge(p.Initial * math.Pow(p.Factor, float64(k)))
		if next > limit {
			return out
		}
		out = append(out, next)
	}
}

// roundRidge drops the rounding noise of repeated scaling, so that 1e-10
// escalated by 10 reads 1e-07 rather than 1.0000000000000001e-07.
func roundRidge(r float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(r, 'g', ridgeDigits, 64), 64)
	if err != nil {
		return r
	}
	return v
}

// Tries returns the number of tries per ridge value, at least one.
func (p RidgePolicy) Tries() int {
	if p.TriesPerRidge < 1 {
		return 1
	}
	return p.TriesPerRidge
}

// MaxAttempts returns the total number of embedding attempts before the
// fallback split is used.
func (p RidgePolicy) MaxAttempts() int {
	return len(p.Schedule()) * p.Tries()
}

// scatter reorders embedding rows given in part.Order() back into tracklet
// order.
func scatter(e *mat.Dense, part Partition) (*mat.Dense, error) {
	rows, cols := e.Dims()
	if rows != part.Len() {
		return nil, fmt.Errorf("embedding has %d rows for %d tracklets", rows, part.Len())
	}
	out := mat.NewDense(rows, cols, nil)
	for r, idx := range part.Order() {
		out.SetRow(idx, e.RawRowView(r))
	}
	return out, nil
}
