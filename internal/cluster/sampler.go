package cluster

import (
	"fmt"
	"math"
	"math/rand"
)

// Partition splits tracklet indices into an in-sample and an out-of-sample
// set. The two are disjoint and together cover 0..N-1.
type Partition struct {
	In  []int
	Out []int
}

// Len returns the total number of indices.
func (p Partition) Len() int { return len(p.In) + len(p.Out) }

// Order returns In followed by Out, the column order of the stacked
// similarity matrix.
func (p Partition) Order() []int {
	out := make([]int, 0, p.Len())
	out = append(out, p.In...)
	return append(out, p.Out...)
}

// ceilEpsilon absorbs float error in m*p/cells so that exact products such
// as 3*(1/3) do not round up to an extra point.
const ceilEpsilon = 1e-9

// StratifiedSample partitions points on an nx by ny grid over the unit
// square and draws, in every cell, ceil(m*p/(nx*ny)) members at random as
// in-sample. p >= 1 places every point in-sample.
func StratifiedSample(points [][2]float64, nx, ny int, p float64, rng *rand.Rand) Partition {
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	cells := make([][]int, nx*ny)
	for i, pt := range points {
		cx := clampCell(pt[0], nx)
		cy := clampCell(pt[1], ny)
		cells[cy*nx+cx] = append(cells[cy*nx+cx], i)
	}

	var part Partition
	for _, members := range cells {
		m := len(members)
		if m == 0 {
			continue
		}
		take := m
		if p < 1 {
			take = int(math.Ceil(float64(m)*p/float64(nx*ny) - ceilEpsilon))
			if take < 0 {
				take = 0
			}
			if take > m {
				take = m
			}
		}
		shuffled := append([]int(nil), members...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		part.In = append(part.In, shuffled[:take]...)
		part.Out = append(part.Out, shuffled[take:]...)
	}
	return part
}

func clampCell(v float64, n int) int {
	if math.IsNaN(v) {
		return 0
	}
	c := int(math.Floor(v * float64(n)))
	if c < 0 {
		return 0
	}
	if c >= n {
		return n - 1
	}
	return c
}

// SampleOptions controls SampleWithEscalation.
type SampleOptions struct {
	NX, NY      int
	Probability float64
	MinInSample int
}

// SampleWithEscalation draws a stratified sample and, while fewer than
// MinInSample points are in-sample, retries with a tenfold larger
// probability. It returns the partition and the probability that produced
// it.
func SampleWithEscalation(points [][2]float64, opts SampleOptions, rng *rand.Rand) (Partition, float64, error) {
	minIn := opts.MinInSample
	if minIn < 1 {
		minIn = 1
	}
	if len(points) < minIn {
		return Partition{}, 0, fmt.Errorf("%w: %d points, need %d", ErrTooFewTracklets, len(points), minIn)
	}
	p := opts.Probability
	if !(p > 0) {
		p = 1
	}
	for {
		part := StratifiedSample(points, opts.NX, opts.NY, p, rng)
		if len(part.In) >= minIn {
			return part, p, nil
		}
		if p >= 1 {
			return part, p, fmt.Errorf("%w: %d in-sample at full rate", ErrTooFewTracklets, len(part.In))
		}
		p *= 10
	}
}
