package cluster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/tracklet.hierarchy/internal/tracklet"
)

// ProductKernel fuses the channels into one similarity block between the
// primary and secondary rows. For every channel in tracklet.ChannelOrder it
// computes Euclidean distances, a bandwidth from the median non-zero
// distance, and multiplies exp(-d^2/(2*median)) into the result.
//
// When medians is non-nil it supplies the per-channel medians (in channel
// order) instead of deriving them from this block. The medians actually
// used are returned so the cross block can reuse the in-sample ones. A
// NaN or non-positive median disables its channel.
func ProductKernel(ch tracklet.Channels, primary, secondary []int, medians []float64) (*mat.Dense, []float64) {
	used := make([]float64, len(tracklet.ChannelOrder))
	if len(primary) == 0 || len(secondary) == 0 {
		copy(used, medians)
		return &mat.Dense{}, used
	}
	k := mat.NewDense(len(primary), len(secondary), nil)
	for i := range primary {
		for j := range secondary {
			k.Set(i, j, 1)
		}
	}

	for c, name := range tracklet.ChannelOrder {
		feat, ok := ch[name]
		if !ok {
			used[c] = math.NaN()
			continue
		}
		dist := pairwiseDistances(feat, primary, secondary)

		var med float64
		if medians != nil && c < len(medians) {
			med = medians[c]
		} else {
			med = nonZeroMedian(dist)
		}
		used[c] = med

		if math.IsNaN(med) || med <= 0 {
			continue
		}
		gamma := 1 / (2 * med)
		for i := range primary {
			for j := range secondary {
				d := dist[i*len(secondary)+j]
				k.Set(i, j, k.At(i, j)*math.Exp(-gamma*d*d))
			}
		}
	}

	for i := range primary {
		for j := range secondary {
			if k.At(i, j) < math.SmallestNonzeroFloat64 {
				k.Set(i, j, math.SmallestNonzeroFloat64)
			}
		}
	}
	return k, used
}

// pairwiseDistances returns the row-major primary x secondary distance
// table for one channel.
func pairwiseDistances(feat *mat.Dense, primary, secondary []int) []float64 {
	out := make([]float64, len(primary)*len(secondary))
	for i, a := range primary {
		ra := feat.RawRowView(a)
		for j, b := range secondary {
			out[i*len(secondary)+j] = floats.Distance(ra, feat.RawRowView(b), 2)
		}
	}
	return out
}

// nonZeroMedian returns the median of the strictly positive finite values,
// averaging the two middle values for an even count. NaN when there are
// none.
func nonZeroMedian(values []float64) float64 {
	var vals []float64
	for _, v := range values {
		if v > 0 && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	return median(vals)
}

func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Augment stacks the in-sample block a (n x n) and the cross block b
// (n x m) side by side into the n x (n+m) matrix the embedder consumes.
func Augment(a, b *mat.Dense) *mat.Dense {
	if b == nil || b.IsEmpty() {
		return mat.DenseCopyOf(a)
	}
	var s mat.Dense
	s.Augment(a, b)
	return &s
}
