package tracklet

import (
	"math"
	"math/rand"
)

// Blob describes one group of similar tracklets for synthetic videos: they
// end near (X, Y), move with velocity (VX, VY) per frame and start at Frame.
type Blob struct {
	X, Y   float64
	VX, VY float64
	Frame  float64
}

// Synthesize builds a set with perBlob tracklets per blob, each with the
// given number of points. Positions are perturbed by jitter and clamped to
// [0, 1]. Tracklets are emitted blob by blob, so tracklet i belongs to blob
// i / perBlob.
func Synthesize(rng *rand.Rand, blobs []Blob, perBlob, points int, jitter float64) *Set {
	maxFrame := 0.0
	for _, b := range blobs {
		maxFrame = math.Max(maxFrame, b.Frame+float64(points))
	}

	set := &Set{}
	for _, b := range blobs {
		for k := 0; k < perBlob; k++ {
			endX := clamp01(b.X + jitter*rng.NormFloat64())
			endY := clamp01(b.Y + jitter*rng.NormFloat64())
			frame := math.Max(0, math.Round(b.Frame+2*rng.Float64()))

			trj := make([]float64, 2*points)
			for p := 0; p < points; p++ {
				back := float64(points - 1 - p)
				trj[2*p] = clamp01(endX - back*b.VX + 0.1*jitter*rng.NormFloat64())
				trj[2*p+1] = clamp01(endY - back*b.VY + 0.1*jitter*rng.NormFloat64())
			}
			trj[2*(points-1)] = endX
			trj[2*(points-1)+1] = endY

			obj := make([]float64, MinObjectCol)
			obj[ColTime] = frame + float64(points-1)
			obj[ColEndX] = endX
			obj[ColEndY] = endY
			if maxFrame > 0 {
				obj[ColEndT] = obj[ColTime] / maxFrame
			}

			set.Objects = append(set.Objects, obj)
			set.Trajectories = append(set.Trajectories, trj)
		}
	}
	return set
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
