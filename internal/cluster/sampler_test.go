package cluster

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPoints(rng *rand.Rand, n int) [][2]float64 {
	pts := make([][2]float64, n)
	for i := range pts {
		pts[i] = [2]float64{rng.Float64(), rng.Float64()}
	}
	return pts
}

func TestStratifiedSample_CoversEveryIndexOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	points := randomPoints(rng, 200)
	// Boundary and out-of-range points must still land in a cell.
	points = append(points, [2]float64{1, 1}, [2]float64{0, 1}, [2]float64{1.2, -0.1}, [2]float64{0, 0})

	for _, p := range []float64{0, 0.001, 0.01, 0.1, 0.5, 1, 10} {
		for _, nx := range []int{1, 2, 3, 7} {
			for _, ny := range []int{1, 3, 5} {
				part := StratifiedSample(points, nx, ny, p, rng)

				all := part.Order()
				require.Len(t, all, len(points), "p=%g nx=%d ny=%d", p, nx, ny)
				sort.Ints(all)
				for i, v := range all {
					require.Equal(t, i, v, "p=%g nx=%d ny=%d", p, nx, ny)
				}
				if p >= 1 {
					assert.Empty(t, part.Out)
				}
			}
		}
	}
}

func TestStratifiedSample_PerCellCount(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	// 9 points in one cell and 3 in another, 2x2 grid.
	var points [][2]float64
	for i := 0; i < 9; i++ {
		points = append(points, [2]float64{0.1, 0.1})
	}
	for i := 0; i < 3; i++ {
		points = append(points, [2]float64{0.9, 0.9})
	}

	// ceil(9*0.5/4)=2, ceil(3*0.5/4)=1
	part := StratifiedSample(points, 2, 2, 0.5, rng)
	assert.Len(t, part.In, 3)
	assert.Len(t, part.Out, 9)

	// 12 * (1/3) / 4 is exactly one point once float error is absorbed.
	var single [][2]float64
	for i := 0; i < 12; i++ {
		single = append(single, [2]float64{0.2, 0.7})
	}
	part = StratifiedSample(single, 2, 2, 1.0/3.0, rng)
	assert.Len(t, part.In, 1)
	assert.Len(t, part.Out, 11)
}

func TestSampleWithEscalation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var points [][2]float64
	for i := 0; i < 10; i++ {
		points = append(points, [2]float64{0.1, 0.1}, [2]float64{0.9, 0.9})
	}

	opts := SampleOptions{NX: 3, NY: 3, Probability: 0.01, MinInSample: 3}
	part, p, err := SampleWithEscalation(points, opts, rng)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(part.In), 3)
	assert.GreaterOrEqual(t, p, 0.1, "sampling probability must have escalated")
	assert.Equal(t, len(points), part.Len())

	_, _, err = SampleWithEscalation(points[:2], opts, rng)
	assert.ErrorIs(t, err, ErrTooFewTracklets)
}
