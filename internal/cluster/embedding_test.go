package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRidgePolicy_Schedule(t *testing.T) {
	tests := []struct {
		name   string
		policy RidgePolicy
		want   []float64
	}{
		{"default escalation", RidgePolicy{Initial: 1e-10, Factor: 10, Max: 1e-6, TriesPerRidge: 1}, []float64{1e-10, 1e-9, 1e-8, 1e-7, 1e-6}},
		{"single attempt", RidgePolicy{Initial: 1e-10, Factor: 10, Max: 1e-10, TriesPerRidge: 1}, []float64{1e-10}},
		{"zero ridge", RidgePolicy{Initial: 0, Factor: 10, Max: 1}, []float64{0}},
		{"factor two", RidgePolicy{Initial: 1, Factor: 2, Max: 5}, []float64{1, 2, 4}},
		{"non-unit mantissa", RidgePolicy{Initial: 3e-10, Factor: 10, Max: 1e-6}, []float64{3e-10, 3e-9, 3e-8, 3e-7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Exact: escalated ridges are stored in artifacts and the run
			// registry and must read as the decimal the policy describes.
			assert.Equal(t, tt.want, tt.policy.Schedule())
		})
	}

	p := RidgePolicy{Initial: 1e-10, Factor: 10, Max: 1e-6, TriesPerRidge: 3}
	assert.Equal(t, 15, p.MaxAttempts())
	assert.Equal(t, 1, RidgePolicy{}.Tries())
}

func TestScatter(t *testing.T) {
	part := Partition{In: []int{3, 0}, Out: []int{1, 2}}
	// Rows in order 3, 0, 1, 2.
	e := mat.NewDense(4, 1, []float64{30, 0, 10, 20})

	got, err := scatter(e, part)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10, 20, 30}, mat.Col(nil, 0, got))

	_, err = scatter(mat.NewDense(3, 1, nil), part)
	assert.Error(t, err)
}

func TestFallbackSplit(t *testing.T) {
	times := []float64{9, 0, 8, 1, 7, 2, 6, 3, 5, 4}
	labels, paths := FallbackSplit(times)

	early, late := 0, 0
	for i, tm := range times {
		if tm <= 4.5 {
			assert.Equal(t, 0, labels[i])
			assert.Equal(t, FallbackEarlyCode, paths[i])
			early++
		} else {
			assert.Equal(t, 1, labels[i])
			assert.Equal(t, FallbackLateCode, paths[i])
			late++
		}
	}
	assert.Equal(t, 5, early)
	assert.Equal(t, 5, late)

	// Ties at the median stay early.
	labels, _ = FallbackSplit([]float64{1, 1, 1, 2})
	assert.Equal(t, []int{0, 0, 0, 1}, labels)
}
