package artifact

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracklet.hierarchy/internal/cluster"
)

func sampleResult(t *testing.T) *cluster.Result {
	t.Helper()
	paths := []int{4, 5, 5, 6, 7, 7}
	tree, err := cluster.ReconstructTree(paths)
	require.NoError(t, err)
	return &cluster.Result{
		BestLabels: []int{0, 0, 0, 1, 1, 1},
		IntPaths:   paths,
		Tree:       tree,
		Ridge:      1e-9,
		Attempts:   2,
	}
}

func TestEncodeDecode(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := FromResult("video_001", sampleResult(t), created, "test")

	data, err := Encode(a)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}

	again, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again), "encoding must be byte-stable")

	assert.Contains(t, string(data), `"int_paths"`)
	assert.Contains(t, string(data), `"best_labels"`)
	assert.Equal(t, []int{4, 5, 6, 7}, got.Leaves)
}

func TestMembers(t *testing.T) {
	a := FromResult("v", sampleResult(t), time.Time{}, "")

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, a.Members(1))
	assert.Equal(t, []int{0, 1, 2}, a.Members(2))
	assert.Equal(t, []int{3, 4, 5}, a.Members(3))
	assert.Equal(t, []int{1, 2}, a.Members(5))
	assert.Empty(t, a.Members(8))

	assert.Equal(t, map[int]int{4: 1, 5: 2, 6: 1, 7: 2}, a.LeafSizes())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
	}{
		{"label count", func(a *Artifact) { a.BestLabels = a.BestLabels[:2] }},
		{"n_tracklets", func(a *Artifact) { a.NTracklets = 99 }},
		{"non binary label", func(a *Artifact) { a.BestLabels[0] = 2 }},
		{"path not a leaf", func(a *Artifact) { a.IntPaths[0] = 2 }},
		{"fallback without sentinel", func(a *Artifact) { a.Fallback = true }},
		{"sentinel without fallback", func(a *Artifact) { a.Ridge = FallbackRidge }},
		{"broken tree", func(a *Artifact) { delete(a.Tree, 3) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := FromResult("v", sampleResult(t), time.Time{}, "")
			require.NoError(t, a.Validate())
			tt.mutate(a)
			assert.ErrorIs(t, a.Validate(), ErrInvalid)
			_, err := Encode(a)
			assert.Error(t, err)
		})
	}
}

func TestFallbackArtifact(t *testing.T) {
	labels, paths := cluster.FallbackSplit([]float64{0, 1, 2, 3})
	tree, err := cluster.ReconstructTree(paths)
	require.NoError(t, err)
	a := FromResult("v", &cluster.Result{
		BestLabels: labels, IntPaths: paths, Tree: tree,
		Ridge: cluster.FallbackRidge, Fallback: true,
	}, time.Now(), "")

	data, err := Encode(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ridge": -1`)
	assert.Contains(t, string(data), `"fallback": true`)
}

func TestPath(t *testing.T) {
	assert.Equal(t, "out/clusters/v12.json", Path("out/clusters", "v12"))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}
