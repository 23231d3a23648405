package cluster

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructTree(t *testing.T) {
	tests := []struct {
		name   string
		leaves []int
		want   Tree
	}{
		{
			name:   "balanced depth two",
			leaves: []int{4, 5, 6, 7},
			want: Tree{
				1: {2, 3, 4, 5, 6, 7},
				2: {4, 5},
				3: {6, 7},
				4: {4}, 5: {5}, 6: {6}, 7: {7},
			},
		},
		{
			name:   "per tracklet paths with duplicates",
			leaves: []int{7, 4, 4, 5, 6, 7, 5},
			want: Tree{
				1: {2, 3, 4, 5, 6, 7},
				2: {4, 5},
				3: {6, 7},
				4: {4}, 5: {5}, 6: {6}, 7: {7},
			},
		},
		{
			name:   "unbalanced",
			leaves: []int{2, 6, 7},
			want: Tree{
				1: {2, 3, 6, 7},
				3: {6, 7},
				2: {2}, 6: {6}, 7: {7},
			},
		},
		{
			name:   "fallback split",
			leaves: []int{2, 3, 3, 2},
			want:   Tree{1: {2, 3}, 2: {2}, 3: {3}},
		},
		{
			name:   "root is the only leaf",
			leaves: []int{1, 1},
			want:   Tree{1: {1}},
		},
		{
			name:   "single deep leaf",
			leaves: []int{2},
			want:   Tree{1: {2}, 2: {2}},
		},
		{
			name:   "empty",
			leaves: nil,
			want:   Tree{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReconstructTree(tt.leaves)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReconstructTree(%v) mismatch (-want +got):\n%s", tt.leaves, diff)
			}
			if len(tt.leaves) > 0 {
				assert.NoError(t, got.Validate())
			}
		})
	}
}

func TestReconstructTree_Errors(t *testing.T) {
	_, err := ReconstructTree([]int{0, 2})
	assert.ErrorIs(t, err, ErrInvalidLeafCode)

	_, err = ReconstructTree([]int{-3})
	assert.ErrorIs(t, err, ErrInvalidLeafCode)

	_, err = ReconstructTree([]int{2, 5})
	assert.ErrorIs(t, err, ErrOverlappingLeaves)

	_, err = ReconstructTree([]int{1, 3})
	assert.ErrorIs(t, err, ErrOverlappingLeaves)
}

// randomLeaves grows a random full binary tree by splitting leaves.
func randomLeaves(rng *rand.Rand, splits int) []int {
	leaves := map[int]bool{1: true}
	for i := 0; i < splits; i++ {
		var codes []int
		for c := range leaves {
			if Depth(c) < 20 {
				codes = append(codes, c)
			}
		}
		c := UniqueCodes(codes)[rng.Intn(len(codes))]
		delete(leaves, c)
		leaves[2*c] = true
		leaves[2*c+1] = true
	}
	var out []int
	for c := range leaves {
		out = append(out, c)
	}
	return out
}

func TestReconstructTree_PartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for trial := 0; trial < 50; trial++ {
		leaves := randomLeaves(rng, 1+rng.Intn(30))
		tree, err := ReconstructTree(leaves)
		require.NoError(t, err)
		require.NoError(t, tree.Validate())

		assert.Equal(t, UniqueCodes(leaves), tree.Leaves())
		assert.Equal(t, UniqueCodes(leaves), tree.LeavesUnder(1))

		for _, c := range tree.Codes() {
			if tree.IsLeaf(c) {
				continue
			}
			kids := tree.Children(c)
			require.Len(t, kids, 2, "node %d", c)
			left := tree.LeavesUnder(kids[0])
			right := tree.LeavesUnder(kids[1])
			assert.Equal(t, tree.LeavesUnder(c), UniqueCodes(append(append([]int(nil), left...), right...)))
			for _, l := range left {
				assert.NotContains(t, right, l)
			}
		}
	}
}

func TestTreeValidate_Rejects(t *testing.T) {
	assert.Error(t, Tree{1: {2, 3}, 2: {2}}.Validate(), "missing leaf 3")
	assert.Error(t, Tree{1: {2, 3, 4}, 2: {2}, 3: {3}}.Validate(), "extra descendant")
	assert.Error(t, Tree{3: {3}}.Validate(), "orphan")
}

func TestCodeHelpers(t *testing.T) {
	assert.Equal(t, 0, Depth(1))
	assert.Equal(t, 1, Depth(3))
	assert.Equal(t, 3, Depth(13))
	assert.Equal(t, -1, Depth(0))
	assert.Equal(t, 6, Parent(13))

	assert.True(t, IsAncestor(1, 13))
	assert.True(t, IsAncestor(3, 13))
	assert.False(t, IsAncestor(2, 13))
	assert.False(t, IsAncestor(13, 13))

	var h codeHeap
	for _, c := range []int{5, 12, 1, 9, 3, 12} {
		h.Push(c)
	}
	var popped []int
	for h.Len() > 0 {
		popped = append(popped, h.Pop())
	}
	assert.Equal(t, []int{12, 12, 9, 5, 3, 1}, popped)
}
