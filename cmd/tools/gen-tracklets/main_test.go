package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracklet.hierarchy/internal/fsutil"
	"github.com/banshee-data/tracklet.hierarchy/internal/tracklet"
)

func TestWriteSetRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	set := tracklet.Synthesize(rng, randomBlobs(rng, 2, 100), 5, 4, 0.02)

	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, writeSet(fsys, "root", "v", set))

	got, err := tracklet.Load(fsys, "root", "v")
	require.NoError(t, err)
	assert.Equal(t, set.Objects, got.Objects)
	assert.Equal(t, set.Trajectories, got.Trajectories)
}

func TestRandomBlobsInsideFrame(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, b := range randomBlobs(rng, 50, 10) {
		assert.GreaterOrEqual(t, b.X, 0.1)
		assert.LessOrEqual(t, b.X, 0.9)
		assert.Less(t, b.Frame, 10.0)
	}
}
