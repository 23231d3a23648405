// Package testutil provides shared test fixtures: synthetic tracklet sets
// with known grouping and helpers that place them on a filesystem the way
// the batch runner expects.
package testutil

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/banshee-data/tracklet.hierarchy/internal/fsutil"
	"github.com/banshee-data/tracklet.hierarchy/internal/tracklet"
)

// TwoGroupSet returns 2*perGroup tracklets observed at the same frame: the
// first group ends near (0.2, 0.2) moving right, the second near (0.8, 0.8)
// moving left. truth holds the group of every tracklet.
func TwoGroupSet(rng *rand.Rand, perGroup int) (set *tracklet.Set, truth []int) {
	const points = 5
	set = &tracklet.Set{}
	for g, c := range []struct{ x, y, vx float64 }{{0.2, 0.2, 0.02}, {0.8, 0.8, -0.02}} {
		for k := 0; k < perGroup; k++ {
			ex := c.x + 0.03*rng.NormFloat64()
			ey := c.y + 0.03*rng.NormFloat64()
			trj := make([]float64, 2*points)
			for p := 0; p < points; p++ {
				back := float64(points - 1 - p)
				trj[2*p] = ex - back*c.vx + 0.003*rng.NormFloat64()
				trj[2*p+1] = ey + 0.003*rng.NormFloat64()
			}
			obj := make([]float64, tracklet.MinObjectCol)
			obj[tracklet.ColTime] = 10
			obj[tracklet.ColEndX] = ex
			obj[tracklet.ColEndY] = ey
			obj[tracklet.ColEndT] = 0.5
			set.Objects = append(set.Objects, obj)
			set.Trajectories = append(set.Trajectories, trj)
			truth = append(truth, g)
		}
	}
	return set, truth
}

// BlobSet returns a synthetic video of two groups that also differ in
// start frame.
func BlobSet(seed int64, perBlob int) *tracklet.Set {
	blobs := []tracklet.Blob{
		{X: 0.2, Y: 0.3, VX: 0.01, Frame: 0},
		{X: 0.8, Y: 0.7, VY: -0.01, Frame: 40},
	}
	return tracklet.Synthesize(rand.New(rand.NewSource(seed)), blobs, perBlob, 6, 0.02)
}

// WriteVideo stores set as the object and trajectory tables of video
// under root.
func WriteVideo(t testing.TB, fsys fsutil.FileSystem, root, video string, set *tracklet.Set) {
	t.Helper()
	objPath, trjPath := tracklet.Paths(root, video)
	for _, table := range []struct {
		path string
		rows [][]float64
	}{{objPath, set.Objects}, {trjPath, set.Trajectories}} {
		var buf bytes.Buffer
		if err := tracklet.WriteCSV(&buf, table.rows); err != nil {
			t.Fatalf("encode %s: %v", table.path, err)
		}
		if err := fsys.WriteFile(table.path, buf.Bytes(), 0o644); err != nil {
			t.Fatalf("write %s: %v", table.path, err)
		}
	}
}
