// Command gen-tracklets writes synthetic per-video tracklet tables for
// exercising tracklet-cluster end to end. Each video holds a few blobs of
// similar tracklets at random positions, speeds and start frames.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/tracklet.hierarchy/internal/fsutil"
	"github.com/banshee-data/tracklet.hierarchy/internal/security"
	"github.com/banshee-data/tracklet.hierarchy/internal/tracklet"
)

func main() {
	outDir := flag.String("out", "tracklets", "output root; tables go to <out>/obj and <out>/trj")
	videos := flag.Int("videos", 4, "number of videos")
	prefix := flag.String("prefix", "video_", "video name prefix")
	blobs := flag.Int("blobs", 3, "tracklet groups per video")
	perBlob := flag.Int("per-blob", 30, "tracklets per group")
	points := flag.Int("points", 15, "points per trajectory")
	jitter := flag.Float64("jitter", 0.02, "position noise")
	frames := flag.Int("frames", 500, "video length in frames")
	seed := flag.Int64("seed", 0, "random seed (0 = time based)")
	flag.Parse()

	if *videos < 1 || *blobs < 1 || *perBlob < 1 || *points < 2 {
		log.Fatalf("videos, blobs and per-blob must be >= 1, points >= 2")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	fsys := fsutil.OSFileSystem{}

	for _, dir := range []string{"obj", "trj"} {
		if err := fsys.MkdirAll(filepath.Join(*outDir, dir), 0o755); err != nil {
			log.Fatalf("create output: %v", err)
		}
	}

	var names []string
	for v := 0; v < *videos; v++ {
		name := security.SanitizeFilename(fmt.Sprintf("%s%04d", *prefix, v))
		set := tracklet.Synthesize(rng, randomBlobs(rng, *blobs, *frames), *perBlob, *points, *jitter)
		if err := writeSet(fsys, *outDir, name, set); err != nil {
			log.Fatalf("write %s: %v", name, err)
		}
		names = append(names, name)
	}

	list := filepath.Join(*outDir, "videos.txt")
	if err := fsutil.WriteFileAtomic(fsys, list, []byte(strings.Join(names, "\n")+"\n"), 0o644); err != nil {
		log.Fatalf("write video list: %v", err)
	}
	log.Printf("wrote %d videos to %s (seed %d)", len(names), *outDir, *seed)
}

func randomBlobs(rng *rand.Rand, n, frames int) []tracklet.Blob {
	out := make([]tracklet.Blob, n)
	for i := range out {
		out[i] = tracklet.Blob{
			X:     0.1 + 0.8*rng.Float64(),
			Y:     0.1 + 0.8*rng.Float64(),
			VX:    0.01 * rng.NormFloat64(),
			VY:    0.01 * rng.NormFloat64(),
			Frame: float64(rng.Intn(frames)),
		}
	}
	return out
}

func writeSet(fsys fsutil.FileSystem, root, video string, set *tracklet.Set) error {
	objPath, trjPath := tracklet.Paths(root, video)
	for _, t := range []struct {
		path string
		rows [][]float64
	}{{objPath, set.Objects}, {trjPath, set.Trajectories}} {
		var buf bytes.Buffer
		if err := tracklet.WriteCSV(&buf, t.rows); err != nil {
			return err
		}
		if err := fsutil.WriteFileAtomic(fsys, t.path, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
