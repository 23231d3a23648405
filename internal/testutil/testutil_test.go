package testutil

import (
	"math/rand"
	"testing"

	"github.com/banshee-data/tracklet.hierarchy/internal/fsutil"
	"github.com/banshee-data/tracklet.hierarchy/internal/tracklet"
)

func TestTwoGroupSet(t *testing.T) {
	set, truth := TwoGroupSet(rand.New(rand.NewSource(1)), 4)
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if set.Len() != 8 || len(truth) != 8 {
		t.Fatalf("got %d tracklets and %d labels, want 8", set.Len(), len(truth))
	}
	if truth[0] != 0 || truth[7] != 1 {
		t.Errorf("truth = %v", truth)
	}
}

func TestWriteVideoRoundTrip(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	set := BlobSet(3, 5)
	WriteVideo(t, fsys, "root", "v", set)

	got, err := tracklet.Load(fsys, "root", "v")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != 10 {
		t.Errorf("Len = %d, want 10", got.Len())
	}
}
