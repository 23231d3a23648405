// Package artifact defines the per-video cluster artifact written by the
// batch runner and read by downstream descriptor stages. The presence of
// the artifact file marks a video as done.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/tracklet.hierarchy/internal/cluster"
)

// FallbackRidge is the ridge recorded when the temporal fallback split
// produced the clustering.
const FallbackRidge = cluster.FallbackRidge

// Extension is the file extension of persisted artifacts.
const Extension = ".json"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid cluster artifact")

// Artifact is the persisted clustering of one video.
type Artifact struct {
	Video      string       `json:"video"`
	BestLabels []int        `json:"best_labels"`
	IntPaths   []int        `json:"int_paths"`
	Tree       cluster.Tree `json:"tree"`
	Ridge      float64      `json:"ridge"`
	Fallback   bool         `json:"fallback"`
	NTracklets int          `json:"n_tracklets"`
	Leaves     []int        `json:"leaves"`
	Attempts   int          `json:"attempts"`
	CreatedAt  time.Time    `json:"created_at"`
	Version    string       `json:"version,omitempty"`
}

// FromResult converts an engine result into an artifact.
func FromResult(video string, res *cluster.Result, createdAt time.Time, version string) *Artifact {
	return &Artifact{
		Video:      video,
		BestLabels: res.BestLabels,
		IntPaths:   res.IntPaths,
		Tree:       res.Tree,
		Ridge:      res.Ridge,
		Fallback:   res.Fallback,
		NTracklets: len(res.IntPaths),
		Leaves:     res.Tree.Leaves(),
		Attempts:   res.Attempts,
		CreatedAt:  createdAt.UTC(),
		Version:    version,
	}
}

// Path returns the artifact location of video under dir.
func Path(dir, video string) string {
	return filepath.Join(dir, video+Extension)
}

// Encode validates a and returns its indented JSON form. Map keys are
// emitted in sorted order, so equal artifacts encode to equal bytes.
func Encode(a *Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates an artifact.
func Decode(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks that labels, paths and tree agree with each other.
func (a *Artifact) Validate() error {
	if len(a.BestLabels) != len(a.IntPaths) {
		return fmt.Errorf("%w: %d labels for %d paths", ErrInvalid, len(a.BestLabels), len(a.IntPaths))
	}
	if a.NTracklets != len(a.IntPaths) {
		return fmt.Errorf("%w: n_tracklets %d but %d paths", ErrInvalid, a.NTracklets, len(a.IntPaths))
	}
	for i, l := range a.BestLabels {
		if l != 0 && l != 1 {
			return fmt.Errorf("%w: label %d at %d", ErrInvalid, l, i)
		}
	}
	if a.Fallback != (a.Ridge == FallbackRidge) {
		return fmt.Errorf("%w: fallback=%t with ridge %g", ErrInvalid, a.Fallback, a.Ridge)
	}
	if len(a.IntPaths) == 0 {
		return nil
	}
	if err := a.Tree.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for i, p := range a.IntPaths {
		if !a.Tree.IsLeaf(p) {
			return fmt.Errorf("%w: path %d of tracklet %d is not a leaf", ErrInvalid, p, i)
		}
	}
	return nil
}

// Members returns the indices of the tracklets in the subtree rooted at
// code, in ascending order.
func (a *Artifact) Members(code int) []int {
	var out []int
	for i, p := range a.IntPaths {
		if p == code || cluster.IsAncestor(code, p) {
			out = append(out, i)
		}
	}
	return out
}

// LeafSizes returns the number of tracklets in every leaf.
func (a *Artifact) LeafSizes() map[int]int {
	out := make(map[int]int)
	for _, p := range a.IntPaths {
		out[p]++
	}
	return out
}
