package cluster

import (
	"errors"

	"github.com/banshee-data/tracklet.hierarchy/internal/spectral"
)

var (
	// ErrEmptyTrackletSet is returned for a video without tracklets.
	ErrEmptyTrackletSet = errors.New("cluster: empty tracklet set")

	// ErrTooFewTracklets is returned by the sampler when even a full sample
	// holds fewer points than the configured minimum.
	ErrTooFewTracklets = errors.New("cluster: too few tracklets to sample")

	// ErrInvalidLeafCode reports a leaf code below 1.
	ErrInvalidLeafCode = errors.New("cluster: invalid leaf code")

	// ErrOverlappingLeaves reports a leaf that is an ancestor of another leaf.
	ErrOverlappingLeaves = errors.New("cluster: leaf is an ancestor of another leaf")
)

// IsNumericalFailure reports whether err is a recoverable numerical failure
// of the embedding or bipartition step. Such failures route the video to
// the fallback split; anything else is returned to the caller.
func IsNumericalFailure(err error) bool {
	return spectral.IsNumerical(err)
}
