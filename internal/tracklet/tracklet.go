package tracklet

import (
	"errors"
	"fmt"
)

// Column indices into an object row.
const (
	ColTime      = 0
	ColEndX      = 7
	ColEndY      = 8
	ColEndT      = 9
	MinObjectCol = 10
)

// ErrEmptySet is returned when a video has no tracklets.
var ErrEmptySet = errors.New("tracklet set is empty")

// Set is the immutable collection of tracklets of one video.
type Set struct {
	Objects      [][]float64
	Trajectories [][]float64
}

// Len returns the number of tracklets.
func (s *Set) Len() int {
	return len(s.Objects)
}

// TrajectoryLen returns the number of 2D points per trajectory.
func (s *Set) TrajectoryLen() int {
	if len(s.Trajectories) == 0 {
		return 0
	}
	return len(s.Trajectories[0]) / 2
}

// Validate checks the shape invariants the clustering pass relies on.
func (s *Set) Validate() error {
	if len(s.Objects) == 0 {
		return ErrEmptySet
	}
	if len(s.Objects) != len(s.Trajectories) {
		return fmt.Errorf("object rows (%d) and trajectory rows (%d) differ", len(s.Objects), len(s.Trajectories))
	}
	width := len(s.Trajectories[0])
	if width < 4 || width%2 != 0 {
		return fmt.Errorf("trajectory rows must hold an even number (>= 4) of values, got %d", width)
	}
	for i := range s.Objects {
		if len(s.Objects[i]) < MinObjectCol {
			return fmt.Errorf("object row %d has %d columns, need at least %d", i, len(s.Objects[i]), MinObjectCol)
		}
		if len(s.Trajectories[i]) != width {
			return fmt.Errorf("trajectory row %d has %d values, expected %d", i, len(s.Trajectories[i]), width)
		}
	}
	return nil
}

// Times returns the temporal index of every tracklet.
func (s *Set) Times() []float64 {
	out := make([]float64, len(s.Objects))
	for i, row := range s.Objects {
		out[i] = row[ColTime]
	}
	return out
}

// EndPositions returns the normalised (x, y) ending position of every
// tracklet, the coordinates the grid sampler stratifies on.
func (s *Set) EndPositions() [][2]float64 {
	out := make([][2]float64, len(s.Objects))
	for i, row := range s.Objects {
		out[i] = [2]float64{row[ColEndX], row[ColEndY]}
	}
	return out
}

// PositionTable returns columns 7-9 (x, y, normalised time) of every
// object row, as consumed by the recursive bipartition.
func (s *Set) PositionTable() [][]float64 {
	out := make([][]float64, len(s.Objects))
	for i, row := range s.Objects {
		out[i] = []float64{row[ColEndX], row[ColEndY], row[ColEndT]}
	}
	return out
}
