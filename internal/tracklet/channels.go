package tracklet

import (
	"gonum.org/v1/gonum/mat"
)

// Channel names one derived feature stream.
type Channel string

const (
	ChannelX  Channel = "x"
	ChannelY  Channel = "y"
	ChannelT  Channel = "t"
	ChannelVX Channel = "v_x"
	ChannelVY Channel = "v_y"
)

// ChannelOrder is the fixed order in which channels are fused and in which
// per-channel kernel medians are reported.
var ChannelOrder = []Channel{ChannelX, ChannelY, ChannelT, ChannelVX, ChannelVY}

// Channels maps each channel to an N x dim feature matrix. Read-only once built.
type Channels map[Channel]*mat.Dense

// BuildChannels derives the five channels from a validated set. With L
// points per trajectory:
//
//	x   = positions 1..L-1 of the x coordinate
//	y   = positions 1..L-1 of the y coordinate
//	t   = temporal index minus (L-1, ..., 0), one value per point
//	v_x = first difference of x
//	v_y = first difference of y
func BuildChannels(s *Set) Channels {
	n := s.Len()
	l := s.TrajectoryLen()

	x := mat.NewDense(n, l-1, nil)
	y := mat.NewDense(n, l-1, nil)
	t := mat.NewDense(n, l, nil)
	vx := mat.NewDense(n, l-1, nil)
	vy := mat.NewDense(n, l-1, nil)

	for i := 0; i < n; i++ {
		row := s.Trajectories[i]
		start := s.Objects[i][ColTime]
		for k := 0; k < l; k++ {
			t.Set(i, k, start-float64(l-1-k))
		}
		for k := 1; k < l; k++ {
			px, py := row[2*(k-1)], row[2*(k-1)+1]
			cx, cy := row[2*k], row[2*k+1]
			x.Set(i, k-1, cx)
			y.Set(i, k-1, cy)
			vx.Set(i, k-1, cx-px)
			vy.Set(i, k-1, cy-py)
		}
	}

	return Channels{
		ChannelX:  x,
		ChannelY:  y,
		ChannelT:  t,
		ChannelVX: vx,
		ChannelVY: vy,
	}
}

// Rows returns the number of tracklets the channels were built from.
func (c Channels) Rows() int {
	m, ok := c[ChannelX]
	if !ok {
		return 0
	}
	r, _ := m.Dims()
	return r
}
