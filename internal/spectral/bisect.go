package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const maxKMeansIterations = 100

// Bisector recursively divides an embedding into a binary tree of clusters
// using two-means at every node. Node codes follow binary-heap numbering:
// the root is 1 and the children of c are 2c and 2c+1.
//
// A node becomes a leaf when it holds fewer than 2*MinLeafSize members,
// when it sits at MaxDepth, when its members are indistinguishable in the
// embedding, or when a split would leave a side below MinLeafSize.
type Bisector struct {
	MinLeafSize int
	MaxDepth    int
}

type bisectNode struct {
	code    int
	depth   int
	members []int
}

// Bipartition returns the top-level 0/1 labels (the root split; all zero
// when the root is a leaf) and the leaf code of every row. positions holds
// one (x, y, t) row per embedding row; the child whose members have the
// smaller mean t becomes the left child, so codes read in temporal order.
func (bs Bisector) Bipartition(e *mat.Dense, positions [][]float64) ([]int, []int, error) {
	rows, _ := e.Dims()
	if len(positions) != rows {
		return nil, nil, fmt.Errorf("%w: %d position rows for %d embedding rows", ErrInvalidValue, len(positions), rows)
	}
	for i, p := range positions {
		if len(p) < 3 {
			return nil, nil, fmt.Errorf("position row %d has %d columns, need 3", i, len(p))
		}
	}
	if !allFinite(e) {
		return nil, nil, fmt.Errorf("%w: non-finite embedding", ErrInvalidValue)
	}
	minLeaf := bs.MinLeafSize
	if minLeaf < 1 {
		minLeaf = 1
	}

	labels := make([]int, rows)
	paths := make([]int, rows)

	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}
	stack := []bisectNode{{code: 1, depth: 0, members: all}}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var left, right []int
		if node.depth < bs.MaxDepth && len(node.members) >= 2*minLeaf {
			left, right = twoMeans(e, node.members)
		}
		if len(left) < minLeaf || len(right) < minLeaf {
			for _, i := range node.members {
				paths[i] = node.code
			}
			continue
		}
		if meanColumn(positions, right, 2) < meanColumn(positions, left, 2) {
			left, right = right, left
		}
		if node.code == 1 {
			for _, i := range right {
				labels[i] = 1
			}
		}
		stack = append(stack,
			bisectNode{code: 2*node.code + 1, depth: node.depth + 1, members: right},
			bisectNode{code: 2 * node.code, depth: node.depth + 1, members: left},
		)
	}
	return labels, paths, nil
}

// twoMeans splits members into two groups by Lloyd iterations seeded with
// the farthest pair heuristic. Returns empty groups when all members
// coincide.
func twoMeans(e *mat.Dense, members []int) ([]int, []int) {
	_, dims := e.Dims()
	centroid := make([]float64, dims)
	for _, i := range members {
		floats.Add(centroid, e.RawRowView(i))
	}
	floats.Scale(1/float64(len(members)), centroid)

	first := farthest(e, members, centroid)
	seedA := append([]float64(nil), e.RawRowView(first)...)
	second := farthest(e, members, seedA)
	seedB := append([]float64(nil), e.RawRowView(second)...)
	if floats.Distance(seedA, seedB, 2) == 0 {
		return nil, nil
	}

	centers := [2][]float64{seedA, seedB}
	assign := make([]int, len(members))
	for i := range assign {
		assign[i] = -1
	}
	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for k, i := range members {
			row := e.RawRowView(i)
			c := 0
			if floats.Distance(row, centers[1], 2) < floats.Distance(row, centers[0], 2) {
				c = 1
			}
			if assign[k] != c {
				assign[k] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		for c := range centers {
			sum := make([]float64, dims)
			count := 0
			for k, i := range members {
				if assign[k] == c {
					floats.Add(sum, e.RawRowView(i))
					count++
				}
			}
			if count > 0 {
				floats.Scale(1/float64(count), sum)
				centers[c] = sum
			}
		}
	}

	var a, b []int
	for k, i := range members {
		if assign[k] == 0 {
			a = append(a, i)
		} else {
			b = append(b, i)
		}
	}
	return a, b
}

// farthest returns the member farthest from ref; ties go to the lowest index.
func farthest(e *mat.Dense, members []int, ref []float64) int {
	best, bestDist := members[0], -1.0
	for _, i := range members {
		if d := floats.Distance(e.RawRowView(i), ref, 2); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func meanColumn(rows [][]float64, members []int, col int) float64 {
	if len(members) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for _, i := range members {
		sum += rows[i][col]
	}
	return sum / float64(len(members))
}
