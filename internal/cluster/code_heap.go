package cluster

// codeHeap is a max-heap of node codes. Larger codes sit deeper in the
// binary-heap numbering, so popping in this order finishes every child
// before its parent. It follows container/heap without the interface
// conversions.
type codeHeap []int

func (h codeHeap) Len() int           { return len(h) }
func (h codeHeap) Less(i, j int) bool { return h[i] > h[j] }
func (h codeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

// Push adds code to the heap in O(log n).
func (h *codeHeap) Push(code int) {
	*h = append(*h, code)
	h.up(h.Len() - 1)
}

// Pop removes and returns the largest code in O(log n).
func (h *codeHeap) Pop() int {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	last := (*h)[n]
	*h = (*h)[:n]
	return last
}

func (h codeHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h codeHeap) down(i0, n int) {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
}
