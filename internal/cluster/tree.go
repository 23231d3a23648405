package cluster

import (
	"fmt"
	"math/bits"
	"slices"
	"sort"
)

// Tree maps every node code to its descendant codes in ascending order.
// An internal node lists all codes below it, internal and leaf; a leaf
// maps to itself.
type Tree map[int][]int

// Parent returns the parent code of c. The root has parent 0.
func Parent(code int) int { return code / 2 }

// Depth returns the depth of code below the root (root depth 0).
func Depth(code int) int {
	if code < 1 {
		return -1
	}
	return bits.Len(uint(code)) - 1
}

// IsAncestor reports whether a is a strict ancestor of c.
func IsAncestor(a, c int) bool {
	if a < 1 || c <= a {
		return false
	}
	shift := Depth(c) - Depth(a)
	return shift > 0 && c>>uint(shift) == a
}

// UniqueCodes returns the sorted distinct values of codes.
func UniqueCodes(codes []int) []int {
	out := append([]int(nil), codes...)
	sort.Ints(out)
	return slices.Compact(out)
}

// ReconstructTree rebuilds the full tree from leaf codes (duplicates are
// allowed, as in a per-tracklet int_paths slice).
//
// Leaves are first grouped under their parents; parents then merge upward
// in descending code order through a max-heap, so no node is finished
// before all of its children.
func ReconstructTree(leaves []int) (Tree, error) {
	uniq := UniqueCodes(leaves)
	if len(uniq) == 0 {
		return Tree{}, nil
	}
	if uniq[0] < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLeafCode, uniq[0])
	}
	isLeaf := make(map[int]bool, len(uniq))
	for _, l := range uniq {
		isLeaf[l] = true
	}
	for _, l := range uniq {
		for a := Parent(l); a >= 1; a = Parent(a) {
			if isLeaf[a] {
				return nil, fmt.Errorf("%w: %d is above %d", ErrOverlappingLeaves, a, l)
			}
		}
	}

	// Phase one: group leaves under their parents.
	children := make(map[int][]int)
	scheduled := make(map[int]bool)
	var pending codeHeap
	for _, l := range uniq {
		if l == 1 {
			continue
		}
		p := Parent(l)
		children[p] = append(children[p], l)
		if !scheduled[p] {
			scheduled[p] = true
			pending.Push(p)
		}
	}

	// Phase two: merge upward, deepest codes first.
	tree := make(Tree, 2*len(uniq))
	for pending.Len() > 0 {
		c := pending.Pop()
		var desc []int
		for _, ch := range children[c] {
			desc = append(desc, ch)
			if !isLeaf[ch] {
				desc = append(desc, tree[ch]...)
			}
		}
		tree[c] = UniqueCodes(desc)

		if c > 1 {
			p := Parent(c)
			children[p] = append(children[p], c)
			if !scheduled[p] {
				scheduled[p] = true
				pending.Push(p)
			}
		}
	}

	for _, l := range uniq {
		tree[l] = []int{l}
	}
	return tree, nil
}

// IsLeaf reports whether code is a leaf of the tree.
func (t Tree) IsLeaf(code int) bool {
	d, ok := t[code]
	return ok && len(d) == 1 && d[0] == code
}

// Codes returns every node code in ascending order.
func (t Tree) Codes() []int {
	out := make([]int, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Leaves returns the leaf codes in ascending order.
func (t Tree) Leaves() []int {
	var out []int
	for _, c := range t.Codes() {
		if t.IsLeaf(c) {
			out = append(out, c)
		}
	}
	return out
}

// LeavesUnder returns the leaf codes in the subtree rooted at code.
func (t Tree) LeavesUnder(code int) []int {
	if t.IsLeaf(code) {
		return []int{code}
	}
	var out []int
	for _, d := range t[code] {
		if t.IsLeaf(d) {
			out = append(out, d)
		}
	}
	return out
}

// Children returns the child codes of code present in the tree.
func (t Tree) Children(code int) []int {
	if t.IsLeaf(code) {
		return nil
	}
	var out []int
	for _, ch := range []int{2 * code, 2*code + 1} {
		if _, ok := t[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}

// Validate checks that every internal node lists exactly its children and
// their descendants, and that every leaf maps to itself.
func (t Tree) Validate() error {
	for _, c := range t.Codes() {
		if c < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidLeafCode, c)
		}
		if c > 1 {
			if _, ok := t[Parent(c)]; !ok {
				return fmt.Errorf("node %d has no parent %d", c, Parent(c))
			}
		}
		if t.IsLeaf(c) {
			continue
		}
		kids := t.Children(c)
		if len(kids) == 0 {
			return fmt.Errorf("node %d has no children in the tree", c)
		}
		var want []int
		for _, ch := range kids {
			want = append(want, ch)
			if !t.IsLeaf(ch) {
				want = append(want, t[ch]...)
			}
		}
		want = UniqueCodes(want)
		if !slices.Equal(want, t[c]) {
			return fmt.Errorf("node %d lists %v, children give %v", c, t[c], want)
		}
	}
	return nil
}
