// Package spgist implements the quad-tree space-partitioning index over the
// engine's box keys (periods, TBoxes, STBoxes). Every key flattens to a
// 2k-dimensional point (lower and upper bound per axis); inner nodes hold a
// centroid and one child per quadrant, leaves hold the original keys.
//
// The index protocol mirrors SP-GiST: choose picks the insertion quadrant by
// the sign of each flattened coordinate against the centroid, picksplit
// takes the component-wise median as the new centroid, inner-consistent
// prunes quadrants that cannot contain a match, and leaf-consistent
// dispatches to the exact box predicates, so a search never returns a false
// positive and never loses a match.
package spgist

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/trajectory.engine/internal/terrors"
)

// maxLeafEntries is the node occupancy that triggers picksplit.
const maxLeafEntries = 16

// Leaf is one indexed entry: the flattened coordinates plus the caller's key.
type Leaf struct {
	Coords []float64
	Key    interface{}
}

// Query drives a search: the flattened per-axis ranges of the probe key, the
// operator, and the exact leaf predicate.
type Query struct {
	Strategy Strategy
	// Ranges holds the probe's (lower, upper) per axis.
	Ranges [][2]float64
	// Match is the exact leaf-consistency predicate for the probe.
	Match func(key interface{}) bool
}

type node struct {
	inner    bool
	centroid []float64
	children []*node
	leaves   []Leaf
}

// Tree is an in-memory quad-tree over 2*axes-dimensional flattened keys.
type Tree struct {
	axes int
	dims int
	root *node
	size int
}

// NewTree builds an empty tree for keys with the given number of axes.
func NewTree(axes int) (*Tree, error) {
	if axes < 1 || axes > 4 {
		return nil, fmt.Errorf("%w: unsupported axis count %d", terrors.ErrInvalidArg, axes)
	}
	return &Tree{axes: axes, dims: 2 * axes, root: &node{}}, nil
}

// Len returns the number of indexed keys.
func (t *Tree) Len() int { return t.size }

// Insert adds a leaf to the tree.
func (t *Tree) Insert(coords []float64, key interface{}) error {
	if len(coords) != t.dims {
		return fmt.Errorf("%w: key has %d coordinates, tree wants %d", terrors.ErrInvalidArg, len(coords), t.dims)
	}
	leaf := Leaf{Coords: coords, Key: key}
	n := t.root
	for n.inner {
		n = n.children[t.choose(n.centroid, coords)]
	}
	n.leaves = append(n.leaves, leaf)
	t.size++
	if len(n.leaves) > maxLeafEntries {
		t.picksplit(n)
	}
	return nil
}

// choose packs the per-dimension sign against the centroid into a quadrant
// index.
func (t *Tree) choose(centroid, coords []float64) int {
	q := 0
	for d := 0; d < t.dims; d++ {
		if coords[d] > centroid[d] {
			q |= 1 << d
		}
	}
	return q
}

// picksplit converts an overflowing leaf node into an inner node around the
// component-wise median of its keys.
func (t *Tree) picksplit(n *node) {
	centroid := make([]float64, t.dims)
	col := make([]float64, len(n.leaves))
	for d := 0; d < t.dims; d++ {
		for i, lf := range n.leaves {
			col[i] = lf.Coords[d]
		}
		sort.Float64s(col)
		centroid[d] = stat.Quantile(0.5, stat.Empirical, col, nil)
	}
	children := make([]*node, 1<<t.dims)
	for i := range children {
		children[i] = &node{}
	}
	moved := n.leaves
	n.inner = true
	n.centroid = centroid
	n.children = children
	n.leaves = nil
	for _, lf := range moved {
		c := children[t.choose(centroid, lf.Coords)]
		c.leaves = append(c.leaves, lf)
	}
	// a degenerate split (all keys equal) would recurse forever; keep such
	// keys in one oversized leaf instead
	for _, c := range children {
		if len(c.leaves) == len(moved) {
			n.inner = false
			n.centroid = nil
			n.children = nil
			n.leaves = moved
			return
		}
	}
}

// Search returns the keys of every leaf satisfying the query.
func (t *Tree) Search(q Query) ([]interface{}, error) {
	if len(q.Ranges) != t.axes {
		return nil, fmt.Errorf("%w: query has %d axes, tree wants %d", terrors.ErrInvalidArg, len(q.Ranges), t.axes)
	}
	if q.Match == nil {
		return nil, fmt.Errorf("%w: query without leaf predicate", terrors.ErrInvalidArg)
	}
	var out []interface{}
	t.walk(t.root, q, &out)
	return out, nil
}

func (t *Tree) walk(n *node, q Query, out *[]interface{}) {
	if !n.inner {
		for _, lf := range n.leaves {
			if q.Match(lf.Key) {
				*out = append(*out, lf.Key)
			}
		}
		return
	}
	for quad, child := range n.children {
		if t.innerConsistent(n.centroid, quad, q) {
			t.walk(child, q, out)
		}
	}
}

// innerConsistent reports whether the quadrant's sub-box can contain a leaf
// matching the query. Each flattened dimension d of quadrant quad covers
// (-inf, centroid[d]] when the bit is clear and (centroid[d], +inf) when it
// is set; the per-strategy conditions follow from the monotonicity of every
// operator in (lower, upper).
func (t *Tree) innerConsistent(centroid []float64, quad int, q Query) bool {
	// Same must visit every quadrant: a centroid can sit exactly on a key
	// bound, putting equal keys on either side.
	if q.Strategy == Same {
		return true
	}
	loMin := func(axis int) float64 { // least possible lower bound
		d := 2 * axis
		if quad&(1<<d) != 0 {
			return centroid[d]
		}
		return math.Inf(-1)
	}
	loMax := func(axis int) float64 { // greatest possible lower bound
		d := 2 * axis
		if quad&(1<<d) != 0 {
			return math.Inf(1)
		}
		return centroid[d]
	}
	hiMin := func(axis int) float64 {
		d := 2*axis + 1
		if quad&(1<<d) != 0 {
			return centroid[d]
		}
		return math.Inf(-1)
	}
	hiMax := func(axis int) float64 {
		d := 2*axis + 1
		if quad&(1<<d) != 0 {
			return math.Inf(1)
		}
		return centroid[d]
	}

	overlapPossible := func(axis int) bool {
		return loMin(axis) <= q.Ranges[axis][1] && hiMax(axis) >= q.Ranges[axis][0]
	}

	switch q.Strategy {
	case Overlaps, Adjacent:
		// adjacency needs closure contact, which overlap-of-closures covers
		for a := 0; a < t.axes; a++ {
			if !overlapPossible(a) {
				return false
			}
		}
		return true
	case Contains:
		for a := 0; a < t.axes; a++ {
			if loMin(a) > q.Ranges[a][0] || hiMax(a) < q.Ranges[a][1] {
				return false
			}
		}
		return true
	case Contained:
		for a := 0; a < t.axes; a++ {
			if loMax(a) < q.Ranges[a][0] || hiMin(a) > q.Ranges[a][1] {
				return false
			}
		}
		return true
	}

	// positional strategies constrain a single axis
	axis, mode, ok := q.Strategy.positional(t.axes)
	if !ok {
		// unknown operator: never prune
		return true
	}
	switch mode {
	case posBefore: // leaf strictly before the probe: upper < q.lower
		return hiMin(axis) < q.Ranges[axis][0]
	case posOverBefore: // leaf does not extend past the probe: upper <= q.upper
		return hiMin(axis) <= q.Ranges[axis][1]
	case posAfter:
		// lower > q.upper; >= keeps leaves whose lower sits exactly on the
		// probe bound, where inclusivity still decides the predicate
		return loMax(axis) >= q.Ranges[axis][1]
	case posOverAfter: // lower >= q.lower
		return loMax(axis) >= q.Ranges[axis][0]
	}
	return true
}
