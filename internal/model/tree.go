// Package model implements the tree ensembles used by the forecasters:
// gradient-boosted regression trees and a bagged classification forest.
//
// Training is deterministic. Split search scans candidate thresholds in a
// fixed feature order and keeps the first strictly better split, and every
// random draw comes from a seeded PCG source, so identical inputs and seed
// produce identical trees.
package model

import (
	"cmp"
	"errors"
	"math/rand/v2"
	"slices"
)

var (
	// ErrEmptyTrainingSet is returned when Fit receives no samples.
	ErrEmptyTrainingSet = errors.New("empty training set")

	// ErrShapeMismatch is returned when samples and targets disagree in length
	// or samples differ in width.
	ErrShapeMismatch = errors.New("training data shape mismatch")
)

// minImpurityDecrease is the smallest improvement that justifies a split.
const minImpurityDecrease = 1e-12

type node struct {
	feature     int
	threshold   float64
	left, right int // child indexes, -1 on leaves
	value       []float64
}

// Tree is a binary decision tree. Samples go left when
// x[feature] <= threshold.
type Tree struct {
	nodes []node
}

func (t *Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.left < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.left < 0 {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(0)
}

// criterion scores candidate splits for one kind of target.
type criterion interface {
	// value is the prediction stored at a node holding idx.
	value(idx []int) []float64
	// impurity is the total (not mean) impurity of idx.
	impurity(idx []int) float64
	// scan walks idx, sorted ascending by feature f, and returns the lowest
	// total child impurity over all split positions that leave at least
	// minLeaf samples on each side.
	scan(x [][]float64, idx []int, f, minLeaf int) (threshold, childImpurity float64, ok bool)
}

type treeParams struct {
	maxDepth    int // <= 0 means unlimited
	minLeaf     int
	maxFeatures int // <= 0 or >= width means every feature
	rng         *rand.Rand
}

type builder struct {
	x      [][]float64
	crit   criterion
	params treeParams
	width  int
	nodes  []node
}

func buildTree(x [][]float64, idx []int, crit criterion, params treeParams) *Tree {
	if params.minLeaf < 1 {
		params.minLeaf = 1
	}
	b := &builder{x: x, crit: crit, params: params, width: len(x[0])}
	b.grow(idx, 0)
	return &Tree{nodes: b.nodes}
}

func (b *builder) grow(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{left: -1, right: -1, value: b.crit.value(idx)})

	if b.params.maxDepth > 0 && depth >= b.params.maxDepth {
		return id
	}
	if len(idx) < 2*b.params.minLeaf {
		return id
	}
	parent := b.crit.impurity(idx)
	if parent <= minImpurityDecrease {
		return id
	}

	bestFeature, bestThreshold, bestChild := -1, 0.0, parent
	sorted := make([]int, len(idx))
	for _, f := range b.candidateFeatures() {
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.x[a][f], b.x[c][f])
		})
		threshold, child, ok := b.crit.scan(b.x, sorted, f, b.params.minLeaf)
		if ok && child < bestChild {
			bestFeature, bestThreshold, bestChild = f, threshold, child
		}
	}
	if bestFeature < 0 || parent-bestChild <= minImpurityDecrease {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].feature = bestFeature
	b.nodes[id].threshold = bestThreshold
	b.nodes[id].left = l
	b.nodes[id].right = r
	return id
}

func (b *builder) candidateFeatures() []int {
	k := b.params.maxFeatures
	if k <= 0 || k >= b.width || b.params.rng == nil {
		all := make([]int, b.width)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.params.rng.Perm(b.width)[:k]
}

// midpoint returns the threshold between two adjacent distinct values.
// When the midpoint rounds up to hi it falls back to lo so that lo still
// goes left.
func midpoint(lo, hi float64) float64 {
	m := lo + (hi-lo)/2
	if m >= hi {
		return lo
	}
	return m
}

func validate(x [][]float64, n int) error {
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(x) != n {
		return ErrShapeMismatch
	}
	width := len(x[0])
	if width == 0 {
		return ErrShapeMismatch
	}
	for _, row := range x {
		if len(row) != width {
			return ErrShapeMismatch
		}
	}
	return nil
}
