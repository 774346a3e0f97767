package model

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// ForestConfig holds random forest hyperparameters.
type ForestConfig struct {
	Estimators     int
	MaxDepth       int // <= 0 grows trees until leaves are pure
	MinSamplesLeaf int
	MaxFeatures    int // <= 0 selects floor(sqrt(width))
	Seed           uint64
}

// DefaultForest returns the fixed configuration used by the department
// classifier: 100 fully grown trees over bootstrap samples, seed 42.
func DefaultForest() ForestConfig {
	return ForestConfig{
		Estimators:     100,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

// Forest is a bagged ensemble of gini classification trees over classes
// 0..Classes-1.
type Forest struct {
	classes int
	width   int
	trees   []*Tree
}

// FitForest trains a forest on x with class codes y in [0, classes).
func FitForest(x [][]float64, y []int, classes int, cfg ForestConfig) (*Forest, error) {
	if err := validate(x, len(y)); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	for _, c := range y {
		if c < 0 || c >= classes {
			return nil, fmt.Errorf("fit forest: class %d outside [0,%d): %w", c, classes, ErrShapeMismatch)
		}
	}

	width := len(x[0])
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(width))))
	}
	rng := newRand(cfg.Seed)
	params := treeParams{
		maxDepth:    cfg.MaxDepth,
		minLeaf:     cfg.MinSamplesLeaf,
		maxFeatures: maxFeatures,
		rng:         rng,
	}

	n := len(y)
	crit := &gini{y: y, classes: classes}
	f := &Forest{classes: classes, width: width}
	for range cfg.Estimators {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.IntN(n)
		}
		f.trees = append(f.trees, buildTree(x, sample, crit, params))
	}
	return f, nil
}

// PredictProba averages the leaf class distributions of every tree.
func (f *Forest) PredictProba(x []float64) []float64 {
	proba := make([]float64, f.classes)
	for _, t := range f.trees {
		for c, p := range t.leaf(x) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.trees))
	}
	return proba
}

// Predict returns the most probable class; ties go to the lowest code.
func (f *Forest) Predict(x []float64) int {
	proba := f.PredictProba(x)
	best := 0
	for c, p := range proba {
		if p > proba[best] {
			best = c
		}
	}
	return best
}

// Width is the feature vector length the forest was trained on.
func (f *Forest) Width() int { return f.width }

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// gini scores splits by n * (1 - sum p_c^2).
type gini struct {
	y       []int
	classes int
}

func (c *gini) counts(idx []int) []float64 {
	counts := make([]float64, c.classes)
	for _, i := range idx {
		counts[c.y[i]]++
	}
	return counts
}

func (c *gini) value(idx []int) []float64 {
	counts := c.counts(idx)
	for k := range counts {
		counts[k] /= float64(len(idx))
	}
	return counts
}

func (c *gini) impurity(idx []int) float64 {
	return weightedGini(c.counts(idx), float64(len(idx)))
}

func (c *gini) scan(x [][]float64, idx []int, f, minLeaf int) (float64, float64, bool) {
	n := len(idx)
	right := c.counts(idx)
	left := make([]float64, c.classes)

	best, threshold, found := 0.0, 0.0, false
	for pos := 0; pos < n-1; pos++ {
		k := c.y[idx[pos]]
		left[k]++
		right[k]--
		lo, hi := x[idx[pos]][f], x[idx[pos+1]][f]
		if lo == hi {
			continue
		}
		nl, nr := pos+1, n-pos-1
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		child := weightedGini(left, float64(nl)) + weightedGini(right, float64(nr))
		if !found || child < best {
			best, threshold, found = child, midpoint(lo, hi), true
		}
	}
	return threshold, best, found
}

func weightedGini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	sq := 0.0
	for _, c := range counts {
		sq += c * c
	}
	return n - sq/n
}
