package model

import "fmt"

// BoostingConfig holds gradient boosting hyperparameters.
type BoostingConfig struct {
	Estimators     int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
}

// DefaultBoosting returns the fixed configuration used by the forecaster:
// 100 depth-3 trees with learning rate 0.1.
func DefaultBoosting() BoostingConfig {
	return BoostingConfig{
		Estimators:     100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 1,
	}
}

// GradientBoosting is a least-squares gradient-boosted regression ensemble.
type GradientBoosting struct {
	init  float64
	rate  float64
	width int
	trees []*Tree
}

// FitGradientBoosting trains an ensemble on x with targets y. Each stage fits
// a regression tree to the current residuals and adds it scaled by the
// learning rate, starting from the mean of y.
func FitGradientBoosting(x [][]float64, y []float64, cfg BoostingConfig) (*GradientBoosting, error) {
	if err := validate(x, len(y)); err != nil {
		return nil, fmt.Errorf("fit gradient boosting: %w", err)
	}

	n := len(y)
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = mean
	}
	residual := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	m := &GradientBoosting{init: mean, rate: cfg.LearningRate, width: len(x[0])}
	params := treeParams{maxDepth: cfg.MaxDepth, minLeaf: cfg.MinSamplesLeaf}
	for range cfg.Estimators {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		tree := buildTree(x, idx, &squaredError{y: residual}, params)
		for i := range pred {
			pred[i] += cfg.LearningRate * tree.leaf(x[i])[0]
		}
		m.trees = append(m.trees, tree)
	}
	return m, nil
}

// Predict returns the raw regression output for x. The output is unbounded:
// it may be negative or fractional.
func (m *GradientBoosting) Predict(x []float64) float64 {
	out := m.init
	for _, t := range m.trees {
		out += m.rate * t.leaf(x)[0]
	}
	return out
}

// Width is the feature vector length the ensemble was trained on.
func (m *GradientBoosting) Width() int { return m.width }

// Stages returns the number of fitted trees.
func (m *GradientBoosting) Stages() int { return len(m.trees) }

// squaredError scores splits by the sum of squared deviations from the mean.
type squaredError struct {
	y []float64
}

func (c *squaredError) value(idx []int) []float64 {
	sum := 0.0
	for _, i := range idx {
		sum += c.y[i]
	}
	return []float64{sum / float64(len(idx))}
}

func (c *squaredError) impurity(idx []int) float64 {
	sum, sq := 0.0, 0.0
	for _, i := range idx {
		sum += c.y[i]
		sq += c.y[i] * c.y[i]
	}
	return sq - sum*sum/float64(len(idx))
}

func (c *squaredError) scan(x [][]float64, idx []int, f, minLeaf int) (float64, float64, bool) {
	n := len(idx)
	total, totalSq := 0.0, 0.0
	for _, i := range idx {
		total += c.y[i]
		totalSq += c.y[i] * c.y[i]
	}

	best, threshold, found := 0.0, 0.0, false
	left := 0.0
	for pos := 0; pos < n-1; pos++ {
		left += c.y[idx[pos]]
		lo, hi := x[idx[pos]][f], x[idx[pos+1]][f]
		if lo == hi {
			continue
		}
		nl, nr := pos+1, n-pos-1
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		right := total - left
		// SSE(left) + SSE(right) = totalSq - (left²/nl + right²/nr).
		child := totalSq - (left*left/float64(nl) + right*right/float64(nr))
		if !found || child < best {
			best, threshold, found = child, midpoint(lo, hi), true
		}
	}
	return threshold, best, found
}
