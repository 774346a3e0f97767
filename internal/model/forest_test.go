package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusterData puts class 0 near the origin and class 1 far from it.
func clusterData() ([][]float64, []int) {
	var x [][]float64
	var y []int
	for i := range 30 {
		off := float64(i%5) * 0.1
		x = append(x, []float64{1 + off, 1 - off, float64(i % 2), 0})
		y = append(y, 0)
		x = append(x, []float64{9 - off, 9 + off, float64(i % 2), 0})
		y = append(y, 1)
	}
	return x, y
}

func TestFitForest_SeparatesClusters(t *testing.T) {
	x, y := clusterData()

	f, err := FitForest(x, y, 2, DefaultForest())
	require.NoError(t, err)

	assert.Equal(t, 0, f.Predict([]float64{1, 1, 0, 0}))
	assert.Equal(t, 1, f.Predict([]float64{9, 9, 1, 0}))
	assert.Equal(t, 4, f.Width())

	proba := f.PredictProba([]float64{1, 1, 0, 0})
	require.Len(t, proba, 2)
	assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-9)
}

func TestFitForest_Deterministic(t *testing.T) {
	x, y := clusterData()

	a, err := FitForest(x, y, 2, DefaultForest())
	require.NoError(t, err)
	b, err := FitForest(x, y, 2, DefaultForest())
	require.NoError(t, err)

	for _, probe := range [][]float64{{5, 5, 0, 0}, {3, 7, 1, 0}, {8, 2, 0, 0}} {
		assert.Equal(t, a.PredictProba(probe), b.PredictProba(probe))
	}
}

func TestFitForest_SingleClass(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []int{2, 2, 2}

	f, err := FitForest(x, y, 3, DefaultForest())
	require.NoError(t, err)
	assert.Equal(t, 2, f.Predict([]float64{42}))
}

func TestFitForest_Errors(t *testing.T) {
	_, err := FitForest(nil, nil, 1, DefaultForest())
	require.ErrorIs(t, err, ErrEmptyTrainingSet)

	_, err = FitForest([][]float64{{1}}, []int{3}, 2, DefaultForest())
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestGiniScan(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	crit := &gini{y: []int{0, 0, 1, 1}, classes: 2}

	threshold, child, ok := crit.scan(x, []int{0, 1, 2, 3}, 0, 1)
	require.True(t, ok)
	assert.InDelta(t, 2.5, threshold, 1e-9)
	assert.InDelta(t, 0.0, child, 1e-9)
	assert.InDelta(t, 2.0, crit.impurity([]int{0, 1, 2, 3}), 1e-9)
}

func TestPredict_TiesGoToLowestCode(t *testing.T) {
	f := &Forest{classes: 2, trees: []*Tree{
		{nodes: []node{{left: -1, right: -1, value: []float64{0.5, 0.5}}}},
	}}
	assert.Equal(t, 0, f.Predict([]float64{0}))
}
