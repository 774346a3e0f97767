package model

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.2, 42)

	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	all := append(slices.Clone(train), test...)
	slices.Sort(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	train2, test2 := TrainTestSplit(10, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestTrainTestSplit_SmallInputs(t *testing.T) {
	train, test := TrainTestSplit(1, 0.2, 42)
	assert.Equal(t, []int{0}, train)
	assert.Empty(t, test)

	train, test = TrainTestSplit(0, 0.2, 42)
	assert.Empty(t, train)
	assert.Empty(t, test)

	train, test = TrainTestSplit(3, 0.2, 42)
	assert.Len(t, train, 2)
	assert.Len(t, test, 1)
}

func TestAccuracy(t *testing.T) {
	assert.InDelta(t, 0.75, Accuracy([]int{1, 2, 3, 4}, []int{1, 2, 3, 0}), 1e-9)
	assert.True(t, math.IsNaN(Accuracy(nil, nil)))
	assert.True(t, math.IsNaN(Accuracy([]int{1}, []int{1, 2})))
}
