package model

import "math"

// TrainTestSplit shuffles the indexes 0..n-1 with a seeded source and holds
// out ceil(n*testFraction) of them. With fewer than two samples, or when the
// hold-out would consume every sample, everything is returned as training
// data and test is empty.
func TrainTestSplit(n int, testFraction float64, seed uint64) (train, test []int) {
	perm := newRand(seed).Perm(n)
	nTest := int(math.Ceil(float64(n) * testFraction))
	if n < 2 || nTest <= 0 || nTest >= n {
		return perm, nil
	}
	return perm[nTest:], perm[:nTest]
}

// Accuracy is the fraction of positions where predicted equals actual.
// It returns NaN for empty input.
func Accuracy(predicted, actual []int) float64 {
	if len(actual) == 0 || len(predicted) != len(actual) {
		return math.NaN()
	}
	hits := 0
	for i := range actual {
		if predicted[i] == actual[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(actual))
}
