package pipeline

import (
	"fmt"
	"math/rand"
	"sort"
)

// SplitIndices partitions row indices into train and test sets, stratified
// by label so both splits preserve the class balance. The same labels,
// fraction, and seed always produce the same partition.
func SplitIndices(labels []int, testFraction float64, seed int64) (trainIdx, testIdx []int, err error) {
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("no rows to split")
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0,1), got %g", testFraction)
	}

	byClass := make(map[int][]int)
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}

	// Iterate classes in a fixed order so the shuffle sequence is stable.
	classes := make([]int, 0, len(byClass))
	for y := range byClass {
		classes = append(classes, y)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, y := range classes {
		idx := byClass[y]
		rng.Shuffle(len(idx), func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})

		n := int(float64(len(idx)) * testFraction)
		if n == 0 && len(idx) > 1 {
			n = 1
		}
		testIdx = append(testIdx, idx[:n]...)
		trainIdx = append(trainIdx, idx[n:]...)
	}

	if len(trainIdx) == 0 {
		return nil, nil, fmt.Errorf("train split is empty")
	}

	sort.Ints(trainIdx)
	sort.Ints(testIdx)
	return trainIdx, testIdx, nil
}

// selectLabels gathers the labels at the given indices.
func selectLabels(labels []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = labels[idx]
	}
	return out
}
