package model

import (
	"fmt"
	"sort"
)

// AUC computes the area under the ROC curve via the rank-sum formulation,
// with average ranks for tied scores. Reporting only; the inference contract
// never depends on it.
func AUC(y []int, scores []float64) (float64, error) {
	if len(y) != len(scores) {
		return 0, fmt.Errorf("got %d labels and %d scores", len(y), len(scores))
	}

	var pos, neg int
	for _, label := range y {
		switch label {
		case 1:
			pos++
		case 0:
			neg++
		default:
			return 0, fmt.Errorf("label %d is not binary", label)
		}
	}
	if pos == 0 || neg == 0 {
		return 0, fmt.Errorf("AUC undefined: need both classes, got %d positive and %d negative", pos, neg)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	// Assign average ranks across tie groups, accumulate ranks of positives.
	var rankSumPos float64
	i := 0
	for i < len(order) {
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			j++
		}
		// Ranks are 1-based; the tie group [i,j) shares the average rank.
		avgRank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if y[order[k]] == 1 {
				rankSumPos += avgRank
			}
		}
		i = j
	}

	nPos := float64(pos)
	nNeg := float64(neg)
	return (rankSumPos - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}
