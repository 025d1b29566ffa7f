package model

import (
	"sort"
)

// Node is one node of a regression tree, stored flat with child indexes.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// Tree is a depth-limited regression tree fitted to the boosting gradients.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for !t.Nodes[i].Leaf {
		n := t.Nodes[i]
		if row[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// treeBuilder grows a single tree against the current gradient/hessian
// vectors using exact greedy splitting. Ties are broken toward the lower
// feature index and lower threshold, so the structure is deterministic for
// a given input ordering.
type treeBuilder struct {
	X         [][]float64
	grad      []float64
	hess      []float64
	maxDepth  int
	minLeaf   int
	lambda    float64
	shrinkage float64

	nodes []Node
}

func (b *treeBuilder) build(indices []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(indices, 0)
	return Tree{Nodes: append([]Node(nil), b.nodes...)}
}

// grow appends the subtree for indices and returns its root node index.
func (b *treeBuilder) grow(indices []int, depth int) int {
	var g, h float64
	for _, i := range indices {
		g += b.grad[i]
		h += b.hess[i]
	}

	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, Node{})

	if depth >= b.maxDepth || len(indices) < 2*b.minLeaf {
		b.nodes[nodeIdx] = leafNode(g, h, b.lambda, b.shrinkage)
		return nodeIdx
	}

	feature, threshold, gain := b.bestSplit(indices, g, h)
	if gain <= 0 {
		b.nodes[nodeIdx] = leafNode(g, h, b.lambda, b.shrinkage)
		return nodeIdx
	}

	var left, right []int
	for _, i := range indices {
		if b.X[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	leftIdx := b.grow(left, depth+1)
	rightIdx := b.grow(right, depth+1)

	b.nodes[nodeIdx] = Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      leftIdx,
		Right:     rightIdx,
	}
	return nodeIdx
}

func leafNode(g, h, lambda, shrinkage float64) Node {
	return Node{
		Leaf:  true,
		Value: -shrinkage * g / (h + lambda),
	}
}

// bestSplit scans every feature for the split maximizing the gain
//
//	GL^2/(HL+l) + GR^2/(HR+l) - G^2/(H+l)
//
// subject to minLeaf samples on each side.
func (b *treeBuilder) bestSplit(indices []int, g, h float64) (int, float64, float64) {
	parent := g * g / (h + b.lambda)

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0

	numFeatures := len(b.X[indices[0]])
	order := make([]int, len(indices))

	for f := 0; f < numFeatures; f++ {
		copy(order, indices)
		sort.SliceStable(order, func(a, c int) bool {
			va, vc := b.X[order[a]][f], b.X[order[c]][f]
			if va != vc {
				return va < vc
			}
			return order[a] < order[c]
		})

		var gl, hl float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			gl += b.grad[i]
			hl += b.hess[i]

			// Split only between distinct feature values.
			cur, next := b.X[i][f], b.X[order[k+1]][f]
			if cur == next {
				continue
			}
			if k+1 < b.minLeaf || len(order)-(k+1) < b.minLeaf {
				continue
			}

			gr := g - gl
			hr := h - hl
			gain := gl*gl/(hl+b.lambda) + gr*gr/(hr+b.lambda) - parent

			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}
