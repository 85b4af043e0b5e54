package model

import (
	"math/rand"
	"sort"
)

// maxThresholds caps the number of split points examined per feature so
// growth stays near O(n log n) on wide numeric columns.
const maxThresholds = 64

// treeNode is one node of a regression tree. Exported fields keep the
// fitted tree JSON-serializable inside the artifact.
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if n.Feature < len(x) && x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

type treeOptions struct {
	maxDepth    int
	minLeaf     int
	featureFrac float64 // fraction of features examined per split (1 = all)
}

// growTree builds a regression tree over the rows in idx, minimizing the
// sum of squared errors. Split gains are accumulated into importance by
// feature index when it is non-nil.
func growTree(X [][]float64, y []float64, idx []int, depth int, opts treeOptions, rng *rand.Rand, importance []float64) *treeNode {
	mean, sse := meanSSE(y, idx)
	if depth >= opts.maxDepth || len(idx) < 2*opts.minLeaf || sse == 0 {
		return &treeNode{Leaf: true, Value: mean}
	}

	feature, threshold, gain, ok := bestSplit(X, y, idx, opts, rng, sse)
	if !ok {
		return &treeNode{Leaf: true, Value: mean}
	}
	if importance != nil && feature < len(importance) {
		importance[feature] += gain
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(X, y, left, depth+1, opts, rng, importance),
		Right:     growTree(X, y, right, depth+1, opts, rng, importance),
	}
}

// bestSplit scans a (possibly subsampled) set of features for the split
// with the largest SSE reduction.
func bestSplit(X [][]float64, y []float64, idx []int, opts treeOptions, rng *rand.Rand, parentSSE float64) (feature int, threshold, gain float64, ok bool) {
	d := len(X[idx[0]])
	candidates := featureSubset(d, opts.featureFrac, rng)

	bestSSE := parentSSE
	order := make([]int, len(idx))

	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		// Prefix sums over the sorted order make each split O(1).
		var sumL, sumSqL float64
		var sumR, sumSqR float64
		for _, i := range order {
			sumR += y[i]
			sumSqR += y[i] * y[i]
		}

		n := len(order)
		stride := 1
		if n > maxThresholds {
			stride = n / maxThresholds
		}

		for pos := 1; pos < n; pos++ {
			i := order[pos-1]
			sumL += y[i]
			sumSqL += y[i] * y[i]
			sumR -= y[i]
			sumSqR -= y[i] * y[i]

			if pos%stride != 0 {
				continue
			}
			if pos < opts.minLeaf || n-pos < opts.minLeaf {
				continue
			}
			if X[order[pos]][f] == X[order[pos-1]][f] {
				continue
			}

			nl, nr := float64(pos), float64(n-pos)
			sse := (sumSqL - sumL*sumL/nl) + (sumSqR - sumR*sumR/nr)
			if sse < bestSSE {
				bestSSE = sse
				feature = f
				threshold = (X[order[pos]][f] + X[order[pos-1]][f]) / 2
				ok = true
			}
		}
	}

	return feature, threshold, parentSSE - bestSSE, ok
}

func featureSubset(d int, frac float64, rng *rand.Rand) []int {
	if frac >= 1 || rng == nil {
		all := make([]int, d)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(float64(d) * frac)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(d)
	return perm[:k]
}

func meanSSE(y []float64, idx []int) (mean, sse float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	n := float64(len(idx))
	mean = sum / n
	sse = sumSq - sum*sum/n
	if sse < 0 {
		sse = 0 // floating rounding on constant targets
	}
	return mean, sse
}
