package model

import (
	"errors"
	"math/rand"
)

// Boosting is gradient boosting over shallow regression trees: each round
// fits a tree to the residuals of the running prediction.
type Boosting struct {
	Bias         float64     `json:"bias"`
	LearningRate float64     `json:"learning_rate"`
	Trees        []*treeNode `json:"trees"`
	Importance   []float64   `json:"importance,omitempty"`

	rounds   int
	maxDepth int
	minLeaf  int
	seed     int64
}

// NewBoosting creates an unfitted gradient boosting model.
func NewBoosting(seed int64) *Boosting {
	return &Boosting{
		LearningRate: 0.1,
		rounds:       100,
		maxDepth:     6,
		minLeaf:      2,
		seed:         seed,
	}
}

// Name returns the model kind.
func (m *Boosting) Name() string { return KindBoosting }

// Fit boosts rounds trees against the shrinking residual.
func (m *Boosting) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("boosting: empty or mismatched training data")
	}
	rng := rand.New(rand.NewSource(m.seed))
	opts := treeOptions{maxDepth: m.maxDepth, minLeaf: m.minLeaf, featureFrac: 1}

	n := len(X)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	m.Bias = sum / float64(n)

	residual := make([]float64, n)
	for i := range y {
		residual[i] = y[i] - m.Bias
	}

	m.Trees = make([]*treeNode, 0, m.rounds)
	m.Importance = make([]float64, len(X[0]))
	for round := 0; round < m.rounds; round++ {
		tree := growTree(X, residual, idx, 0, opts, rng, m.Importance)
		m.Trees = append(m.Trees, tree)
		for i := range residual {
			residual[i] -= m.LearningRate * tree.predict(X[i])
		}
	}

	normalize(m.Importance)
	return nil
}

// Predict sums the bias and the shrunken tree contributions.
func (m *Boosting) Predict(x []float64) float64 {
	sum := m.Bias
	for _, t := range m.Trees {
		sum += m.LearningRate * t.predict(x)
	}
	return sum
}

// FeatureImportance returns normalized split-gain importance.
func (m *Boosting) FeatureImportance() []float64 {
	return m.Importance
}
