package model

import (
	"errors"
	"math/rand"
)

// Forest is a bagged ensemble of depth-limited regression trees with
// per-split feature subsampling.
type Forest struct {
	Trees      []*treeNode `json:"trees"`
	Importance []float64   `json:"importance,omitempty"`

	nTrees      int
	maxDepth    int
	minLeaf     int
	featureFrac float64
	seed        int64
}

// NewForest creates an unfitted random forest. The seed fixes both
// bootstrap sampling and feature subsampling for reproducible runs.
func NewForest(seed int64) *Forest {
	return &Forest{
		nTrees:      100,
		maxDepth:    10,
		minLeaf:     2,
		featureFrac: 1.0 / 3.0,
		seed:        seed,
	}
}

// Name returns the model kind.
func (m *Forest) Name() string { return KindForest }

// Fit grows nTrees trees on bootstrap samples of the training data.
func (m *Forest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("forest: empty or mismatched training data")
	}
	rng := rand.New(rand.NewSource(m.seed))
	opts := treeOptions{maxDepth: m.maxDepth, minLeaf: m.minLeaf, featureFrac: m.featureFrac}

	n := len(X)
	m.Trees = make([]*treeNode, 0, m.nTrees)
	m.Importance = make([]float64, len(X[0]))
	for t := 0; t < m.nTrees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		m.Trees = append(m.Trees, growTree(X, y, idx, 0, opts, rng, m.Importance))
	}

	normalize(m.Importance)
	return nil
}

// Predict averages the member trees.
func (m *Forest) Predict(x []float64) float64 {
	if len(m.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range m.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(m.Trees))
}

// FeatureImportance returns normalized split-gain importance.
func (m *Forest) FeatureImportance() []float64 {
	return m.Importance
}

func normalize(w []float64) {
	var total float64
	for _, v := range w {
		total += v
	}
	if total == 0 {
		return
	}
	for i := range w {
		w[i] /= total
	}
}
