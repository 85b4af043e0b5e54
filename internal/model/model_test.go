package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synthetic builds n rows of a smooth two-feature relationship.
func synthetic(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a := rng.Float64() * 10
		b := rng.Float64() * 5
		X[i] = []float64{a, b}
		y[i] = 2*a - 0.5*b + 1
	}
	return X, y
}

func TestLinearRecoversCoefficients(t *testing.T) {
	X, y := synthetic(200, 1)

	m := NewLinear()
	require.NoError(t, m.Fit(X, y))
	require.Len(t, m.Weights, 3)

	assert.InDelta(t, 2.0, m.Weights[0], 1e-4)
	assert.InDelta(t, -0.5, m.Weights[1], 1e-4)
	assert.InDelta(t, 1.0, m.Weights[2], 1e-4)

	assert.InDelta(t, 2*3.0-0.5*2.0+1, m.Predict([]float64{3, 2}), 1e-3)
}

func TestLinearRejectsEmptyData(t *testing.T) {
	m := NewLinear()
	assert.Error(t, m.Fit(nil, nil))
}

func TestForestFitsNonlinearTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 400
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		a := rng.Float64() * 10
		b := rng.Float64() * 10
		X[i] = []float64{a, b}
		y[i] = math.Sin(a) + 0.1*b
	}

	m := NewForest(42)
	require.NoError(t, m.Fit(X, y))

	preds := make([]float64, n)
	for i, x := range X {
		preds[i] = m.Predict(x)
	}
	assert.Greater(t, R2(preds, y), 0.8, "forest should fit its own training data well")

	imp := m.FeatureImportance()
	require.Len(t, imp, 2)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9, "importance should be normalized")
	assert.Greater(t, imp[0], imp[1], "the sinusoidal feature drives most of the variance")
}

func TestBoostingReducesResiduals(t *testing.T) {
	X, y := synthetic(300, 3)

	m := NewBoosting(42)
	require.NoError(t, m.Fit(X, y))

	preds := make([]float64, len(X))
	for i, x := range X {
		preds[i] = m.Predict(x)
	}
	assert.Greater(t, R2(preds, y), 0.9)
}

func TestMLPLearnsLinearRelation(t *testing.T) {
	X, y := synthetic(300, 5)

	m := NewMLP(42)
	require.NoError(t, m.Fit(X, y))

	preds := make([]float64, len(X))
	for i, x := range X {
		preds[i] = m.Predict(x)
	}
	assert.Greater(t, R2(preds, y), 0.9)
}

func TestPersistRoundTrip(t *testing.T) {
	X, y := synthetic(150, 11)

	fitted := NewForest(42)
	require.NoError(t, fitted.Fit(X, y))

	p, err := Marshal(fitted)
	require.NoError(t, err)
	assert.Equal(t, KindForest, p.Kind)

	restored, err := Unmarshal(p)
	require.NoError(t, err)

	for _, x := range X[:20] {
		assert.InDelta(t, fitted.Predict(x), restored.Predict(x), 1e-12,
			"restored model must predict identically")
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	_, err := Unmarshal(Persisted{Kind: "support_vector_machine", Params: []byte("{}")})
	assert.Error(t, err)
}

func TestR2EdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, R2([]float64{1}, []float64{1}), "single sample has no variance")
	assert.Equal(t, 0.0, R2([]float64{1, 2, 3}, []float64{5, 5, 5}), "constant target scores zero, not NaN")

	perfect := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.0, R2(perfect, perfect), 1e-12)
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 100}, {2, 200}, {3, 300}}
	s := &StandardScaler{}
	s.Fit(X)

	mid := s.Transform([]float64{2, 200})
	assert.InDelta(t, 0, mid[0], 1e-12)
	assert.InDelta(t, 0, mid[1], 1e-12)

	// Constant column must not divide by zero.
	s2 := &StandardScaler{}
	s2.Fit([][]float64{{5}, {5}, {5}})
	out := s2.Transform([]float64{5})
	assert.False(t, math.IsNaN(out[0]))
}

func TestEnsemblePredictBlends(t *testing.T) {
	X, y := synthetic(100, 13)

	lin := NewLinear()
	require.NoError(t, lin.Fit(X, y))

	e := &Ensemble{Members: []WeightedModel{
		{Name: KindLinear, Weight: 0.75, Model: lin},
		{Name: KindForest, Weight: 0.25, Model: constantModel(4)},
	}}

	x := []float64{1, 1}
	want := 0.75*lin.Predict(x) + 0.25*4
	assert.InDelta(t, want, e.Predict(x), 1e-12)
}

type constantModel float64

func (c constantModel) Name() string                         { return "constant" }
func (c constantModel) Fit(_ [][]float64, _ []float64) error { return nil }
func (c constantModel) Predict(_ []float64) float64          { return float64(c) }
