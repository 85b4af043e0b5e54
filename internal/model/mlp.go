package model

import (
	"errors"
	"math"
	"math/rand"
)

// MLP is a single-hidden-layer feed-forward network trained with plain
// SGD. Inputs go through a fitted StandardScaler and the target is
// standardized during training; both transforms are persisted so a loaded
// model predicts identically.
type MLP struct {
	Scaler *StandardScaler `json:"scaler"`
	W1     [][]float64     `json:"w1"` // hidden x input
	B1     []float64       `json:"b1"`
	W2     []float64       `json:"w2"`
	B2     float64         `json:"b2"`
	YMean  float64         `json:"y_mean"`
	YStd   float64         `json:"y_std"`

	hidden int
	epochs int
	lr     float64
	seed   int64
}

// NewMLP creates an unfitted network.
func NewMLP(seed int64) *MLP {
	return &MLP{
		hidden: 32,
		epochs: 200,
		lr:     0.01,
		seed:   seed,
	}
}

// Name returns the model kind.
func (m *MLP) Name() string { return KindMLP }

// Fit trains by stochastic gradient descent on squared error.
func (m *MLP) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("mlp: empty or mismatched training data")
	}
	d := len(X[0])
	if d == 0 {
		return errors.New("mlp: no features")
	}

	m.Scaler = &StandardScaler{}
	m.Scaler.Fit(X)
	scaled := make([][]float64, len(X))
	for i := range X {
		scaled[i] = m.Scaler.Transform(X[i])
	}

	m.YMean, m.YStd = MeanStd(y)
	if m.YStd == 0 {
		m.YStd = 1
	}
	target := make([]float64, len(y))
	for i := range y {
		target[i] = (y[i] - m.YMean) / m.YStd
	}

	rng := rand.New(rand.NewSource(m.seed))
	scale := 1 / math.Sqrt(float64(d))
	m.W1 = make([][]float64, m.hidden)
	m.B1 = make([]float64, m.hidden)
	m.W2 = make([]float64, m.hidden)
	for h := 0; h < m.hidden; h++ {
		m.W1[h] = make([]float64, d)
		for j := 0; j < d; j++ {
			m.W1[h][j] = rng.NormFloat64() * scale
		}
		m.W2[h] = rng.NormFloat64() / math.Sqrt(float64(m.hidden))
	}
	m.B2 = 0

	order := make([]int, len(scaled))
	for i := range order {
		order[i] = i
	}

	act := make([]float64, m.hidden)
	for epoch := 0; epoch < m.epochs; epoch++ {
		rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		for _, i := range order {
			x := scaled[i]

			// forward
			out := m.B2
			for h := 0; h < m.hidden; h++ {
				z := m.B1[h]
				for j := range x {
					z += m.W1[h][j] * x[j]
				}
				act[h] = math.Tanh(z)
				out += m.W2[h] * act[h]
			}

			// backward, squared error gradient
			delta := out - target[i]
			for h := 0; h < m.hidden; h++ {
				gradW2 := delta * act[h]
				deltaHidden := delta * m.W2[h] * (1 - act[h]*act[h])
				m.W2[h] -= m.lr * gradW2
				m.B1[h] -= m.lr * deltaHidden
				for j := range x {
					m.W1[h][j] -= m.lr * deltaHidden * x[j]
				}
			}
			m.B2 -= m.lr * delta
		}
	}

	return nil
}

// Predict runs one forward pass and rescales the output.
func (m *MLP) Predict(x []float64) float64 {
	if m.Scaler == nil || len(m.W1) == 0 {
		return 0
	}
	scaled := m.Scaler.Transform(x)
	out := m.B2
	for h := range m.W1 {
		z := m.B1[h]
		for j := range scaled {
			if j < len(m.W1[h]) {
				z += m.W1[h][j] * scaled[j]
			}
		}
		out += m.W2[h] * math.Tanh(z)
	}
	return out*m.YStd + m.YMean
}
