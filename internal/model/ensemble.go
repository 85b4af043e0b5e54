package model

// WeightedModel is one ensemble member with its blending weight.
type WeightedModel struct {
	Name   string
	Weight float64
	Model  Regressor
}

// Ensemble blends member predictions by weight. Members apply their own
// input transforms (the neural network scales through its persisted
// scaler), so the ensemble itself only combines outputs.
type Ensemble struct {
	Members []WeightedModel
}

// Predict returns the weight-dot-product of member predictions.
func (e *Ensemble) Predict(x []float64) float64 {
	var sum float64
	for _, m := range e.Members {
		sum += m.Weight * m.Model.Predict(x)
	}
	return sum
}
