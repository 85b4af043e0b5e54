package model

import (
	"encoding/json"
	"fmt"
)

// Model kinds, matching the candidate pool of the production pipeline.
const (
	KindLinear   = "linear_regression"
	KindForest   = "random_forest"
	KindBoosting = "gradient_boosting"
	KindMLP      = "neural_network"
)

// Regressor is a trainable single-output regression model. Fit must be
// called before Predict; a model restored from its persisted form is
// already fitted.
type Regressor interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
}

// ImportanceReporter is implemented by models that expose per-feature
// importance weights after fitting.
type ImportanceReporter interface {
	FeatureImportance() []float64
}

// Persisted is the serialized form of a fitted model: a tagged union of
// model kind and parameter payload, embedded in the artifact file.
type Persisted struct {
	Kind   string          `json:"kind"`
	Params json.RawMessage `json:"params"`
}

// Marshal serializes a fitted model.
func Marshal(r Regressor) (Persisted, error) {
	params, err := json.Marshal(r)
	if err != nil {
		return Persisted{}, fmt.Errorf("marshal %s: %w", r.Name(), err)
	}
	return Persisted{Kind: r.Name(), Params: params}, nil
}

// Unmarshal restores a fitted model from its persisted form. Unknown
// kinds are an error so schema drift is caught at load time, not at
// prediction time.
func Unmarshal(p Persisted) (Regressor, error) {
	var r Regressor
	switch p.Kind {
	case KindLinear:
		r = &Linear{}
	case KindForest:
		r = &Forest{}
	case KindBoosting:
		r = &Boosting{}
	case KindMLP:
		r = &MLP{}
	default:
		return nil, fmt.Errorf("unknown model kind %q", p.Kind)
	}
	if err := json.Unmarshal(p.Params, r); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", p.Kind, err)
	}
	return r, nil
}
