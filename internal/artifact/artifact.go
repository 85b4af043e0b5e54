package artifact

import (
	"errors"
	"fmt"
	"time"

	"github.com/equipsense/equipsense/internal/model"
)

// SchemaVersion is the persisted artifact format version. Load rejects
// artifacts written with a different version instead of guessing.
const SchemaVersion = 1

// PerformanceMetrics summarizes the ensemble's quality at training time.
type PerformanceMetrics struct {
	R2     float64 `json:"r2"`
	MSE    float64 `json:"mse"`
	CVMean float64 `json:"cv_mean"`
	CVStd  float64 `json:"cv_std"`
}

// ModelInfo is the deployable model payload: fitted members, blending
// weights and the exact ordered feature list used at training time.
type ModelInfo struct {
	ModelName          string             `json:"model_name"`
	Models             []model.Persisted  `json:"models"`
	EnsembleWeights    map[string]float64 `json:"ensemble_weights"`
	FeatureNames       []string           `json:"feature_names"`
	PromotionThreshold float64            `json:"promotion_threshold"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
}

// TrainingInfo records how and when the artifact was produced.
type TrainingInfo struct {
	TrainingDate    string `json:"training_date"`
	TrainingSamples int    `json:"training_samples"`
	TestSamples     int    `json:"test_samples"`
	FeatureCount    int    `json:"feature_count"`
	TriggerReason   string `json:"trigger_reason"`
}

// Artifact is the versioned deployable unit. Exactly one artifact is
// production at any time, identified by its well-known path.
type Artifact struct {
	SchemaVersion int          `json:"schema_version"`
	ModelInfo     ModelInfo    `json:"model_info"`
	TrainingInfo  TrainingInfo `json:"training_info"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Predictor rebuilds the blended predictor from the persisted members.
func (a *Artifact) Predictor() (*model.Ensemble, error) {
	ensemble := &model.Ensemble{}
	for _, p := range a.ModelInfo.Models {
		m, err := model.Unmarshal(p)
		if err != nil {
			return nil, fmt.Errorf("restore member: %w", err)
		}
		w := a.ModelInfo.EnsembleWeights[p.Kind]
		if w <= 0 {
			continue
		}
		ensemble.Members = append(ensemble.Members, model.WeightedModel{
			Name:   p.Kind,
			Weight: w,
			Model:  m,
		})
	}
	if len(ensemble.Members) == 0 {
		return nil, errors.New("artifact has no members with positive weight")
	}
	return ensemble, nil
}
