package lifecycle

import (
	"context"
	"fmt"

	"github.com/equipsense/equipsense/internal/artifact"
	"github.com/equipsense/equipsense/internal/dataset"
	"github.com/equipsense/equipsense/internal/features"
	"github.com/equipsense/equipsense/internal/model"
)

// scoreOnTable evaluates an artifact's R² on a table, aligning the
// table's columns to the exact feature order the artifact was trained
// with.
func scoreOnTable(a *artifact.Artifact, table *dataset.Table) (float64, error) {
	predictor, err := a.Predictor()
	if err != nil {
		return 0, fmt.Errorf("restore predictor: %w", err)
	}

	X, y, err := features.Align(table, a.ModelInfo.FeatureNames)
	if err != nil {
		return 0, fmt.Errorf("align features: %w", err)
	}

	preds := make([]float64, len(X))
	for i, x := range X {
		preds[i] = predictor.Predict(x)
	}
	return model.R2(preds, y), nil
}

// scoreOnFreshData resolves a fresh export and scores the artifact on it.
func scoreOnFreshData(ctx context.Context, a *artifact.Artifact, resolver *dataset.Resolver) (float64, error) {
	table, err := resolver.Resolve(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve evaluation data: %w", err)
	}
	return scoreOnTable(a, table)
}
