package training

import (
	"github.com/equipsense/equipsense/internal/model"
)

// ComposeWeights converts per-candidate cross-validated scores into
// normalized blending weights. Candidates with non-positive CV score (or
// a failed fit) get weight zero and are excluded from the normalizing
// sum; when no candidate has a positive score, weighting falls back to
// uniform across all successful candidates so the weight vector is never
// all-zero or NaN. The returned weights always sum to 1 within floating
// tolerance.
func ComposeWeights(results []Result) map[string]float64 {
	weights := make(map[string]float64, len(results))

	var total float64
	for _, res := range results {
		if res.Err == nil && res.CVMean > 0 {
			total += res.CVMean
		}
	}

	if total > 0 {
		for _, res := range results {
			if res.Err == nil && res.CVMean > 0 {
				weights[res.Name] = res.CVMean / total
			} else if res.Err == nil {
				weights[res.Name] = 0
			}
		}
		return weights
	}

	// Uniform fallback across successful candidates.
	usable := 0
	for _, res := range results {
		if res.Err == nil {
			usable++
		}
	}
	for _, res := range results {
		if res.Err == nil {
			weights[res.Name] = 1 / float64(usable)
		}
	}
	return weights
}

// NewEnsemble builds the blended predictor from successful candidates and
// their composed weights. Zero-weight members are dropped: they cannot
// contribute to predictions and would only bloat the artifact.
func NewEnsemble(results []Result, weights map[string]float64) *model.Ensemble {
	ensemble := &model.Ensemble{}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		w := weights[res.Name]
		if w <= 0 {
			continue
		}
		ensemble.Members = append(ensemble.Members, model.WeightedModel{
			Name:   res.Name,
			Weight: w,
			Model:  res.Model,
		})
	}
	return ensemble
}
