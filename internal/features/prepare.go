package features

import (
	"errors"
	"fmt"

	"github.com/equipsense/equipsense/internal/dataset"
)

// Identifier columns are never used as features.
var identifierColumns = map[string]bool{
	"id":           true,
	"equipment_id": true,
}

// Prepared is the training matrix derived from a table. Names is the
// exact ordered feature list and must be persisted with any artifact
// trained on X: prediction-time ordering has to match it exactly.
type Prepared struct {
	X     [][]float64
	Y     []float64
	Names []string
}

// Prepare derives engineered features, selects the numeric feature
// columns and builds the training matrix. Missing values are imputed with
// zero rather than dropped so the row count (and with it the training
// population) is preserved.
func Prepare(table *dataset.Table) (*Prepared, error) {
	if table.Len() == 0 {
		return nil, errors.New("prepare: empty table")
	}

	deriveFeatures(table)

	names := selectNumeric(table)
	if len(names) == 0 {
		return nil, errors.New("prepare: no numeric feature columns")
	}

	prepared := &Prepared{
		X:     make([][]float64, 0, table.Len()),
		Y:     make([]float64, 0, table.Len()),
		Names: names,
	}
	for i := range table.Rows {
		target, ok := table.Float(i, dataset.TargetColumn)
		if !ok {
			return nil, fmt.Errorf("prepare: row %d has no target value", i)
		}
		row := make([]float64, len(names))
		for j, name := range names {
			if v, ok := table.Float(i, name); ok {
				row[j] = v
			}
		}
		prepared.X = append(prepared.X, row)
		prepared.Y = append(prepared.Y, target)
	}

	return prepared, nil
}

// Align builds a feature matrix in the exact column order an existing
// artifact was trained with. Columns the table no longer carries are
// filled with zeros, matching the imputation used at training time.
func Align(table *dataset.Table, names []string) (X [][]float64, y []float64, err error) {
	if table.Len() == 0 {
		return nil, nil, errors.New("align: empty table")
	}
	if len(names) == 0 {
		return nil, nil, errors.New("align: empty feature list")
	}

	deriveFeatures(table)

	X = make([][]float64, 0, table.Len())
	y = make([]float64, 0, table.Len())
	for i := range table.Rows {
		target, ok := table.Float(i, dataset.TargetColumn)
		if !ok {
			return nil, nil, fmt.Errorf("align: row %d has no target value", i)
		}
		row := make([]float64, len(names))
		for j, name := range names {
			if v, ok := table.Float(i, name); ok {
				row[j] = v
			}
		}
		X = append(X, row)
		y = append(y, target)
	}
	return X, y, nil
}

// selectNumeric returns the columns usable as features: numeric in every
// populated cell, not the target (either spelling) and not an identifier.
func selectNumeric(table *dataset.Table) []string {
	names := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		if col == dataset.TargetColumn || col == dataset.AltTargetColumn || identifierColumns[col] {
			continue
		}
		if isNumeric(table, col) {
			names = append(names, col)
		}
	}
	return names
}

func isNumeric(table *dataset.Table, col string) bool {
	seen := false
	for _, row := range table.Rows {
		v, ok := row[col]
		if !ok {
			continue
		}
		if _, ok := v.(float64); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// derivedFeature computes one engineered column from existing cells.
type derivedFeature struct {
	name    string
	sources []string
	compute func(v map[string]float64) float64
}

var derivedFeatures = []derivedFeature{
	{
		name:    "age_years",
		sources: []string{"age_months"},
		compute: func(v map[string]float64) float64 { return v["age_months"] / 12 },
	},
	{
		name:    "cumulative_usage",
		sources: []string{"daily_usage_hours", "age_months"},
		compute: func(v map[string]float64) float64 {
			return v["daily_usage_hours"] * v["age_months"] * 30
		},
	},
	{
		name:    "usage_intensity",
		sources: []string{"daily_usage_hours"},
		compute: func(v map[string]float64) float64 { return v["daily_usage_hours"] / 12 },
	},
	{
		name:    "maintenance_frequency",
		sources: []string{"maintenance_count", "age_months"},
		compute: func(v map[string]float64) float64 {
			return v["maintenance_count"] / (v["age_months"] + 1)
		},
	},
	{
		name:    "temperature_stress",
		sources: []string{"operating_temperature", "room_temperature"},
		compute: func(v map[string]float64) float64 {
			if v["room_temperature"] == 0 {
				return 0
			}
			return (v["operating_temperature"] - v["room_temperature"]) / v["room_temperature"]
		},
	},
	{
		name:    "age_usage_interaction",
		sources: []string{"age_months", "daily_usage_hours"},
		compute: func(v map[string]float64) float64 {
			return v["age_months"] * v["daily_usage_hours"]
		},
	},
}

// deriveFeatures adds engineered columns where the source columns exist.
// Idempotent: a column already present is left alone so an aligned table
// is never derived twice.
func deriveFeatures(table *dataset.Table) {
	for _, d := range derivedFeatures {
		if table.HasColumn(d.name) {
			continue
		}
		available := true
		for _, src := range d.sources {
			if !table.HasColumn(src) {
				available = false
				break
			}
		}
		if !available {
			continue
		}

		table.AddColumn(d.name)
		for i, row := range table.Rows {
			values := make(map[string]float64, len(d.sources))
			complete := true
			for _, src := range d.sources {
				v, ok := table.Float(i, src)
				if !ok {
					complete = false
					break
				}
				values[src] = v
			}
			if complete {
				row[d.name] = d.compute(values)
			}
		}
	}
}
