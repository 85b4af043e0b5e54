package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Status is the terminal outcome of one lifecycle cycle.
type Status string

const (
	StatusCompleted Status = "completed_successfully"
	StatusRejected  Status = "rejected"
	StatusNoData    Status = "no_data"
	StatusNoTrigger Status = "no_trigger"
	StatusFailed    Status = "failed"
)

// Report describes exactly what one cycle did and why. A report is
// written for every run, even when nothing changed.
type Report struct {
	RunID             string             `json:"run_id"`
	Timestamp         time.Time          `json:"timestamp"`
	Status            Status             `json:"status"`
	Performance       float64            `json:"performance,omitempty"`
	SampleCount       int                `json:"sample_count,omitempty"`
	FeatureCount      int                `json:"feature_count,omitempty"`
	TriggerReasons    []string           `json:"trigger_reasons,omitempty"`
	TrainingInfo      *TrainingInfo      `json:"training_info,omitempty"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// WriteReport writes the report into dir under a timestamped name and
// returns the path.
func WriteReport(r *Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	name := fmt.Sprintf("retraining_report_%s.json", r.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
