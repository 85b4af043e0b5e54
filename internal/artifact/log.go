package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TrainingLog records the most recent training event. The criteria
// evaluator reads it on the next cycle to compute days-since-training and
// new-data counts; the lifecycle manager replaces it after every cycle
// that actually trained, promoted or not.
type TrainingLog struct {
	LastTrainingDate time.Time `json:"last_training_date"`
	Performance      float64   `json:"performance"`
	SampleCount      int       `json:"sample_count"`
	TrainingType     string    `json:"training_type"`
}

// ReadTrainingLog loads the log. A missing or unreadable log is an error
// the caller is expected to treat as "no previous training record".
func ReadTrainingLog(path string) (*TrainingLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training log: %w", err)
	}
	var log TrainingLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("decode training log: %w", err)
	}
	return &log, nil
}

// WriteTrainingLog replaces the log atomically.
func WriteTrainingLog(log *TrainingLog, path string) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("encode training log: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".traininglog-*")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write training log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close training log: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("install training log: %w", err)
	}
	return nil
}
