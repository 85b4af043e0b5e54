package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/equipsense/equipsense/internal/artifact"
	"github.com/equipsense/equipsense/internal/dataset"
)

// Decision is the terminal outcome of a promotion attempt.
type Decision string

const (
	DecisionPromoted Decision = "promoted"
	DecisionRejected Decision = "rejected"
)

// PromotionConfig holds the promotion rule parameters.
type PromotionConfig struct {
	ArtifactPath string
	// MinImprovement is the margin a candidate must beat the production
	// score by. Zero reproduces the strict better-than rule.
	MinImprovement float64
}

// PromotionManager compares a freshly trained candidate against the
// production artifact and performs the swap. The swap is the only place
// in the pipeline that mutates the production path, and it does so
// through atomic renames with rollback so the path never points at a
// missing or partial file.
type PromotionManager struct {
	cfg    PromotionConfig
	store  *artifact.Store
	logger *zap.SugaredLogger
	now    func() time.Time

	// rename is swappable for failure-injection in tests.
	rename func(oldpath, newpath string) error
}

// NewPromotionManager creates a promotion manager.
func NewPromotionManager(cfg PromotionConfig, store *artifact.Store, logger *zap.SugaredLogger) *PromotionManager {
	return &PromotionManager{
		cfg:    cfg,
		store:  store,
		logger: logger,
		now:    time.Now,
		rename: os.Rename,
	}
}

// DecideAndApply evaluates the production artifact on the same fresh
// holdout used to judge the candidate and promotes the candidate only if
// it is strictly better (by at least MinImprovement). The current score
// is nil when no production artifact exists or it cannot be scored; both
// cases promote the candidate.
func (p *PromotionManager) DecideAndApply(cand *artifact.Artifact, holdout *dataset.Table) (Decision, *float64, error) {
	currentR2 := p.currentScore(holdout)
	candR2 := cand.ModelInfo.PerformanceMetrics.R2

	if currentR2 != nil && candR2 <= *currentR2+p.cfg.MinImprovement {
		p.logger.Infow("candidate not better than production, keeping current model",
			"candidate_r2", candR2, "current_r2", *currentR2)
		if err := p.archiveRejected(cand); err != nil {
			p.logger.Warnw("could not archive rejected candidate", "error", err)
		}
		return DecisionRejected, currentR2, nil
	}

	if err := p.promote(cand); err != nil {
		return "", currentR2, err
	}
	p.logger.Infow("candidate promoted to production",
		"candidate_r2", candR2, "path", p.cfg.ArtifactPath)
	return DecisionPromoted, currentR2, nil
}

// currentScore loads and scores the production artifact. Every failure
// maps to nil: a model that cannot be loaded or scored must not block a
// working replacement.
func (p *PromotionManager) currentScore(holdout *dataset.Table) *float64 {
	current, err := p.store.Load(p.cfg.ArtifactPath)
	if err != nil {
		p.logger.Infow("no scorable production artifact", "error", err)
		return nil
	}
	r2, err := scoreOnTable(current, holdout)
	if err != nil {
		p.logger.Warnw("production artifact evaluation failed", "error", err)
		return nil
	}
	return &r2
}

// promote runs the critical section:
//  1. write the candidate to a versioned file (atomic in itself)
//  2. rename the production artifact to a timestamped backup
//  3. rename the candidate file onto the production path
//
// If step 3 fails after step 2 succeeded, the backup is restored before
// the error surfaces; the production path is never left empty.
func (p *PromotionManager) promote(cand *artifact.Artifact) error {
	dir := filepath.Dir(p.cfg.ArtifactPath)
	candidatePath := filepath.Join(dir, fmt.Sprintf("candidate-%s.json", p.now().Format("20060102_150405")))

	if err := p.store.Save(cand, candidatePath); err != nil {
		return &PromotionIOError{Op: "save", Path: candidatePath, RolledBack: true, Err: err}
	}

	backupPath := ""
	if _, err := os.Stat(p.cfg.ArtifactPath); err == nil {
		backupPath, err = p.store.Backup(p.cfg.ArtifactPath)
		if err != nil {
			// Production artifact untouched; only the candidate file remains.
			os.Remove(candidatePath)
			return &PromotionIOError{Op: "backup", Path: p.cfg.ArtifactPath, RolledBack: true, Err: err}
		}
	}

	if err := p.rename(candidatePath, p.cfg.ArtifactPath); err != nil {
		rolledBack := false
		if backupPath != "" {
			if restoreErr := p.rename(backupPath, p.cfg.ArtifactPath); restoreErr != nil {
				p.logger.Errorw("rollback failed, production path may be empty",
					"backup", backupPath, "error", restoreErr)
			} else {
				rolledBack = true
			}
		}
		os.Remove(candidatePath)
		return &PromotionIOError{Op: "install", Path: p.cfg.ArtifactPath, RolledBack: rolledBack, Err: err}
	}

	return nil
}

// archiveRejected keeps the losing candidate on disk for inspection
// without touching the production path at all.
func (p *PromotionManager) archiveRejected(cand *artifact.Artifact) error {
	dir := filepath.Dir(p.cfg.ArtifactPath)
	path := filepath.Join(dir, fmt.Sprintf("rejected-%s.json", p.now().Format("20060102_150405")))
	return p.store.Save(cand, path)
}
