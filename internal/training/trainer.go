package training

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/equipsense/equipsense/internal/model"
)

// minTrainingRows is the smallest table worth fitting; below it the
// cross-validation folds degenerate.
const minTrainingRows = 10

// Candidate names one algorithm of the fixed pool and knows how to build
// a fresh unfitted instance.
type Candidate struct {
	Name string
	New  func(seed int64) model.Regressor
}

// DefaultCandidates returns the production candidate pool.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Name: model.KindForest, New: func(seed int64) model.Regressor { return model.NewForest(seed) }},
		{Name: model.KindBoosting, New: func(seed int64) model.Regressor { return model.NewBoosting(seed) }},
		{Name: model.KindMLP, New: func(seed int64) model.Regressor { return model.NewMLP(seed) }},
		{Name: model.KindLinear, New: func(seed int64) model.Regressor { return model.NewLinear() }},
	}
}

// Config controls the split and cross-validation of one training run.
type Config struct {
	TestFraction float64
	CVFolds      int
	Seed         int64
}

// Result is the immutable outcome of fitting one candidate. A non-nil
// Err marks the candidate failed; failed candidates are excluded from
// ensembling but never abort the run.
type Result struct {
	Name       string
	Model      model.Regressor
	MSE        float64
	R2         float64
	CVMean     float64
	CVStd      float64
	Importance []float64
	Err        error
}

// Outcome carries every candidate result plus the held-out split so the
// composed ensemble can be scored on the same data.
type Outcome struct {
	Results   []Result
	TrainSize int
	TestSize  int
	XTest     [][]float64
	YTest     []float64
}

// Trainer fits the candidate pool on a reproducible train/test split.
type Trainer struct {
	cfg        Config
	candidates []Candidate
	logger     *zap.SugaredLogger
}

// NewTrainer creates a trainer over the given candidate pool.
func NewTrainer(cfg Config, logger *zap.SugaredLogger, candidates []Candidate) *Trainer {
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	if cfg.CVFolds < 2 {
		cfg.CVFolds = 5
	}
	return &Trainer{cfg: cfg, candidates: candidates, logger: logger}
}

// Train splits the data with the configured seed and fits every candidate
// concurrently. Candidates only read the shared immutable matrices and
// write to their private result slot, so the fan-out needs no locking.
func (t *Trainer) Train(ctx context.Context, X [][]float64, y []float64) (*Outcome, error) {
	if len(X) != len(y) {
		return nil, errors.New("train: mismatched feature and target lengths")
	}
	if len(X) < minTrainingRows {
		return nil, fmt.Errorf("train: %d rows is below the minimum of %d", len(X), minTrainingRows)
	}

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	idx := rng.Perm(len(X))

	testN := int(float64(len(X)) * t.cfg.TestFraction)
	if testN < 1 {
		testN = 1
	}
	testIdx, trainIdx := idx[:testN], idx[testN:]

	xTrain, yTrain := gather(X, y, trainIdx)
	xTest, yTest := gather(X, y, testIdx)

	outcome := &Outcome{
		Results:   make([]Result, len(t.candidates)),
		TrainSize: len(trainIdx),
		TestSize:  len(testIdx),
		XTest:     xTest,
		YTest:     yTest,
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, cand := range t.candidates {
		g.Go(func() error {
			outcome.Results[i] = t.trainCandidate(gctx, cand, xTrain, yTrain, xTest, yTest)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	usable := 0
	for _, res := range outcome.Results {
		if res.Err != nil {
			t.logger.Warnw("candidate training failed", "candidate", res.Name, "error", res.Err)
			continue
		}
		usable++
		t.logger.Infow("candidate trained",
			"candidate", res.Name,
			"r2", res.R2,
			"mse", res.MSE,
			"cv_mean", res.CVMean,
			"cv_std", res.CVStd,
		)
	}
	if usable == 0 {
		return nil, errors.New("train: every candidate failed")
	}

	return outcome, nil
}

// trainCandidate fits one candidate, scores it on the held-out split and
// cross-validates it on the training split. A panic inside a model is
// recorded as that candidate's failure.
func (t *Trainer) trainCandidate(ctx context.Context, cand Candidate, xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64) (res Result) {
	res.Name = cand.Name
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	m := cand.New(t.cfg.Seed)
	if err := m.Fit(xTrain, yTrain); err != nil {
		res.Err = err
		return res
	}

	preds := make([]float64, len(xTest))
	for i, x := range xTest {
		preds[i] = m.Predict(x)
	}
	res.Model = m
	res.MSE = model.MSE(preds, yTest)
	res.R2 = model.R2(preds, yTest)
	if rep, ok := m.(model.ImportanceReporter); ok {
		res.Importance = rep.FeatureImportance()
	}

	cvMean, cvStd, err := t.crossValidate(ctx, cand, xTrain, yTrain)
	if err != nil {
		res.Err = err
		return res
	}
	res.CVMean = cvMean
	res.CVStd = cvStd
	return res
}

// crossValidate runs k-fold CV on the training split, fitting a fresh
// instance per fold.
func (t *Trainer) crossValidate(ctx context.Context, cand Candidate, X [][]float64, y []float64) (mean, std float64, err error) {
	k := t.cfg.CVFolds
	if len(X) < k {
		k = len(X)
	}

	scores := make([]float64, 0, k)
	foldSize := len(X) / k
	for fold := 0; fold < k; fold++ {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		lo := fold * foldSize
		hi := lo + foldSize
		if fold == k-1 {
			hi = len(X)
		}

		xFit := append(append([][]float64{}, X[:lo]...), X[hi:]...)
		yFit := append(append([]float64{}, y[:lo]...), y[hi:]...)

		m := cand.New(t.cfg.Seed + int64(fold))
		if err := m.Fit(xFit, yFit); err != nil {
			return 0, 0, fmt.Errorf("cv fold %d: %w", fold, err)
		}

		preds := make([]float64, hi-lo)
		for i := lo; i < hi; i++ {
			preds[i-lo] = m.Predict(X[i])
		}
		scores = append(scores, model.R2(preds, y[lo:hi]))
	}

	mean, std = model.MeanStd(scores)
	return mean, std, nil
}

func gather(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
