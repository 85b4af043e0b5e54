package dataset

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrNoData is returned by Resolve when every provider was exhausted
// without yielding a usable table. Callers treat it as a normal outcome:
// the cycle ends with status no_data and no artifact is touched.
var ErrNoData = errors.New("no usable training data from any provider")

// Provider is a single source of training data. Implementations must
// return within the deadline of the supplied context.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (*Table, error)
}

// Resolver tries an ordered list of providers and returns the first
// non-empty, target-bearing table.
type Resolver struct {
	providers []Provider
	logger    *zap.SugaredLogger
}

// NewResolver creates a resolver over the given providers. Order matters:
// the structured store comes first, flat-file fallbacks after.
func NewResolver(logger *zap.SugaredLogger, providers ...Provider) *Resolver {
	return &Resolver{providers: providers, logger: logger}
}

// Resolve returns the first table with at least one row and a
// recognizable target column. A provider error is logged and the next
// provider is tried; it never aborts resolution.
func (r *Resolver) Resolve(ctx context.Context) (*Table, error) {
	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := p.Fetch(ctx)
		if err != nil {
			r.logger.Warnw("data provider failed, trying next", "provider", p.Name(), "error", err)
			continue
		}
		if table.Len() == 0 {
			r.logger.Infow("data provider returned no rows", "provider", p.Name())
			continue
		}
		if !table.NormalizeTarget() {
			r.logger.Warnw("data provider has no target column", "provider", p.Name())
			continue
		}
		if table.Len() == 0 {
			r.logger.Warnw("data provider has no rows with a target value", "provider", p.Name())
			continue
		}

		r.logger.Infow("training data resolved", "provider", p.Name(), "rows", table.Len(), "columns", len(table.Columns))
		return table, nil
	}

	return nil, ErrNoData
}
