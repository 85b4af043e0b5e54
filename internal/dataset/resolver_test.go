package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubProvider struct {
	name  string
	table *Table
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(_ context.Context) (*Table, error) {
	s.calls++
	return s.table, s.err
}

func targetTable(n int) *Table {
	t := &Table{Columns: []string{"age_months", TargetColumn}}
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, Row{"age_months": float64(i), TargetColumn: 0.1})
	}
	return t
}

func TestResolvePrefersFirstUsableProvider(t *testing.T) {
	first := &stubProvider{name: "db", table: targetTable(3)}
	second := &stubProvider{name: "csv", table: targetTable(5)}

	r := NewResolver(zaptest.NewLogger(t).Sugar(), first, second)
	table, err := r.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "later providers must not be touched once one succeeds")
}

func TestResolveSkipsFailingAndEmptyProviders(t *testing.T) {
	failing := &stubProvider{name: "db", err: errors.New("connection refused")}
	empty := &stubProvider{name: "csv-a", table: &Table{}}
	noTarget := &stubProvider{name: "csv-b", table: &Table{
		Columns: []string{"age_months"},
		Rows:    []Row{{"age_months": 1.0}},
	}}
	good := &stubProvider{name: "csv-c", table: targetTable(2)}

	r := NewResolver(zaptest.NewLogger(t).Sugar(), failing, empty, noTarget, good)
	table, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestResolveAllExhaustedReturnsErrNoData(t *testing.T) {
	r := NewResolver(zaptest.NewLogger(t).Sugar(),
		&stubProvider{name: "db", err: errors.New("no such file")},
		&stubProvider{name: "csv", table: &Table{}},
	)

	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestResolveHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	good := &stubProvider{name: "csv", table: targetTable(2)}
	r := NewResolver(zaptest.NewLogger(t).Sugar(), good)

	_, err := r.Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, good.calls)
}

func TestNormalizeTargetCopiesAlternateColumn(t *testing.T) {
	table := &Table{
		Columns: []string{"age_months", AltTargetColumn},
		Rows: []Row{
			{"age_months": 1.0, AltTargetColumn: 0.3},
			{"age_months": 2.0, AltTargetColumn: 0.6},
		},
	}

	require.True(t, table.NormalizeTarget())
	assert.True(t, table.HasColumn(TargetColumn))

	v, ok := table.Float(0, TargetColumn)
	require.True(t, ok)
	assert.Equal(t, 0.3, v)
}

func TestNormalizeTargetCanonicalWins(t *testing.T) {
	table := &Table{
		Columns: []string{TargetColumn, AltTargetColumn},
		Rows: []Row{
			{TargetColumn: 0.1, AltTargetColumn: 0.9},
		},
	}

	require.True(t, table.NormalizeTarget())
	v, ok := table.Float(0, TargetColumn)
	require.True(t, ok)
	assert.Equal(t, 0.1, v, "the alternate column must never overwrite the canonical one")
}

func TestNormalizeTargetDropsRowsWithoutTarget(t *testing.T) {
	table := &Table{
		Columns: []string{"age_months", TargetColumn},
		Rows: []Row{
			{"age_months": 1.0, TargetColumn: 0.2},
			{"age_months": 2.0},
			{"age_months": 3.0, TargetColumn: "bad"},
		},
	}

	require.True(t, table.NormalizeTarget())
	assert.Equal(t, 1, table.Len())
}

func TestNormalizeTargetNoTargetColumns(t *testing.T) {
	table := &Table{Columns: []string{"age_months"}, Rows: []Row{{"age_months": 1.0}}}
	assert.False(t, table.NormalizeTarget())
}
