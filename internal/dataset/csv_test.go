package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVProviderParsesTypes(t *testing.T) {
	path := writeCSV(t, "equipment_id,age_months,equipment_type,failure_probability\n"+
		"EQ-1,24,pump,0.12\n"+
		"EQ-2,36,compressor,0.48\n")

	table, err := NewCSVProvider(path).Fetch(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"equipment_id", "age_months", "equipment_type", "failure_probability"}, table.Columns)

	age, ok := table.Float(0, "age_months")
	require.True(t, ok)
	assert.Equal(t, 24.0, age)

	assert.Equal(t, "pump", table.Rows[0]["equipment_type"], "non-numeric cells stay categorical")
}

func TestCSVProviderMissingCells(t *testing.T) {
	path := writeCSV(t, "age_months,failure_probability\n"+
		",0.5\n"+
		"12,\n")

	table, err := NewCSVProvider(path).Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	_, ok := table.Float(0, "age_months")
	assert.False(t, ok, "empty cell is missing, not zero")
	_, ok = table.Float(1, "failure_probability")
	assert.False(t, ok)
}

func TestCSVProviderMissingFile(t *testing.T) {
	_, err := NewCSVProvider(filepath.Join(t.TempDir(), "absent.csv")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestCSVProviderEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	table, err := NewCSVProvider(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestCSVProviderName(t *testing.T) {
	p := NewCSVProvider("/data/exports/equipment_data.csv")
	assert.Equal(t, "csv:equipment_data.csv", p.Name())
}
