package dataset

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func seedMonitoringDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "equipment_monitoring.db")

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE equipment (
			equipment_id TEXT PRIMARY KEY,
			equipment_type TEXT,
			room_type TEXT,
			age_months REAL
		)`,
		`CREATE TABLE equipment_readings (
			equipment_id TEXT,
			timestamp DATETIME,
			operating_temperature REAL,
			vibration_level REAL,
			power_consumption REAL,
			humidity_level REAL,
			dust_accumulation REAL,
			performance_score REAL,
			daily_usage_hours REAL
		)`,
		`CREATE TABLE failure_predictions (
			equipment_id TEXT,
			prediction_date DATETIME,
			failure_probability REAL,
			risk_level TEXT
		)`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	require.NoError(t, db.Exec(
		`INSERT INTO equipment VALUES ('EQ-1', 'projector', 'lecture_hall', 36)`).Error)
	// Two readings; only the newest may surface in the export.
	require.NoError(t, db.Exec(
		`INSERT INTO equipment_readings VALUES
		 ('EQ-1', '2026-08-01 10:00:00', 55, 1.0, 200, 40, 0.1, 0.9, 6),
		 ('EQ-1', '2026-08-20 10:00:00', 61, 1.4, 215, 45, 0.3, 0.8, 7)`).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO failure_predictions VALUES
		 ('EQ-1', '2026-08-10 00:00:00', 0.2, 'low'),
		 ('EQ-1', '2026-08-21 00:00:00', 0.35, 'medium')`).Error)

	return path
}

func TestSQLiteProviderExportsLatestPerEquipment(t *testing.T) {
	provider, err := NewSQLiteProvider(seedMonitoringDB(t))
	require.NoError(t, err)

	table, err := provider.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, table.Len(), "one row per equipment unit")

	temp, ok := table.Float(0, "operating_temperature")
	require.True(t, ok)
	assert.Equal(t, 61.0, temp, "export must pick the newest reading")

	prob, ok := table.Float(0, TargetColumn)
	require.True(t, ok)
	assert.Equal(t, 0.35, prob, "export must pick the newest prediction")

	assert.Equal(t, "projector", table.Rows[0]["equipment_type"])
	assert.True(t, table.NormalizeTarget())
}

func TestSQLiteProviderCounts(t *testing.T) {
	provider, err := NewSQLiteProvider(seedMonitoringDB(t))
	require.NoError(t, err)

	ctx := context.Background()

	total, err := provider.CountReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	since, err := provider.CountReadingsSince(ctx, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), since)
}
