package dataset

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// exportQuery flattens the monitoring schema into one training row per
// equipment unit: static attributes joined with the latest sensor reading
// and the latest recorded failure prediction. The schema is owned by the
// monitoring service; this side only reads it.
const exportQuery = `
SELECT e.equipment_id, e.equipment_type, e.room_type, e.age_months,
       r.operating_temperature, r.vibration_level, r.power_consumption,
       r.humidity_level, r.dust_accumulation, r.performance_score,
       r.daily_usage_hours,
       p.failure_probability, p.risk_level
FROM equipment e
JOIN equipment_readings r ON e.equipment_id = r.equipment_id
JOIN failure_predictions p ON e.equipment_id = p.equipment_id
WHERE r.timestamp = (
    SELECT MAX(timestamp) FROM equipment_readings r2
    WHERE r2.equipment_id = e.equipment_id
)
AND p.prediction_date = (
    SELECT MAX(prediction_date) FROM failure_predictions p2
    WHERE p2.equipment_id = e.equipment_id
)`

// SQLiteProvider exports training data from the equipment monitoring
// database. It also serves the criteria evaluator's row counts.
type SQLiteProvider struct {
	db *gorm.DB
}

// NewSQLiteProvider opens the monitoring database read-only for exports.
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	return &SQLiteProvider{db: db}, nil
}

// Name returns a short identifier used in logs.
func (p *SQLiteProvider) Name() string {
	return "sqlite"
}

// Fetch runs the ML export query and converts the result set into a Table.
func (p *SQLiteProvider) Fetch(ctx context.Context) (*Table, error) {
	rows, err := p.db.WithContext(ctx).Raw(exportQuery).Rows()
	if err != nil {
		return nil, fmt.Errorf("export query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("export columns: %w", err)
	}

	table := &Table{Columns: append([]string(nil), columns...)}
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("export scan: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			switch v := cells[i].(type) {
			case nil:
				// missing cell
			case float64:
				row[col] = v
			case int64:
				row[col] = float64(v)
			case []byte:
				row[col] = string(v)
			case string:
				row[col] = v
			case time.Time:
				row[col] = v.Format(time.RFC3339)
			default:
				row[col] = fmt.Sprint(v)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}

	return table, nil
}

// CountReadingsSince counts sensor readings recorded after t. Used by the
// criteria evaluator to detect data volume growth since the last training.
func (p *SQLiteProvider) CountReadingsSince(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM equipment_readings WHERE timestamp > ?", t).
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return count, nil
}

// CountReadings counts all sensor readings.
func (p *SQLiteProvider) CountReadings(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM equipment_readings").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return count, nil
}
