package dataset

// Canonical and alternate names for the prediction target. Some upstream
// exports carry the cleaned variant instead of the canonical column.
const (
	TargetColumn    = "failure_probability"
	AltTargetColumn = "failure_probability_clean"
)

// Row maps a column name to its cell value. Numeric cells are float64,
// categorical cells are string. Missing cells are absent from the map.
type Row map[string]any

// Table is an ordered collection of rows sharing one feature schema.
// It is plain data: providers build it, the preparer consumes it, and no
// stage mutates a table another stage still holds.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the table schema contains the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column to the schema if it is not already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Float returns the numeric value of a cell, or false when the cell is
// missing or categorical.
func (t *Table) Float(i int, col string) (float64, bool) {
	v, ok := t.Rows[i][col]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// NormalizeTarget ensures the canonical target column exists and that
// every remaining row carries a numeric target value.
//
// If only the alternate column is present its values are copied into the
// canonical column. When both are present the canonical column wins; the
// alternate is never allowed to overwrite it. Rows without a numeric
// target are dropped so downstream stages can rely on the target being
// present in every row.
//
// Returns false when the table carries neither target column.
func (t *Table) NormalizeTarget() bool {
	hasCanonical := t.HasColumn(TargetColumn)
	hasAlt := t.HasColumn(AltTargetColumn)

	if !hasCanonical && !hasAlt {
		return false
	}

	if !hasCanonical {
		t.AddColumn(TargetColumn)
		for _, row := range t.Rows {
			if v, ok := row[AltTargetColumn]; ok {
				row[TargetColumn] = v
			}
		}
	}

	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if _, ok := row[TargetColumn].(float64); ok {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
	return true
}
