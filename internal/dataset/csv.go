package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CSVProvider reads a flat-file export with a header row. Cells that parse
// as numbers become float64, everything else stays categorical; empty
// cells are recorded as missing.
type CSVProvider struct {
	path string
}

// NewCSVProvider creates a provider for one CSV file.
func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{path: path}
}

// Name returns a short identifier used in logs.
func (p *CSVProvider) Name() string {
	return "csv:" + filepath.Base(p.path)
}

// Fetch parses the file into a Table.
func (p *CSVProvider) Fetch(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.path, err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	header := records[0]
	table := &Table{Columns: append([]string(nil), header...)}

	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, cell := range record {
			if i >= len(header) || cell == "" {
				continue
			}
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				row[header[i]] = v
			} else {
				row[header[i]] = cell
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
