package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/ignoromenot/internal/model"
)

// DelimitedAdapter reads a TSV or CSV protein table with a header row
type DelimitedAdapter struct{}

// NewDelimitedAdapter creates a new delimited table adapter
func NewDelimitedAdapter() *DelimitedAdapter {
	return &DelimitedAdapter{}
}

// Name returns the adapter name
func (a *DelimitedAdapter) Name() string {
	return "delimited"
}

// CanHandle accepts .tsv, .tab, .txt and .csv files
func (a *DelimitedAdapter) CanHandle(path string, isDir bool) bool {
	return !isDir && hasExt(path, ".tsv", ".tab", ".txt", ".csv")
}

// LoadProteins reads every row of the table
func (a *DelimitedAdapter) LoadProteins(ctx context.Context, path string) ([]RawProtein, error) {
	rows, err := readDelimited(ctx, path, requiredProteinColumns)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// readDelimited reads a header-led table into rows keyed by canonical column name,
// each carrying the file line it starts on. Blank lines are skipped.
// The delimiter is a comma for .csv files and a tab otherwise.
func readDelimited(ctx context.Context, path string, required []string) ([]RawProtein, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	if hasExt(path, ".csv") {
		reader.Comma = ','
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file has no header", model.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = canonicalColumn(header[i])
	}
	if err := requireColumns(header, required); err != nil {
		return nil, err
	}

	var rows []RawProtein
	for n := 1; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, RawProtein{Line: line, Fields: row})
	}

	return rows, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if cell != "" {
			return false
		}
	}
	return true
}
