// Package dataset reads the traffic-count file from disk into a raw table.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/aforos-dashboard/internal/domain"
)

// nanCell is how the dataframe reports a missing string cell.
const nanCell = "NaN"

// ErrEmpty is returned when the file has no header row.
var ErrEmpty = errors.New("dataset is empty")

// Load opens path and decodes it as Latin-1 delimited text.
func Load(path string, delimiter rune) (domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	table, err := Read(f, delimiter)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return table, nil
}

// Read decodes ISO-8859-1 text from r and parses it as delimited records with
// a header row. Every cell is kept as a string; typing happens in the cleaner.
// Rows shorter than the header are padded with empty cells and longer rows
// are cut to the header width. A header with no data rows is an empty table.
func Read(r io.Reader, delimiter rune) (domain.RawTable, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return domain.RawTable{}, ErrEmpty
	}

	header := records[0]
	if len(records) == 1 {
		return domain.RawTable{Header: header}, nil
	}
	for i, row := range records[1:] {
		records[i+1] = fitRow(row, len(header))
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return domain.RawTable{}, fmt.Errorf("load records: %w", df.Err)
	}

	out := df.Records()
	rows := out[1:]
	for _, row := range rows {
		for i, cell := range row {
			if cell == nanCell {
				row[i] = ""
			}
		}
	}
	return domain.RawTable{Header: out[0], Rows: rows}, nil
}

// fitRow pads or truncates row to width cells.
func fitRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	return append(row, make([]string, width-len(row))...)
}
