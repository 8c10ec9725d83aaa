package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("required column missing")

// Default column names and the offset of the first count column.
const (
	DefaultCategoryColumn = "TIPO"
	DefaultYearColumn     = "AÑO"
	DefaultMonthColumn    = "MES"
	DefaultCountOffset    = 4
)

// Schema tells Clean where the typed columns are.
type Schema struct {
	CategoryColumn string
	YearColumn     string
	MonthColumn    string
	// CountOffset is the index of the first numeric column.
	CountOffset int
}

// DefaultSchema returns the CAPUFE column layout.
func DefaultSchema() Schema {
	return Schema{
		CategoryColumn: DefaultCategoryColumn,
		YearColumn:     DefaultYearColumn,
		MonthColumn:    DefaultMonthColumn,
		CountOffset:    DefaultCountOffset,
	}
}

// Clean builds the canonical dataset from a raw table. Month names are mapped
// to 1-12 and every column from the count offset onward is coerced to a
// number; cell-level failures become missing values. Only structural problems
// (required columns absent) are returned as errors. The raw table is not
// modified.
func Clean(raw RawTable, schema Schema) (*Dataset, error) {
	columns, err := classify(raw.Header, schema)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		columns: columns,
		records: make([]Record, 0, len(raw.Rows)),
	}
	seen := make(map[int]struct{})

	for _, row := range raw.Rows {
		rec := cleanRow(columns, row, schema, &ds.report)
		if rec.Year != 0 {
			if _, ok := seen[rec.Year]; !ok {
				seen[rec.Year] = struct{}{}
				ds.years = append(ds.years, rec.Year)
			}
		}
		ds.records = append(ds.records, rec)
	}

	slices.Sort(ds.years)
	ds.report.Rows = len(ds.records)
	return ds, nil
}

// classify assigns a kind to every header column and checks the required ones.
// The year, month and category columns are matched by name before the count
// offset applies.
func classify(header []string, schema Schema) ([]Column, error) {
	required := []string{schema.CategoryColumn, schema.YearColumn, schema.MonthColumn}
	for _, name := range required {
		if !slices.Contains(header, name) {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	columns := make([]Column, len(header))
	for i, name := range header {
		kind := KindLabel
		switch {
		case name == schema.YearColumn:
			kind = KindYear
		case name == schema.MonthColumn:
			kind = KindMonth
		case name == schema.CategoryColumn:
			kind = KindLabel
		case i >= schema.CountOffset:
			kind = KindCount
		}
		columns[i] = Column{Name: name, Kind: kind}
	}
	return columns, nil
}

func cleanRow(columns []Column, row []string, schema Schema, report *CleanReport) Record {
	rec := Record{
		Labels: make(map[string]string),
		Counts: make(map[string]Number),
	}

	for i, col := range columns {
		var cell string
		if i < len(row) {
			cell = row[i]
		}

		switch col.Kind {
		case KindYear:
			rec.Year = parseYear(cell)
			if rec.Year == 0 {
				report.MissingYears++
			}
		case KindMonth:
			rec.Month = ParseMonth(cell)
			if rec.Month == 0 {
				report.MissingMonths++
			}
		case KindCount:
			n := ParseCount(cell)
			if !n.Valid {
				report.MissingCounts++
			}
			rec.Counts[col.Name] = n
		default:
			rec.Labels[col.Name] = cell
			if col.Name == schema.CategoryColumn {
				rec.Category = strings.TrimSpace(cell)
			}
		}
	}
	return rec
}

// ParseCount strips thousands separators and parses a numeric cell.
// Anything that is not a finite number is Missing.
func ParseCount(s string) Number {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return Missing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Some(v)
}

// parseYear accepts integral numeric cells ("2023", "2023.0", "2,023").
// Returns 0 for anything else.
func parseYear(s string) int {
	n := ParseCount(s)
	if !n.Valid || n.Value <= 0 || n.Value != math.Trunc(n.Value) {
		return 0
	}
	return int(n.Value)
}
