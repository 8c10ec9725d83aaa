package domain

import (
	"encoding/json"
	"maps"
	"slices"
)

// RawTable is the untyped output of the loader: a header row plus string cells.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Number is a coerced numeric cell. The zero value is Missing.
type Number struct {
	Value float64
	Valid bool
}

// Missing is the sentinel for an uncoercible or empty cell.
var Missing = Number{}

// Some wraps a present value.
func Some(v float64) Number {
	return Number{Value: v, Valid: true}
}

// MarshalJSON encodes missing values as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Record is one canonical row. Year and Month are 0 when missing.
type Record struct {
	Category string            `json:"category"`
	Year     int               `json:"year"`
	Month    int               `json:"month"`
	Labels   map[string]string `json:"labels"`
	Counts   map[string]Number `json:"counts"`
}

// Count returns the value of a count column, Missing when absent.
func (r Record) Count(column string) Number {
	return r.Counts[column]
}

func (r Record) clone() Record {
	r.Labels = maps.Clone(r.Labels)
	r.Counts = maps.Clone(r.Counts)
	return r
}

// ColumnKind classifies a dataset column.
type ColumnKind int

const (
	KindLabel ColumnKind = iota
	KindYear
	KindMonth
	KindCount
)

// Column describes one dataset column in file order.
type Column struct {
	Name string
	Kind ColumnKind
}

// CleanReport counts the cells that were coerced to missing.
type CleanReport struct {
	Rows          int `json:"rows"`
	MissingYears  int `json:"missing_years"`
	MissingMonths int `json:"missing_months"`
	MissingCounts int `json:"missing_counts"`
}

// Dataset is the canonical, immutable collection of records produced by Clean.
// It is safe for concurrent reads.
type Dataset struct {
	columns []Column
	records []Record
	years   []int
	report  CleanReport
}

// Columns returns the schema in file order.
func (d *Dataset) Columns() []Column {
	return slices.Clone(d.columns)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a deep copy of every record.
func (d *Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	for i, r := range d.records {
		out[i] = r.clone()
	}
	return out
}

// Years returns the distinct non-missing years, ascending.
func (d *Dataset) Years() []int {
	return slices.Clone(d.years)
}

// Report returns the coercion statistics gathered while cleaning.
func (d *Dataset) Report() CleanReport {
	return d.report
}

// HasColumn reports whether a count column with the given name exists.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.columns {
		if c.Name == name && c.Kind == KindCount {
			return true
		}
	}
	return false
}
