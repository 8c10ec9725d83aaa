package domain

import (
	"slices"
	"time"
)

// DefaultHistoryCutoff is the first year excluded from the historical series.
const DefaultHistoryCutoff = 2025

// ViewName identifies one of the derived views.
type ViewName string

const (
	ViewFilteredRows     ViewName = "filtered_rows"
	ViewHistoricalSeries ViewName = "historical_series"
	ViewAnnualSummary    ViewName = "annual_summary"
)

// ViewNames lists every derived view in display order.
func ViewNames() []ViewName {
	return []ViewName{ViewHistoricalSeries, ViewAnnualSummary, ViewFilteredRows}
}

// View is the output of one derivation.
type View interface {
	ViewName() ViewName
}

// RowsView is the row subset for one year and month.
type RowsView struct {
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Rows  []Record `json:"rows"`
}

// SeriesPoint is one monthly total. Date is the first of the month, UTC.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Count float64   `json:"count"`
}

// SeriesView is the monthly history of one vehicle type.
type SeriesView struct {
	VehicleType VehicleType   `json:"vehicle_type"`
	Points      []SeriesPoint `json:"points"`
}

// SummaryRow is one (category, vehicle type) total.
type SummaryRow struct {
	Category    string      `json:"category"`
	VehicleType VehicleType `json:"vehicle_type"`
	Count       float64     `json:"count"`
}

// SummaryView is the long-form per-category totals for one year.
type SummaryView struct {
	Year int          `json:"year"`
	Rows []SummaryRow `json:"rows"`
}

func (RowsView) ViewName() ViewName    { return ViewFilteredRows }
func (SeriesView) ViewName() ViewName  { return ViewHistoricalSeries }
func (SummaryView) ViewName() ViewName { return ViewAnnualSummary }

// Engine computes derived views over one dataset. All methods are pure: the
// same state always yields an equal view and the dataset is never modified.
type Engine struct {
	ds     *Dataset
	cutoff int
}

// NewEngine binds the derivations to a dataset. A cutoff <= 0 selects
// DefaultHistoryCutoff.
func NewEngine(ds *Dataset, cutoff int) *Engine {
	if cutoff <= 0 {
		cutoff = DefaultHistoryCutoff
	}
	return &Engine{ds: ds, cutoff: cutoff}
}

// Dataset returns the dataset the engine reads from.
func (e *Engine) Dataset() *Dataset {
	return e.ds
}

// Derive dispatches to the derivation for name. Unknown names return nil.
func (e *Engine) Derive(name ViewName, state FilterState) View {
	switch name {
	case ViewFilteredRows:
		return e.FilteredRows(state)
	case ViewHistoricalSeries:
		return e.HistoricalSeries(state)
	case ViewAnnualSummary:
		return e.AnnualSummary(state)
	default:
		return nil
	}
}

// FilteredRows returns the records whose year and month equal the state's.
// Depends on year and month.
func (e *Engine) FilteredRows(state FilterState) RowsView {
	rows := make([]Record, 0)
	for _, r := range e.ds.records {
		if r.Year == state.Year && r.Month == state.Month && r.Year != 0 && r.Month != 0 {
			rows = append(rows, r.clone())
		}
	}
	return RowsView{Year: state.Year, Month: state.Month, Rows: rows}
}

type yearMonth struct {
	year  int
	month int
}

// HistoricalSeries sums the selected vehicle column per (year, month) over
// years before the cutoff, skipping missing values. Points are ordered by
// date. Depends on vehicle_type only.
func (e *Engine) HistoricalSeries(state FilterState) SeriesView {
	column := string(state.VehicleType)
	totals := make(map[yearMonth]float64)

	for _, r := range e.ds.records {
		if r.Year == 0 || r.Year >= e.cutoff || r.Month == 0 {
			continue
		}
		n := r.Count(column)
		if !n.Valid {
			continue
		}
		totals[yearMonth{r.Year, r.Month}] += n.Value
	}

	keys := make([]yearMonth, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b yearMonth) int {
		if a.year != b.year {
			return a.year - b.year
		}
		return a.month - b.month
	})

	points := make([]SeriesPoint, len(keys))
	for i, k := range keys {
		points[i] = SeriesPoint{
			Date:  time.Date(k.year, time.Month(k.month), 1, 0, 0, 0, 0, time.UTC),
			Year:  k.year,
			Month: k.month,
			Count: totals[k],
		}
	}
	return SeriesView{VehicleType: state.VehicleType, Points: points}
}

// AnnualSummary sums each fixed vehicle column per category for the selected
// year and reshapes the result to one row per (category, vehicle type).
// Rows are vehicle-major, categories ascending. A category whose values are
// all missing still gets a zero row; rows without a category are dropped.
// Depends on year only.
func (e *Engine) AnnualSummary(state FilterState) SummaryView {
	vehicles := VehicleTypes()
	sums := make(map[string][]float64)

	for _, r := range e.ds.records {
		if r.Year == 0 || r.Year != state.Year || r.Category == "" {
			continue
		}
		acc, ok := sums[r.Category]
		if !ok {
			acc = make([]float64, len(vehicles))
			sums[r.Category] = acc
		}
		for i, v := range vehicles {
			if n := r.Count(string(v)); n.Valid {
				acc[i] += n.Value
			}
		}
	}

	categories := make([]string, 0, len(sums))
	for c := range sums {
		categories = append(categories, c)
	}
	slices.Sort(categories)

	rows := make([]SummaryRow, 0, len(categories)*len(vehicles))
	for i, v := range vehicles {
		for _, c := range categories {
			rows = append(rows, SummaryRow{Category: c, VehicleType: v, Count: sums[c][i]})
		}
	}
	return SummaryView{Year: state.Year, Rows: rows}
}
