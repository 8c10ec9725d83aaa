// Package presentation turns derived views into display specifications: a
// tabular grid for the row subset, a line chart for the historical series and
// a grouped bar chart for the annual summary. Charts use the Plotly figure
// layout (data traces plus layout) so the page can hand them to plotly.js as-is.
package presentation

import (
	"fmt"
	"time"

	"github.com/couchcryptid/aforos-dashboard/internal/domain"
	"github.com/couchcryptid/aforos-dashboard/internal/pipeline"
)

// Title is the dashboard heading.
const Title = "Dashboard Aforos CAPUFE"

// Region names one of the three display areas.
type Region string

const (
	RegionForecast Region = "grafica_forecast"
	RegionVehicles Region = "grafica_vehiculos"
	RegionTable    Region = "tabla_datos"
)

var headings = map[domain.ViewName]string{
	domain.ViewHistoricalSeries: "Pronóstico de tránsito (histórico simple)",
	domain.ViewAnnualSummary:    "Resumen por tipo de vehículo y año",
	domain.ViewFilteredRows:     "Vista de datos",
}

// Trace is one Plotly data series.
type Trace struct {
	Type string    `json:"type"`
	Mode string    `json:"mode,omitempty"`
	Name string    `json:"name,omitempty"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

// Axis is a Plotly axis layout.
type Axis struct {
	Title string `json:"title"`
}

// Layout is the Plotly figure layout.
type Layout struct {
	Title   string `json:"title"`
	BarMode string `json:"barmode,omitempty"`
	XAxis   Axis   `json:"xaxis"`
	YAxis   Axis   `json:"yaxis"`
}

// Chart is a complete Plotly figure.
type Chart struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Table is a grid with one header row.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Panel is the rendered content of one display region.
type Panel struct {
	Region  Region          `json:"region"`
	View    domain.ViewName `json:"view"`
	Heading string          `json:"heading"`
	Chart   *Chart          `json:"chart,omitempty"`
	Table   *Table          `json:"table,omitempty"`
}

// Dashboard is everything the page needs after a refresh.
type Dashboard struct {
	Title  string             `json:"title"`
	Seq    uint64             `json:"seq"`
	At     time.Time          `json:"at"`
	State  domain.FilterState `json:"state"`
	Panels []Panel            `json:"panels"`
}

// Renderer converts views to panels. It needs the dataset schema to lay out
// the table columns.
type Renderer struct {
	columns []domain.Column
}

// NewRenderer captures the column layout of ds.
func NewRenderer(ds *domain.Dataset) *Renderer {
	return &Renderer{columns: ds.Columns()}
}

// Dashboard renders every view of a refresh in display order.
func (r *Renderer) Dashboard(refresh pipeline.Refresh) (Dashboard, error) {
	d := Dashboard{
		Title:  Title,
		Seq:    refresh.Seq,
		At:     refresh.At,
		State:  refresh.State,
		Panels: make([]Panel, 0, len(refresh.Views)),
	}
	for _, name := range domain.ViewNames() {
		view, ok := refresh.Views[name]
		if !ok {
			continue
		}
		p, err := r.Render(view)
		if err != nil {
			return Dashboard{}, err
		}
		d.Panels = append(d.Panels, p)
	}
	return d, nil
}

// Render converts a single view.
func (r *Renderer) Render(view domain.View) (Panel, error) {
	switch v := view.(type) {
	case domain.RowsView:
		return Panel{Region: RegionTable, View: v.ViewName(), Heading: headings[v.ViewName()], Table: r.table(v)}, nil
	case domain.SeriesView:
		return Panel{Region: RegionForecast, View: v.ViewName(), Heading: headings[v.ViewName()], Chart: lineChart(v)}, nil
	case domain.SummaryView:
		return Panel{Region: RegionVehicles, View: v.ViewName(), Heading: headings[v.ViewName()], Chart: groupedBarChart(v)}, nil
	default:
		return Panel{}, fmt.Errorf("render: unsupported view %T", view)
	}
}

func (r *Renderer) table(v domain.RowsView) *Table {
	t := &Table{
		Columns: make([]string, len(r.columns)),
		Rows:    make([][]any, 0, len(v.Rows)),
	}
	for i, c := range r.columns {
		t.Columns[i] = c.Name
	}

	for _, rec := range v.Rows {
		row := make([]any, len(r.columns))
		for i, c := range r.columns {
			switch c.Kind {
			case domain.KindYear:
				row[i] = optionalInt(rec.Year)
			case domain.KindMonth:
				row[i] = optionalInt(rec.Month)
			case domain.KindCount:
				row[i] = rec.Count(c.Name)
			default:
				row[i] = rec.Labels[c.Name]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// optionalInt maps the missing sentinel 0 to nil so the grid shows a blank.
func optionalInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

func lineChart(v domain.SeriesView) *Chart {
	trace := Trace{
		Type: "scatter",
		Mode: "lines",
		Name: string(v.VehicleType),
		X:    make([]string, len(v.Points)),
		Y:    make([]float64, len(v.Points)),
	}
	for i, p := range v.Points {
		trace.X[i] = p.Date.Format(time.DateOnly)
		trace.Y[i] = p.Count
	}
	return &Chart{
		Data: []Trace{trace},
		Layout: Layout{
			Title: "Histórico de " + string(v.VehicleType),
			XAxis: Axis{Title: "FECHA"},
			YAxis: Axis{Title: string(v.VehicleType)},
		},
	}
}

// groupedBarChart emits one bar trace per category, in order of first
// appearance in the long-form rows.
func groupedBarChart(v domain.SummaryView) *Chart {
	traces := make([]Trace, 0)
	index := make(map[string]int)
	for _, row := range v.Rows {
		i, ok := index[row.Category]
		if !ok {
			i = len(traces)
			index[row.Category] = i
			traces = append(traces, Trace{Type: "bar", Name: row.Category, X: []string{}, Y: []float64{}})
		}
		traces[i].X = append(traces[i].X, string(row.VehicleType))
		traces[i].Y = append(traces[i].Y, row.Count)
	}
	return &Chart{
		Data: traces,
		Layout: Layout{
			Title:   "Distribución por tipo de vehículo",
			BarMode: "group",
			XAxis:   Axis{Title: "Vehículo"},
			YAxis:   Axis{Title: "Cantidad"},
		},
	}
}
