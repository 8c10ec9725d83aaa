// Command validate runs integrity checks over a traffic-count CSV before it
// is served: the file must load and clean, the coercion rate must stay under
// a threshold, and every derived view must satisfy its invariants for every
// year and month the dashboard can select.
//
// Usage:
//
//	go run ./cmd/validate -dataset data/Aforos-RedPropia.csv -max-missing 0.05
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/couchcryptid/aforos-dashboard/internal/dataset"
	"github.com/couchcryptid/aforos-dashboard/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("dataset", "data/Aforos-RedPropia.csv", "path to the traffic-count CSV")
	delimiter := flag.String("delimiter", ",", "field delimiter")
	cutoff := flag.Int("cutoff", domain.DefaultHistoryCutoff, "historical series excludes this year onward")
	maxMissing := flag.Float64("max-missing", 0.05, "maximum fraction of coerced cells per field")
	flag.Parse()

	if len([]rune(*delimiter)) != 1 {
		fmt.Fprintln(os.Stderr, "FATAL: -delimiter must be a single character")
		os.Exit(1)
	}

	os.Exit(run(*path, []rune(*delimiter)[0], *cutoff, *maxMissing))
}

func run(path string, delimiter rune, cutoff int, maxMissing float64) int {
	fmt.Println("=== Aforos Dataset Validation ===")
	fmt.Println()

	raw, err := dataset.Load(path, delimiter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	ds, err := domain.Clean(raw, domain.DefaultSchema())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: clean dataset: %v\n", err)
		return 1
	}

	engine := domain.NewEngine(ds, cutoff)
	phases := []*phase{
		validateSchema(ds),
		validateCoercion(ds, maxMissing),
		validateDomains(ds),
		validateFilteredRows(engine),
		validateHistoricalSeries(engine, cutoff),
		validateAnnualSummary(engine),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	report := ds.Report()
	fmt.Println()
	fmt.Printf("Rows: %d, missing years: %d, missing months: %d, missing counts: %d\n",
		report.Rows, report.MissingYears, report.MissingMonths, report.MissingCounts)
	fmt.Printf("Years: %v\n", ds.Years())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validateSchema(ds *domain.Dataset) *phase {
	p := &phase{name: "Schema"}
	if ds.Len() == 0 {
		p.errorf("dataset has no data rows")
	}
	for _, v := range domain.VehicleTypes() {
		if !ds.HasColumn(string(v)) {
			p.errorf("vehicle column %q missing; its views will be empty", v)
		}
	}
	return p
}

func validateCoercion(ds *domain.Dataset, maxMissing float64) *phase {
	p := &phase{name: "Coercion rate"}
	report := ds.Report()
	if report.Rows == 0 {
		return p
	}

	countCells := 0
	for _, c := range ds.Columns() {
		if c.Kind == domain.KindCount {
			countCells += report.Rows
		}
	}

	check := func(field string, missing, total int) {
		if total == 0 {
			return
		}
		if rate := float64(missing) / float64(total); rate > maxMissing {
			p.errorf("%s: %d of %d cells missing (%.2f%% > %.2f%%)", field, missing, total, rate*100, maxMissing*100)
		}
	}
	check("year", report.MissingYears, report.Rows)
	check("month", report.MissingMonths, report.Rows)
	check("count", report.MissingCounts, countCells)
	return p
}

func validateDomains(ds *domain.Dataset) *phase {
	p := &phase{name: "Year and month domains"}
	for i, rec := range ds.Records() {
		if rec.Month < 0 || rec.Month > 12 {
			p.errorf("row %d: month %d outside 1-12", i+1, rec.Month)
		}
		if rec.Year < 0 {
			p.errorf("row %d: negative year %d", i+1, rec.Year)
		}
		for name, n := range rec.Counts {
			if n.Valid && n.Value < 0 {
				p.errorf("row %d: negative %s count %v", i+1, name, n.Value)
			}
		}
	}
	return p
}

func validateFilteredRows(engine *domain.Engine) *phase {
	p := &phase{name: "Filtered rows"}
	ds := engine.Dataset()

	total := 0
	for _, year := range ds.Years() {
		for month := 1; month <= 12; month++ {
			v := engine.FilteredRows(domain.FilterState{Year: year, Month: month})
			for _, rec := range v.Rows {
				if rec.Year != year || rec.Month != month {
					p.errorf("%d-%02d: row with year=%d month=%d leaked through", year, month, rec.Year, rec.Month)
				}
			}
			total += len(v.Rows)
		}
	}

	complete := 0
	for _, rec := range ds.Records() {
		if rec.Year != 0 && rec.Month != 0 {
			complete++
		}
	}
	if total != complete {
		p.errorf("filtered views cover %d rows, dataset has %d rows with year and month", total, complete)
	}
	return p
}

func validateHistoricalSeries(engine *domain.Engine, cutoff int) *phase {
	p := &phase{name: "Historical series"}
	for _, v := range domain.VehicleTypes() {
		series := engine.HistoricalSeries(domain.FilterState{VehicleType: v})
		for i, pt := range series.Points {
			if pt.Year >= cutoff {
				p.errorf("%s: point %d-%02d at or after cutoff %d", v, pt.Year, pt.Month, cutoff)
			}
			if i > 0 {
				prev := series.Points[i-1]
				if !pt.Date.After(prev.Date) {
					p.errorf("%s: points out of order at %s", v, pt.Date.Format("2006-01"))
				}
			}
			if math.IsNaN(pt.Count) || pt.Count < 0 {
				p.errorf("%s: invalid total %v at %d-%02d", v, pt.Count, pt.Year, pt.Month)
			}
		}
	}
	return p
}

func validateAnnualSummary(engine *domain.Engine) *phase {
	p := &phase{name: "Annual summary"}
	ds := engine.Dataset()
	records := ds.Records()

	for _, year := range ds.Years() {
		summary := engine.AnnualSummary(domain.FilterState{Year: year})

		var categories []string
		want := make(map[string]float64)
		for _, rec := range records {
			if rec.Year != year || rec.Category == "" {
				continue
			}
			if !slices.Contains(categories, rec.Category) {
				categories = append(categories, rec.Category)
			}
			for _, v := range domain.VehicleTypes() {
				if n := rec.Count(string(v)); n.Valid {
					want[rec.Category+"|"+string(v)] += n.Value
				}
			}
		}

		if got, exp := len(summary.Rows), len(categories)*len(domain.VehicleTypes()); got != exp {
			p.errorf("%d: %d summary rows, want %d", year, got, exp)
		}
		for _, row := range summary.Rows {
			key := row.Category + "|" + string(row.VehicleType)
			if math.Abs(row.Count-want[key]) > 1e-6 {
				p.errorf("%d: %s %s total %v, want %v", year, row.Category, row.VehicleType, row.Count, want[key])
			}
		}
	}
	return p
}
