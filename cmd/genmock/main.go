// Command genmock writes a deterministic traffic-count fixture in the same
// shape as the published CAPUFE dataset: Latin-1 encoded, Spanish month
// names, thousands separators in counts, and a sprinkling of blank or
// malformed cells so the cleaner has something to coerce.
//
// Usage:
//
//	go run ./cmd/genmock -out data/Aforos-RedPropia.csv -from 2019 -to 2025
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/aforos-dashboard/internal/domain"
)

type station struct {
	category string
	number   string
	name     string
	base     float64 // monthly AUTOS baseline
}

var stations = []station{
	{category: "AUTOPISTA", number: "1", name: "MÉXICO-CUERNAVACA", base: 1_450_000},
	{category: "AUTOPISTA", number: "2", name: "MÉXICO-PUEBLA", base: 1_820_000},
	{category: "AUTOPISTA", number: "7", name: "LA PERA-CUAUTLA", base: 310_000},
	{category: "PUENTE", number: "30", name: "TAMPICO", base: 185_000},
	{category: "PUENTE", number: "34", name: "PUENTE NACIONAL ALVARADO", base: 96_000},
	{category: "PUENTE INTERNACIONAL", number: "60", name: "REYNOSA-PHARR", base: 142_000},
}

// shares of the AUTOS baseline for the remaining vehicle columns
var shares = map[domain.VehicleType]float64{
	domain.VehicleAutos:      1,
	domain.VehicleMotos:      0.03,
	domain.VehicleBus2Axles:  0.025,
	domain.VehicleBus3Axles:  0.04,
	domain.VehicleTruck2Axle: 0.11,
}

var monthNames = []string{
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/Aforos-RedPropia.csv", "output path for the generated CSV")
	from := flag.Int("from", 2019, "first year to generate")
	to := flag.Int("to", 2025, "last year to generate (inclusive)")
	seed := flag.Uint64("seed", 42, "random seed")
	dirty := flag.Float64("dirty", 0.01, "fraction of cells replaced with blank or malformed values")
	flag.Parse()

	if *to < *from {
		return fmt.Errorf("-to (%d) must not be before -from (%d)", *to, *from)
	}

	records := generate(rand.New(rand.NewPCG(*seed, *seed)), *from, *to, *dirty)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return fmt.Errorf("build dataframe: %w", df.Err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := transform.NewWriter(f, charmap.ISO8859_1.NewEncoder())
	if err := df.WriteCSV(enc); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	log.Printf("wrote %d rows (%d-%d) to %s", df.Nrow(), *from, *to, *out)
	return nil
}

func generate(rng *rand.Rand, from, to int, dirty float64) [][]string {
	header := []string{"TIPO", "NUMERO", "NOMBRE", "AÑO", "MES"}
	for _, v := range domain.VehicleTypes() {
		header = append(header, string(v))
	}
	records := [][]string{header}

	for year := from; year <= to; year++ {
		growth := 1 + 0.03*float64(year-from)
		for m, month := range monthNames {
			// December and the Easter months carry holiday traffic.
			season := 1.0
			switch m {
			case 2, 3:
				season = 1.08
			case 11:
				season = 1.15
			}
			for _, s := range stations {
				row := []string{s.category, s.number, s.name, strconv.Itoa(year), month}
				for _, v := range domain.VehicleTypes() {
					n := s.base * shares[v] * growth * season * (0.9 + 0.2*rng.Float64())
					row = append(row, formatCount(int64(n)))
				}
				dirtyRow(rng, row, dirty)
				records = append(records, row)
			}
		}
	}
	return records
}

// dirtyRow damages cells in place: blank year, unknown or lowercase month,
// blank or non-numeric counts.
func dirtyRow(rng *rand.Rand, row []string, p float64) {
	for i := 3; i < len(row); i++ {
		if rng.Float64() >= p {
			continue
		}
		switch i {
		case 3:
			row[i] = ""
		case 4:
			if rng.IntN(2) == 0 {
				row[i] = "N/D"
			} else {
				row[i] = " " + strings.ToLower(row[i]) + " "
			}
		default:
			if rng.IntN(2) == 0 {
				row[i] = ""
			} else {
				row[i] = "S/D"
			}
		}
	}
}

// formatCount renders n with comma thousands separators.
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
