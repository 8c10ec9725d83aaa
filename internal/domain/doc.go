// Package domain models CAPUFE "Aforos Red Propia" toll-plaza traffic counts.
//
// # Data Source
//
// The dataset is a single delimited text file published by CAPUFE with one
// row per toll plaza per month. It is encoded as ISO-8859-1 (Latin-1) and is
// decoded by the dataset loader before it reaches this package.
//
// # Column Conventions
//
// Layout:
//
//	TIPO, NUMERO, NOMBRE,  AÑO,  MES,  AUTOS, MOTOS, AUTOBUS DE 2 EJES, ...
//	<----- labels ----->   year  month <------- counts (offset 4) ------->
//
//	AÑO and MES are recognised by name wherever they sit. The remaining
//	columns before the count offset are categorical labels and every other
//	column from the offset onward is a numeric vehicle count. TIPO is the
//	category used by the annual summary.
//
// Month format:
//
//	Spanish month names, any case: "ENERO", "Enero", "enero" all map to 1.
//	Anything outside the twelve names becomes missing (month 0).
//
// Count format:
//
//	Thousands separators are commas: "1,234" = 1234. Empty cells, "NaN" and
//	any text that does not parse as a finite number become Missing. Coercion
//	never fails; missing cells are excluded from every sum.
//
// # Derived Views
//
// Three views are pure functions of the canonical [Dataset] and the current
// [FilterState]:
//
//	FilteredRows      year + month   rows matching both exactly
//	HistoricalSeries  vehicle_type   monthly sums for years before the cutoff
//	AnnualSummary     year           per-category sums, long form
//
// A [Dataset] is immutable once [Clean] returns it. Views never share mutable
// storage with it.
package domain
