package domain

import "slices"

// FilterState is the three current selector values. It is the only mutable
// state of a dashboard session; callers guarantee domain membership.
type FilterState struct {
	Year        int         `json:"year"`
	Month       int         `json:"month"`
	VehicleType VehicleType `json:"vehicle_type"`
}

// Input names one field of FilterState, or the dataset itself.
type Input string

const (
	InputDataset     Input = "dataset"
	InputYear        Input = "year"
	InputMonth       Input = "month"
	InputVehicleType Input = "vehicle_type"
)

// FilterChange sets any subset of the filter fields. Nil fields are left as-is.
type FilterChange struct {
	Year        *int         `json:"year,omitempty"`
	Month       *int         `json:"month,omitempty"`
	VehicleType *VehicleType `json:"vehicle_type,omitempty"`
}

// Apply returns the new state and the inputs whose value actually changed.
func (s FilterState) Apply(c FilterChange) (FilterState, []Input) {
	next := s
	var changed []Input
	if c.Year != nil && *c.Year != s.Year {
		next.Year = *c.Year
		changed = append(changed, InputYear)
	}
	if c.Month != nil && *c.Month != s.Month {
		next.Month = *c.Month
		changed = append(changed, InputMonth)
	}
	if c.VehicleType != nil && *c.VehicleType != s.VehicleType {
		next.VehicleType = *c.VehicleType
		changed = append(changed, InputVehicleType)
	}
	return next, changed
}

// MonthOption is a selector entry: the month number and its Spanish label.
type MonthOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Options are the selector domains.
type Options struct {
	Years        []int         `json:"years"`
	Months       []MonthOption `json:"months"`
	VehicleTypes []VehicleType `json:"vehicle_types"`
}

// FilterOptions derives the selector domains. Years come from the dataset;
// months and vehicle types are fixed.
func FilterOptions(ds *Dataset) Options {
	months := make([]MonthOption, 12)
	for i := range months {
		months[i] = MonthOption{Value: i + 1, Label: MonthLabel(i + 1)}
	}
	return Options{
		Years:        ds.Years(),
		Months:       months,
		VehicleTypes: VehicleTypes(),
	}
}

// Default returns the first option of each selector. Year is 0 when the
// dataset has no valid years.
func (o Options) Default() FilterState {
	s := FilterState{Month: 1, VehicleType: VehicleAutos}
	if len(o.Years) > 0 {
		s.Year = o.Years[0]
	}
	if len(o.Months) > 0 {
		s.Month = o.Months[0].Value
	}
	if len(o.VehicleTypes) > 0 {
		s.VehicleType = o.VehicleTypes[0]
	}
	return s
}

// Contains reports whether every field of s lies inside the selector domains.
func (o Options) Contains(s FilterState) bool {
	return slices.Contains(o.Years, s.Year) && s.Month >= 1 && s.Month <= 12 && s.VehicleType.Valid()
}
