package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions(testDataset(t))

	assert.Equal(t, []int{2022, 2023, 2025, 2026}, opts.Years)
	require.Len(t, opts.Months, 12)
	assert.Equal(t, MonthOption{Value: 1, Label: "Enero"}, opts.Months[0])
	assert.Equal(t, MonthOption{Value: 12, Label: "Diciembre"}, opts.Months[11])
	assert.Equal(t, []VehicleType{
		"AUTOS", "MOTOS", "AUTOBUS DE 2 EJES", "AUTOBUS DE 3 EJES", "CAMIONES DE 2 EJES",
	}, opts.VehicleTypes)
}

func TestOptions_Default(t *testing.T) {
	opts := FilterOptions(testDataset(t))
	assert.Equal(t, FilterState{Year: 2022, Month: 1, VehicleType: VehicleAutos}, opts.Default())

	empty := Options{}
	assert.Equal(t, FilterState{Month: 1, VehicleType: VehicleAutos}, empty.Default())
}

func TestOptions_Contains(t *testing.T) {
	opts := FilterOptions(testDataset(t))

	tests := []struct {
		name     string
		state    FilterState
		expected bool
	}{
		{"valid", FilterState{Year: 2023, Month: 5, VehicleType: VehicleMotos}, true},
		{"unknown year", FilterState{Year: 2024, Month: 5, VehicleType: VehicleMotos}, false},
		{"month zero", FilterState{Year: 2023, Month: 0, VehicleType: VehicleMotos}, false},
		{"month thirteen", FilterState{Year: 2023, Month: 13, VehicleType: VehicleMotos}, false},
		{"unknown vehicle", FilterState{Year: 2023, Month: 5, VehicleType: "PEATONES"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, opts.Contains(tt.state))
		})
	}
}

func TestFilterState_Apply(t *testing.T) {
	base := FilterState{Year: 2023, Month: 5, VehicleType: VehicleAutos}
	year := 2022
	sameMonth := 5
	motos := VehicleMotos

	t.Run("single field", func(t *testing.T) {
		next, changed := base.Apply(FilterChange{VehicleType: &motos})
		assert.Equal(t, FilterState{Year: 2023, Month: 5, VehicleType: VehicleMotos}, next)
		assert.Equal(t, []Input{InputVehicleType}, changed)
	})

	t.Run("unchanged value is not reported", func(t *testing.T) {
		next, changed := base.Apply(FilterChange{Month: &sameMonth})
		assert.Equal(t, base, next)
		assert.Empty(t, changed)
	})

	t.Run("several fields", func(t *testing.T) {
		next, changed := base.Apply(FilterChange{Year: &year, Month: &sameMonth, VehicleType: &motos})
		assert.Equal(t, FilterState{Year: 2022, Month: 5, VehicleType: VehicleMotos}, next)
		assert.Equal(t, []Input{InputYear, InputVehicleType}, changed)
	})

	t.Run("empty change", func(t *testing.T) {
		next, changed := base.Apply(FilterChange{})
		assert.Equal(t, base, next)
		assert.Nil(t, changed)
	})
}

func TestVehicleType_Valid(t *testing.T) {
	for _, v := range VehicleTypes() {
		assert.True(t, v.Valid(), string(v))
	}
	assert.False(t, VehicleType("autos").Valid())
	assert.False(t, VehicleType("").Valid())
}
