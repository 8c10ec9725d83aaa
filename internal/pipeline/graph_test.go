package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/aforos-dashboard/internal/domain"
)

func TestGraph_Affected(t *testing.T) {
	g, err := NewGraph()
	require.NoError(t, err)

	tests := []struct {
		name     string
		changed  []domain.Input
		expected []domain.ViewName
	}{
		{"year", []domain.Input{domain.InputYear}, []domain.ViewName{domain.ViewAnnualSummary, domain.ViewFilteredRows}},
		{"month", []domain.Input{domain.InputMonth}, []domain.ViewName{domain.ViewFilteredRows}},
		{"vehicle type", []domain.Input{domain.InputVehicleType}, []domain.ViewName{domain.ViewHistoricalSeries}},
		{"month and vehicle", []domain.Input{domain.InputMonth, domain.InputVehicleType}, []domain.ViewName{domain.ViewHistoricalSeries, domain.ViewFilteredRows}},
		{"dataset", []domain.Input{domain.InputDataset}, domain.ViewNames()},
		{"nothing", nil, nil},
		{"unknown input", []domain.Input{"weather"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, g.Affected(tt.changed))
		})
	}
}

func TestGraph_Inputs(t *testing.T) {
	g, err := NewGraph()
	require.NoError(t, err)

	inputs, err := g.Inputs(domain.ViewFilteredRows)
	require.NoError(t, err)
	assert.Equal(t, []domain.Input{domain.InputDataset, domain.InputMonth, domain.InputYear}, inputs)

	inputs, err = g.Inputs(domain.ViewHistoricalSeries)
	require.NoError(t, err)
	assert.Equal(t, []domain.Input{domain.InputDataset, domain.InputVehicleType}, inputs)

	inputs, err = g.Inputs(domain.ViewAnnualSummary)
	require.NoError(t, err)
	assert.Equal(t, []domain.Input{domain.InputDataset, domain.InputYear}, inputs)

	_, err = g.Inputs("missing")
	require.ErrorIs(t, err, ErrUnknownView)
}
