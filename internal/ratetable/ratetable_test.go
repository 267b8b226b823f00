package ratetable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

const sample = `
zones:
  - name: Domestic
    countries: [us]
  - name: Dormant
    countries: [CA]
    active: false
methods:
  - name: Weight
    strategy: weight
    estimated_days: 4
    tracking_url_template: "https://track.example.com/{tracking_number}"
rates:
  - method: Weight
    zone: Domestic
    base_rate: "3.00"
    weight_rate: "1.50"
    min_weight: "0"
    max_weight: "10"
`

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, f.Zones, 2)
	require.Len(t, f.Methods, 1)
	require.Len(t, f.Rates, 1)

	assert.True(t, f.Zones[0].ToDomain().Active)
	assert.False(t, f.Zones[1].ToDomain().Active)

	m := f.Methods[0].ToDomain()
	assert.Equal(t, domain.CalculationWeight, m.Strategy)
	require.NotNil(t, m.EstimatedDays)
	assert.Equal(t, 4, *m.EstimatedDays)

	rate, err := f.Rates[0].ToDomain()
	require.NoError(t, err)
	assert.Equal(t, "3", rate.BaseRate.String())
	require.NotNil(t, rate.WeightRate)
	assert.Equal(t, "1.5", rate.WeightRate.String())
	require.NotNil(t, rate.MaxWeight)
	assert.Equal(t, "10", rate.MaxWeight.String())
	assert.Nil(t, rate.MinOrderAmount)
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := Load(strings.NewReader("zones:\n  - name: X\n    colour: red\n"))
	assert.Error(t, err)
}

func TestRateToDomain_BadAmount(t *testing.T) {
	_, err := Rate{Method: "M", Zone: "Z", BaseRate: "five"}.ToDomain()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
