package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeMetrics(t *testing.T) {
	positions := []Position{
		{Symbol: "BTC", Quantity: 0.5, AvgCost: 80000},
		{Symbol: "ETH", Quantity: 10, AvgCost: 3000},
	}
	prices := map[string]float64{"BTC": 100000, "ETH": 2700}

	m := ComputeMetrics(positions, prices)

	assert.False(t, m.Degraded)
	assert.InDelta(t, 77000, m.TotalValue, 1e-9)      // 50000 + 27000
	assert.InDelta(t, 7000, m.Change24h, 1e-9)        // cost 70000
	assert.InDelta(t, 10.0, m.Change24hPct, 1e-9)
	assert.Equal(t, "BTC", m.BestPerformer)           // +25% vs -10%
	assert.InDelta(t, 25.0, m.BestPerformerPct, 1e-9)
	assert.Equal(t, 2, m.PricedPositions)
}

func TestComputeMetricsHalfPricedIsValid(t *testing.T) {
	positions := []Position{
		{Symbol: "BTC", Quantity: 1, AvgCost: 90000},
		{Symbol: "DOGE", Quantity: 1000, AvgCost: 0.3},
	}
	prices := map[string]float64{"BTC": 99000} // exactly 50% priced

	m := ComputeMetrics(positions, prices)

	assert.False(t, m.Degraded, "50%% priced is boundary inclusive")
	assert.InDelta(t, 99000, m.TotalValue, 1e-9)
	assert.Equal(t, "BTC", m.BestPerformer)
}

func TestComputeMetricsDegradesBelowHalf(t *testing.T) {
	positions := []Position{
		{Symbol: "BTC", Quantity: 1, AvgCost: 90000},
		{Symbol: "ETH", Quantity: 1, AvgCost: 3000},
		{Symbol: "SOL", Quantity: 1, AvgCost: 150},
	}
	prices := map[string]float64{"BTC": 99000} // 1 of 3

	m := ComputeMetrics(positions, prices)

	assert.True(t, m.Degraded)
	assert.Zero(t, m.TotalValue)
	assert.Zero(t, m.Change24h)
	assert.Equal(t, "N/A", m.BestPerformer)
	assert.Equal(t, 1, m.PricedPositions)
}

func TestComputeMetricsSkipsInvalidPositions(t *testing.T) {
	positions := []Position{
		{Symbol: "BTC", Quantity: 1, AvgCost: 90000},
		{Symbol: "ETH", Quantity: 0, AvgCost: 3000}, // invalid quantity
	}
	prices := map[string]float64{"BTC": 99000, "ETH": 2700}

	m := ComputeMetrics(positions, prices)

	assert.False(t, m.Degraded, "one valid of two positions sits on the inclusive boundary")
	assert.Equal(t, 1, m.PricedPositions)
	assert.InDelta(t, 99000, m.TotalValue, 1e-9, "invalid position contributes nothing")
}

func TestComputeMetricsEmptyPortfolio(t *testing.T) {
	m := ComputeMetrics(nil, map[string]float64{"BTC": 99000})
	assert.True(t, m.Degraded)
	assert.Zero(t, m.TotalValue)
}
