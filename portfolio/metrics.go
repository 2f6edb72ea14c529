package portfolio

import "log"

// Metrics is the portfolio summary block of a briefing.
type Metrics struct {
	TotalValue       float64
	Change24h        float64
	Change24hPct     float64
	BestPerformer    string
	BestPerformerPct float64
	PricedPositions  int
	Degraded         bool
}

// ComputeMetrics aggregates portfolio value, 24h P&L and the best
// performer from held positions and a price snapshot. Pure.
//
// Price lookups must succeed for at least half the positions (inclusive)
// for the metrics to count as valid; below that the summary degrades to a
// zero-value placeholder rather than blocking the briefing.
func ComputeMetrics(positions []Position, priceBySymbol map[string]float64) Metrics {
	var (
		totalValue float64
		totalCost  float64
		priced     int

		bestPerformer    string
		bestPerformerPct = -999.0
	)

	for _, pos := range positions {
		price, ok := priceBySymbol[pos.Symbol]
		if !ok || price <= 0 {
			log.Printf("⚠️  No price for %s, excluded from metrics", pos.Symbol)
			continue
		}
		if pos.Quantity <= 0 || pos.AvgCost <= 0 {
			log.Printf("⚠️  Invalid position data for %s: qty=%v cost=%v", pos.Symbol, pos.Quantity, pos.AvgCost)
			continue
		}
		priced++

		totalValue += price * pos.Quantity
		totalCost += pos.AvgCost * pos.Quantity

		pnlPct := (price - pos.AvgCost) / pos.AvgCost * 100
		if pnlPct > bestPerformerPct {
			bestPerformer = pos.Symbol
			bestPerformerPct = pnlPct
		}
	}

	// 50% threshold, boundary inclusive: priced/len >= 0.5
	if len(positions) == 0 || priced*2 < len(positions) || totalCost == 0 {
		return Metrics{BestPerformer: "N/A", PricedPositions: priced, Degraded: true}
	}

	return Metrics{
		TotalValue:       totalValue,
		Change24h:        totalValue - totalCost,
		Change24hPct:     (totalValue - totalCost) / totalCost * 100,
		BestPerformer:    bestPerformer,
		BestPerformerPct: bestPerformerPct,
		PricedPositions:  priced,
	}
}
