package briefing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cryptobrief/advisor"
	"cryptobrief/portfolio"
	"cryptobrief/signal"
)

func TestRenderFullBriefing(t *testing.T) {
	msg := Render(Payload{
		DisplayName: "Alice",
		Metrics: portfolio.Metrics{
			TotalValue:       77000,
			Change24h:        7000,
			Change24hPct:     10,
			BestPerformer:    "BTC",
			BestPerformerPct: 25,
		},
		Advice: []advisor.PositionAdvice{
			{Symbol: "BTC", PnlPct: 25, Text: "TAKE PROFIT: Consider selling 30-50% to secure gains."},
		},
		Winner: advisor.CandidateAnalysis{
			Symbol: "ETH", Action: signal.ActionBuy, Confidence: 80, Risk: signal.RiskLow,
		},
		News: "ETF inflows continue.",
	})

	assert.Contains(t, msg, "Good morning Alice!")
	assert.Contains(t, msg, "Total Value: `$77000.00`")
	assert.Contains(t, msg, "24h Change: `$+7000.00` (`+10.00%`)")
	assert.Contains(t, msg, "• **BTC**: `+25.00%`")
	assert.Contains(t, msg, "🟢 **ETH** — BUY")
	assert.Contains(t, msg, "Confidence: `80%` | Risk: LOW")
	assert.Contains(t, msg, "ETF inflows continue.")
	assert.NotContains(t, msg, "No high-conviction setup")
}

func TestRenderDegradedMetrics(t *testing.T) {
	msg := Render(Payload{
		Metrics: portfolio.Metrics{Degraded: true, BestPerformer: "N/A"},
		Winner:  advisor.Fallback("BTC"),
	})

	assert.Contains(t, msg, "Good morning there!")
	assert.Contains(t, msg, "metrics are unavailable")
	assert.NotContains(t, msg, "Total Value")
}

func TestRenderFallbackWinnerNote(t *testing.T) {
	msg := Render(Payload{
		Winner:           advisor.Fallback("BTC"),
		WinnerIsFallback: true,
	})

	assert.Contains(t, msg, "🟡 **BTC** — HOLD")
	assert.True(t, strings.Contains(msg, "No high-conviction setup today"))
}
