package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptobrief/portfolio"
)

func TestAdviseRuleBasedFallbackPerBand(t *testing.T) {
	a := NewPositionAdviser(&fakeReasoner{err: errors.New("upstream down")}, time.Second, 3)

	positions := []portfolio.Position{
		{Symbol: "BTC", Quantity: 1, AvgCost: 100},  // +30%
		{Symbol: "ETH", Quantity: 1, AvgCost: 100},  // +15%
		{Symbol: "SOL", Quantity: 1, AvgCost: 100},  // +5%
		{Symbol: "ADA", Quantity: 1, AvgCost: 100},  // -5%
		{Symbol: "DOGE", Quantity: 1, AvgCost: 100}, // -25%
	}
	prices := map[string]float64{"BTC": 130, "ETH": 115, "SOL": 105, "ADA": 95, "DOGE": 75}

	advice := a.Advise(context.Background(), positions, prices)
	require.Len(t, advice, len(positions), "every priced position gets advice even when AI fails")

	bysym := make(map[string]string, len(advice))
	for _, adv := range advice {
		bysym[adv.Symbol] = adv.Text
	}
	assert.Equal(t, "TAKE PROFIT: Consider selling 30-50% to secure gains.", bysym["BTC"])
	assert.Equal(t, "HOLD: Strong position, monitor resistance levels.", bysym["ETH"])
	assert.Equal(t, "HOLD: In profit, wait for clearer trend.", bysym["SOL"])
	assert.Equal(t, "HOLD: Small drawdown, avoid panic selling.", bysym["ADA"])
	assert.Equal(t, "REVIEW: Consider stop-loss to limit further losses.", bysym["DOGE"])
}

func TestAdviseExcludesUnpricedPositions(t *testing.T) {
	a := NewPositionAdviser(nil, time.Second, 3)

	positions := []portfolio.Position{
		{Symbol: "BTC", Quantity: 1, AvgCost: 90000},
		{Symbol: "XLM", Quantity: 100, AvgCost: 0.1},
	}
	prices := map[string]float64{"BTC": 99000}

	advice := a.Advise(context.Background(), positions, prices)
	require.Len(t, advice, 1)
	assert.Equal(t, "BTC", advice[0].Symbol)
	assert.InDelta(t, 10.0, advice[0].PnlPct, 1e-9)
}

func TestAdviseUsesFirstSentenceOfAIResponse(t *testing.T) {
	a := NewPositionAdviser(&fakeReasoner{responses: map[string]string{
		"BTC": "HOLD: Strong support at $95k, target $110k. Volume is rising and funding is neutral.\nExtra detail line.",
	}}, time.Second, 3)

	positions := []portfolio.Position{{Symbol: "BTC", Quantity: 1, AvgCost: 90000}}
	advice := a.Advise(context.Background(), positions, map[string]float64{"BTC": 99000})

	require.Len(t, advice, 1)
	assert.Equal(t, "HOLD: Strong support at $95k, target $110k.", advice[0].Text)
}

func TestAdviseCapsLongResponses(t *testing.T) {
	long := "HOLD: " + strings.Repeat("very ", 60) + "strong setup"
	a := NewPositionAdviser(&fakeReasoner{responses: map[string]string{"BTC": long}}, time.Second, 3)

	positions := []portfolio.Position{{Symbol: "BTC", Quantity: 1, AvgCost: 90000}}
	advice := a.Advise(context.Background(), positions, map[string]float64{"BTC": 99000})

	require.Len(t, advice, 1)
	assert.LessOrEqual(t, len(advice[0].Text), 120)
	assert.True(t, strings.HasSuffix(advice[0].Text, "..."))
}

func TestAdviseTruncatesOnRuneBoundary(t *testing.T) {
	// 2-byte runes positioned so a byte-indexed cut would land mid-rune
	long := "HOLD: " + strings.Repeat("é", 80)
	a := NewPositionAdviser(&fakeReasoner{responses: map[string]string{"BTC": long}}, time.Second, 3)

	positions := []portfolio.Position{{Symbol: "BTC", Quantity: 1, AvgCost: 90000}}
	advice := a.Advise(context.Background(), positions, map[string]float64{"BTC": 99000})

	require.Len(t, advice, 1)
	assert.True(t, utf8.ValidString(advice[0].Text))
	assert.LessOrEqual(t, len(advice[0].Text), 120)
	assert.True(t, strings.HasSuffix(advice[0].Text, "..."))
}

func TestAdviseNilReasonerUsesRules(t *testing.T) {
	a := NewPositionAdviser(nil, time.Second, 3)

	positions := []portfolio.Position{{Symbol: "BTC", Quantity: 1, AvgCost: 100000}}
	advice := a.Advise(context.Background(), positions, map[string]float64{"BTC": 95000})

	require.Len(t, advice, 1)
	assert.Equal(t, "HOLD: Small drawdown, avoid panic selling.", advice[0].Text)
}
