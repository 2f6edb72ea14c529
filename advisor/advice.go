package advisor

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"cryptobrief/llm"
	"cryptobrief/portfolio"
)

const maxAdviceLen = 120

// PositionAdvice is one line of per-position guidance in a briefing.
type PositionAdvice struct {
	Symbol       string
	Quantity     float64
	BuyPrice     float64
	CurrentPrice float64
	PnlPct       float64
	Text         string
}

// PositionAdviser produces a short advice line for every priced position.
// AI advice is best-effort; any failure degrades to the rule-based table so
// a priced position never goes without a line.
type PositionAdviser struct {
	reasoner       Reasoner
	perCallTimeout time.Duration
	maxConcurrency int
}

// NewPositionAdviser creates a position adviser. reasoner may be nil, in
// which case only rule-based advice is produced.
func NewPositionAdviser(reasoner Reasoner, perCallTimeout time.Duration, maxConcurrency int) *PositionAdviser {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &PositionAdviser{
		reasoner:       reasoner,
		perCallTimeout: perCallTimeout,
		maxConcurrency: maxConcurrency,
	}
}

// Advise returns one advice entry per position with a usable price, in
// position order. Positions without a price are logged and excluded.
func (a *PositionAdviser) Advise(ctx context.Context, positions []portfolio.Position, prices map[string]float64) []PositionAdvice {
	advised := make([]PositionAdvice, 0, len(positions))
	for _, pos := range positions {
		price, ok := prices[pos.Symbol]
		if !ok || price <= 0 {
			log.Printf("⚠️  No price for %s, skipping position advice", pos.Symbol)
			continue
		}

		var pnlPct float64
		if pos.AvgCost > 0 {
			pnlPct = (price - pos.AvgCost) / pos.AvgCost * 100
		}
		advised = append(advised, PositionAdvice{
			Symbol:       pos.Symbol,
			Quantity:     pos.Quantity,
			BuyPrice:     pos.AvgCost,
			CurrentPrice: price,
			PnlPct:       pnlPct,
		})
	}

	sem := make(chan struct{}, a.maxConcurrency)
	var wg sync.WaitGroup
	for i := range advised {
		wg.Add(1)
		go func(adv *PositionAdvice) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			adv.Text = a.adviceText(ctx, adv)
		}(&advised[i])
	}
	wg.Wait()

	return advised
}

func (a *PositionAdviser) adviceText(ctx context.Context, adv *PositionAdvice) string {
	if a.reasoner != nil {
		text, err := a.reasoner.Complete(ctx, llm.SystemPositionAdvisor,
			llm.FormatPositionAdvicePrompt(adv.Symbol, adv.CurrentPrice, adv.BuyPrice, adv.PnlPct),
			a.perCallTimeout)
		if err == nil {
			if s := normalizeAdvice(text); s != "" {
				return s
			}
		} else {
			log.Printf("⚠️  AI advice for %s failed, using rule-based fallback: %v", adv.Symbol, err)
		}
	}
	return fallbackAdvice(adv.PnlPct)
}

// normalizeAdvice trims an AI response down to one sentence of at most
// maxAdviceLen characters.
func normalizeAdvice(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	if i := strings.Index(text, ". "); i >= 0 {
		text = text[:i+1]
	}
	if len(text) > maxAdviceLen {
		cut := maxAdviceLen - 3
		// Never split a multi-byte rune
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return text
}

// fallbackAdvice maps the P&L percentage to a canned recommendation.
func fallbackAdvice(pnlPct float64) string {
	switch {
	case pnlPct > 20:
		return "TAKE PROFIT: Consider selling 30-50% to secure gains."
	case pnlPct > 10:
		return "HOLD: Strong position, monitor resistance levels."
	case pnlPct > 0:
		return "HOLD: In profit, wait for clearer trend."
	case pnlPct > -10:
		return "HOLD: Small drawdown, avoid panic selling."
	default:
		return "REVIEW: Consider stop-loss to limit further losses."
	}
}
