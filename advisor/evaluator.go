package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"cryptobrief/llm"
	"cryptobrief/signal"
)

// ErrInsufficientData means too few live quotes were available to run a
// meaningful market-wide evaluation. No reasoning calls are made in that case.
var ErrInsufficientData = errors.New("insufficient price data for opportunity evaluation")

// MinWinnerConfidence is the eligibility floor for a trade-of-the-day winner.
const MinWinnerConfidence = 60

// Reasoner is the single-call reasoning surface the advisor depends on.
type Reasoner interface {
	Complete(ctx context.Context, system, user string, deadline time.Duration) (string, error)
}

// CandidateAnalysis is the scored outcome of analyzing one candidate symbol.
type CandidateAnalysis struct {
	Symbol     string
	Action     signal.Action
	Confidence int
	Risk       signal.Risk
	Score      float64
	RawText    string
}

// Options controls one evaluation run.
type Options struct {
	Priority       []string
	MinQuotes      int
	MaxConcurrency int
	OverallTimeout time.Duration
	PerCallTimeout time.Duration
}

// Evaluator fans candidate analyses out over a bounded worker pool and
// collects whatever completes before the overall deadline.
type Evaluator struct {
	reasoner Reasoner
}

// NewEvaluator creates a candidate evaluator.
func NewEvaluator(reasoner Reasoner) *Evaluator {
	return &Evaluator{reasoner: reasoner}
}

// Evaluate analyzes the priced priority candidates concurrently and returns
// the eligible analyses (a BUY with confidence of at least
// MinWinnerConfidence) in completion order. Candidates whose analysis fails,
// parses ineligible, or does not finish before the overall deadline are
// dropped, not retried; a partial result is still a result. The quote count
// is checked before any reasoning call is issued.
func (e *Evaluator) Evaluate(ctx context.Context, prices map[string]float64, opts Options) ([]CandidateAnalysis, error) {
	if len(prices) < opts.MinQuotes {
		return nil, fmt.Errorf("%w: got %d quotes, need %d", ErrInsufficientData, len(prices), opts.MinQuotes)
	}
	if e.reasoner == nil {
		log.Println("⚠️  No reasoner configured, skipping candidate evaluation")
		return nil, nil
	}

	candidates := make([]string, 0, len(opts.Priority))
	for _, sym := range opts.Priority {
		if price, ok := prices[sym]; ok && price > 0 {
			candidates = append(candidates, sym)
		} else {
			log.Printf("⚠️  No quote for candidate %s, skipping", sym)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	overallCtx, cancel := context.WithTimeout(ctx, opts.OverallTimeout)
	defer cancel()

	concurrency := opts.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	// nil marks a failed analysis so the collector can still count it done
	results := make(chan *CandidateAnalysis, len(candidates))

	for _, sym := range candidates {
		go func(sym string, price float64) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-overallCtx.Done():
				return
			}

			text, err := e.reasoner.Complete(overallCtx, llm.SystemOpportunityAnalyst,
				llm.FormatOpportunityPrompt(sym, price), opts.PerCallTimeout)
			if err != nil {
				log.Printf("⚠️  Opportunity analysis for %s failed: %v", sym, err)
				results <- nil
				return
			}

			sig := signal.ExtractScreened(text, signal.DefaultConfidenceAdvice)
			if sig.Action != signal.ActionBuy || sig.Confidence < MinWinnerConfidence {
				log.Printf("📉 %s not eligible: %s (confidence %d%%)", sym, sig.Action, sig.Confidence)
				results <- nil
				return
			}
			results <- &CandidateAnalysis{
				Symbol:     sym,
				Action:     sig.Action,
				Confidence: sig.Confidence,
				Risk:       sig.Risk,
				Score:      signal.Score(sig.Confidence, sig.Risk),
				RawText:    text,
			}
		}(sym, prices[sym])
	}

	analyses := make([]CandidateAnalysis, 0, len(candidates))
	for range candidates {
		select {
		case r := <-results:
			if r != nil {
				analyses = append(analyses, *r)
			}
		case <-overallCtx.Done():
			log.Printf("⚠️  Evaluation deadline reached with %d/%d candidates done, abandoning the rest",
				len(analyses), len(candidates))
			return analyses, nil
		}
	}
	return analyses, nil
}

// SelectWinner picks the best eligible candidate: a BUY with confidence of
// at least MinWinnerConfidence. Ties rank by score, then confidence, then
// symbol, so the same inputs always produce the same winner.
func SelectWinner(analyses []CandidateAnalysis) (CandidateAnalysis, bool) {
	eligible := make([]CandidateAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if a.Action == signal.ActionBuy && a.Confidence >= MinWinnerConfidence {
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		return CandidateAnalysis{}, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		if eligible[i].Confidence != eligible[j].Confidence {
			return eligible[i].Confidence > eligible[j].Confidence
		}
		return eligible[i].Symbol < eligible[j].Symbol
	})
	return eligible[0], true
}

// Fallback builds the default pick used when no candidate qualifies, so the
// briefing always has a trade-of-the-day section.
func Fallback(symbol string) CandidateAnalysis {
	return CandidateAnalysis{
		Symbol:     symbol,
		Action:     signal.ActionHold,
		Confidence: 50,
		Risk:       signal.RiskMedium,
		Score:      signal.Score(50, signal.RiskMedium),
		RawText:    "No high-conviction setup today. Watching the market leader.",
	}
}
