package advisor

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptobrief/signal"
)

// fakeReasoner answers with the canned response whose key appears in the
// user prompt. It tracks call and concurrency counts.
type fakeReasoner struct {
	responses   map[string]string
	failKeys    map[string]bool
	err         error
	block       bool
	calls       int32
	inFlight    int32
	maxInFlight int32
}

func (f *fakeReasoner) Complete(ctx context.Context, system, user string, deadline time.Duration) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		peak := atomic.LoadInt32(&f.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxInFlight, peak, n) {
			break
		}
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	for key := range f.failKeys {
		if strings.Contains(user, key) {
			return "", errors.New("upstream 502")
		}
	}
	for key, resp := range f.responses {
		if strings.Contains(user, key) {
			return resp, nil
		}
	}
	return "HOLD", nil
}

func defaultOptions() Options {
	return Options{
		Priority:       []string{"BTC", "ETH", "SOL"},
		MinQuotes:      3,
		MaxConcurrency: 3,
		OverallTimeout: 5 * time.Second,
		PerCallTimeout: time.Second,
	}
}

func threeQuotes() map[string]float64 {
	return map[string]float64{"BTC": 99000, "ETH": 2700, "SOL": 150}
}

func TestEvaluateRequiresQuotesBeforeAnyCall(t *testing.T) {
	fake := &fakeReasoner{}
	e := NewEvaluator(fake)

	_, err := e.Evaluate(context.Background(), map[string]float64{"BTC": 99000, "ETH": 2700}, defaultOptions())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.Zero(t, atomic.LoadInt32(&fake.calls), "no reasoning calls on insufficient data")
}

func TestEvaluateAndSelectWinner(t *testing.T) {
	fake := &fakeReasoner{responses: map[string]string{
		"BTC": "BUY on strength. Confidence: 72. Risk Level: HIGH",  // score 64.8
		"ETH": "BUY the breakout. Confidence: 80. Risk Level: LOW",  // score 88
		"SOL": "SELL into resistance. Confidence: 90. Risk Level: LOW",
	}}
	e := NewEvaluator(fake)

	analyses, err := e.Evaluate(context.Background(), threeQuotes(), defaultOptions())
	require.NoError(t, err)
	require.Len(t, analyses, 2, "the SELL never makes it into the result set")

	winner, ok := SelectWinner(analyses)
	require.True(t, ok)
	assert.Equal(t, "ETH", winner.Symbol)
	assert.Equal(t, signal.ActionBuy, winner.Action)
	assert.Equal(t, 80, winner.Confidence)
	assert.InDelta(t, 88.0, winner.Score, 1e-9)
}

func TestEvaluatePartialFailure(t *testing.T) {
	fake := &fakeReasoner{
		responses: map[string]string{
			"BTC": "BUY. Confidence: 75. Risk Level: MEDIUM",
			"ETH": "BUY. Confidence: 65. Risk Level: MEDIUM",
		},
		failKeys: map[string]bool{"SOL": true},
	}
	e := NewEvaluator(fake)

	analyses, err := e.Evaluate(context.Background(), threeQuotes(), defaultOptions())
	require.NoError(t, err)
	assert.Len(t, analyses, 2, "one failed call does not sink the batch")

	winner, ok := SelectWinner(analyses)
	require.True(t, ok)
	assert.Equal(t, "BTC", winner.Symbol)
}

func TestEvaluateRespectsConcurrencyBound(t *testing.T) {
	fake := &fakeReasoner{responses: map[string]string{
		"BTC": "HOLD", "ETH": "HOLD", "SOL": "HOLD",
	}}
	e := NewEvaluator(fake)

	opts := defaultOptions()
	opts.MaxConcurrency = 2
	_, err := e.Evaluate(context.Background(), threeQuotes(), opts)
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&fake.maxInFlight), int32(2))
}

func TestEvaluateAbandonsSlowCallsAtDeadline(t *testing.T) {
	fake := &fakeReasoner{block: true}
	e := NewEvaluator(fake)

	opts := defaultOptions()
	opts.OverallTimeout = 150 * time.Millisecond
	opts.PerCallTimeout = 10 * time.Second

	start := time.Now()
	analyses, err := e.Evaluate(context.Background(), threeQuotes(), opts)
	elapsed := time.Since(start)

	require.NoError(t, err, "deadline overrun yields a partial result, not an error")
	assert.Empty(t, analyses)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestEvaluateSkipsUnpricedCandidates(t *testing.T) {
	fake := &fakeReasoner{responses: map[string]string{
		"BTC": "BUY. Confidence: 70",
	}}
	e := NewEvaluator(fake)

	opts := defaultOptions()
	prices := map[string]float64{"BTC": 99000, "ADA": 0.8, "DOT": 7.5}

	analyses, err := e.Evaluate(context.Background(), prices, opts)
	require.NoError(t, err)
	require.Len(t, analyses, 1, "only priced priority symbols are analyzed")
	assert.Equal(t, "BTC", analyses[0].Symbol)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.calls))
}

func TestEvaluateReturnsOnlyEligibleAnalyses(t *testing.T) {
	fake := &fakeReasoner{responses: map[string]string{
		"BTC": "HOLD and wait for confirmation.",
		"ETH": "SELL into resistance. Confidence: 95. Risk Level: LOW",
		"SOL": "BUY small. Confidence: 40. Risk Level: LOW", // below the floor
	}}
	e := NewEvaluator(fake)

	analyses, err := e.Evaluate(context.Background(), threeQuotes(), defaultOptions())
	require.NoError(t, err)
	assert.Empty(t, analyses)
	assert.Equal(t, int32(3), atomic.LoadInt32(&fake.calls), "every candidate is still analyzed")
}

func TestSelectWinnerEligibility(t *testing.T) {
	analyses := []CandidateAnalysis{
		{Symbol: "BTC", Action: signal.ActionBuy, Confidence: 55, Score: 55},  // below floor
		{Symbol: "ETH", Action: signal.ActionSell, Confidence: 95, Score: 95}, // not a BUY
		{Symbol: "SOL", Action: signal.ActionHold, Confidence: 90, Score: 90},
	}
	_, ok := SelectWinner(analyses)
	assert.False(t, ok)
}

func TestSelectWinnerDeterministicTieBreak(t *testing.T) {
	analyses := []CandidateAnalysis{
		{Symbol: "SOL", Action: signal.ActionBuy, Confidence: 70, Score: 70},
		{Symbol: "ETH", Action: signal.ActionBuy, Confidence: 70, Score: 70},
	}
	winner, ok := SelectWinner(analyses)
	require.True(t, ok)
	assert.Equal(t, "ETH", winner.Symbol, "equal score and confidence rank by symbol")
}

func TestFallback(t *testing.T) {
	fb := Fallback("BTC")
	assert.Equal(t, "BTC", fb.Symbol)
	assert.Equal(t, signal.ActionHold, fb.Action)
	assert.Equal(t, 50, fb.Confidence)
}
