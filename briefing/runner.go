package briefing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cryptobrief/advisor"
	"cryptobrief/cache"
	"cryptobrief/config"
	"cryptobrief/llm"
	"cryptobrief/portfolio"
	"cryptobrief/prices"
	"cryptobrief/signal"
)

// PortfolioStore is the account data the runner reads.
type PortfolioStore interface {
	GetAllAccountIDs(ctx context.Context) ([]int64, error)
	GetProfile(ctx context.Context, accountID int64) (portfolio.Profile, error)
	GetPositions(ctx context.Context, accountID int64) ([]portfolio.Position, error)
}

// Quoter supplies the single price snapshot a cycle runs on.
type Quoter interface {
	GetPrices(ctx context.Context, symbols []string, forceRefresh bool) map[string]float64
}

// Sink delivers one rendered briefing. One attempt, no retries.
type Sink interface {
	SendBriefing(ctx context.Context, chatID int64, text string) error
}

// Recorder persists cycle outcomes for later inspection. Optional.
type Recorder interface {
	SaveCycle(ctx context.Context, report Report, analyses []advisor.CandidateAnalysis) error
}

// WinnerSummary is the cycle-level view of the trade of the day.
type WinnerSummary struct {
	Symbol     string        `json:"symbol"`
	Action     signal.Action `json:"action"`
	Confidence int           `json:"confidence"`
}

// Report summarizes one morning cycle.
type Report struct {
	Status             string
	UsersProcessed     int
	BriefingsSent      int
	SkippedNoPortfolio int
	SkippedAlreadySent int
	SkippedErrors      int
	Errors             int
	Winner             WinnerSummary
}

// ErrNoPrices means the market snapshot came back completely empty. Nothing
// downstream can run without it, so the whole cycle fails.
var ErrNoPrices = errors.New("no price data available")

// Runner executes the morning briefing cycle: one shared trade-of-the-day
// evaluation, then a personalized briefing per account. A failure for one
// account never stops the others.
type Runner struct {
	cfg      config.BriefingConfig
	store    PortfolioStore
	quoter   Quoter
	reasoner advisor.Reasoner
	sink     Sink
	cache    *cache.BriefingCache
	recorder Recorder

	evaluator *advisor.Evaluator
	adviser   *advisor.PositionAdviser
}

// NewRunner wires a briefing runner. reasoner, cache and recorder may be nil.
func NewRunner(cfg config.BriefingConfig, store PortfolioStore, quoter Quoter, reasoner advisor.Reasoner, sink Sink, briefingCache *cache.BriefingCache, recorder Recorder) *Runner {
	return &Runner{
		cfg:       cfg,
		store:     store,
		quoter:    quoter,
		reasoner:  reasoner,
		sink:      sink,
		cache:     briefingCache,
		recorder:  recorder,
		evaluator: advisor.NewEvaluator(reasoner),
		adviser:   advisor.NewPositionAdviser(reasoner, cfg.AdviceTimeout, cfg.MaxConcurrency),
	}
}

// RunMorningCycle executes one full cycle and reports what happened. The
// returned error is non-nil only for cycle-level failures; per-account
// problems are counted in the report instead.
func (r *Runner) RunMorningCycle(ctx context.Context) (Report, error) {
	log.Println("🌅 Starting morning briefing cycle...")
	report := Report{Status: "completed"}
	day := time.Now().In(r.cfg.Location).Format("2006-01-02")

	priceSnapshot := r.quoter.GetPrices(ctx, prices.Supported(), true)
	if len(priceSnapshot) == 0 {
		report.Status = "failed"
		return report, ErrNoPrices
	}
	log.Printf("📊 Price snapshot: %d/%d symbols quoted", len(priceSnapshot), len(prices.Supported()))

	winner, analyses, err := r.tradeOfTheDay(ctx, day, priceSnapshot)
	if err != nil {
		report.Status = "failed"
		return report, fmt.Errorf("trade of the day: %w", err)
	}
	report.Winner = WinnerSummary{Symbol: winner.Symbol, Action: winner.Action, Confidence: winner.Confidence}
	log.Printf("🏆 Trade of the day: %s %s (confidence %d%%)", winner.Symbol, winner.Action, winner.Confidence)

	accountIDs, err := r.store.GetAllAccountIDs(ctx)
	if err != nil {
		report.Status = "failed"
		return report, fmt.Errorf("list accounts: %w", err)
	}
	log.Printf("👥 Found %d accounts to process", len(accountIDs))

	winnerIsFallback := winner.Symbol == r.cfg.FallbackSymbol && winner.Action == signal.ActionHold
	for _, accountID := range accountIDs {
		report.UsersProcessed++
		r.processAccount(ctx, accountID, day, priceSnapshot, winner, winnerIsFallback, &report)
	}

	if r.recorder != nil {
		if err := r.recorder.SaveCycle(ctx, report, analyses); err != nil {
			log.Printf("⚠️  Failed to persist cycle: %v", err)
		}
	}

	log.Printf("✅ Cycle complete: %d/%d sent, %d no portfolio, %d already sent, %d errors",
		report.BriefingsSent, report.UsersProcessed, report.SkippedNoPortfolio,
		report.SkippedAlreadySent, report.Errors)
	return report, nil
}

// tradeOfTheDay evaluates the candidate set once per day; concurrent or
// restarted cycles reuse the cached pick.
func (r *Runner) tradeOfTheDay(ctx context.Context, day string, priceSnapshot map[string]float64) (advisor.CandidateAnalysis, []advisor.CandidateAnalysis, error) {
	var cached advisor.CandidateAnalysis
	if r.cache != nil && r.cache.GetDailyWinner(ctx, day, &cached) && cached.Symbol != "" {
		log.Printf("♻️  Reusing cached trade of the day: %s", cached.Symbol)
		return cached, nil, nil
	}

	analyses, err := r.evaluator.Evaluate(ctx, priceSnapshot, advisor.Options{
		Priority:       r.cfg.PrioritySymbols,
		MinQuotes:      r.cfg.MinQuotes,
		MaxConcurrency: r.cfg.MaxConcurrency,
		OverallTimeout: r.cfg.OverallTimeout,
		PerCallTimeout: r.cfg.PerCallTimeout,
	})
	if err != nil {
		if errors.Is(err, advisor.ErrInsufficientData) {
			// Only the evaluation step is starved; advice and metrics run on
			// whatever quotes exist. Not cached, so a later run can do better.
			log.Printf("⚠️  Skipping candidate evaluation: %v", err)
			return advisor.Fallback(r.cfg.FallbackSymbol), nil, nil
		}
		return advisor.CandidateAnalysis{}, nil, err
	}

	winner, ok := advisor.SelectWinner(analyses)
	if !ok {
		winner = advisor.Fallback(r.cfg.FallbackSymbol)
		log.Printf("🟡 No eligible candidate, falling back to %s", winner.Symbol)
	}

	if r.cache != nil {
		if err := r.cache.SetDailyWinner(ctx, day, winner, 24*time.Hour); err != nil {
			log.Printf("⚠️  Failed to cache daily winner: %v", err)
		}
	}
	return winner, analyses, nil
}

func (r *Runner) processAccount(ctx context.Context, accountID int64, day string, priceSnapshot map[string]float64, winner advisor.CandidateAnalysis, winnerIsFallback bool, report *Report) {
	positions, err := r.store.GetPositions(ctx, accountID)
	if err != nil {
		log.Printf("⚠️  Account %d: positions unavailable: %v", accountID, err)
		report.SkippedErrors++
		return
	}
	if len(positions) == 0 {
		report.SkippedNoPortfolio++
		return
	}

	if r.cache != nil && r.cache.WasSent(ctx, accountID, day) {
		log.Printf("♻️  Account %d already briefed today, skipping", accountID)
		report.SkippedAlreadySent++
		return
	}

	profile, _ := r.store.GetProfile(ctx, accountID)

	// Advice and news have no data dependency on each other
	var (
		wg     sync.WaitGroup
		advice []advisor.PositionAdvice
		news   string
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		advice = r.adviser.Advise(ctx, positions, priceSnapshot)
	}()
	go func() {
		defer wg.Done()
		news = r.newsSummary(ctx, positions)
	}()
	wg.Wait()

	text := Render(Payload{
		DisplayName:      profile.DisplayName,
		Metrics:          portfolio.ComputeMetrics(positions, priceSnapshot),
		Advice:           advice,
		Winner:           winner,
		WinnerIsFallback: winnerIsFallback,
		News:             news,
	})

	if err := r.sink.SendBriefing(ctx, accountID, text); err != nil {
		log.Printf("❌ Failed to send briefing to account %d: %v", accountID, err)
		report.Errors++
		return
	}

	report.BriefingsSent++
	if r.cache != nil {
		if err := r.cache.MarkSent(ctx, accountID, day, 48*time.Hour); err != nil {
			log.Printf("⚠️  Failed to mark briefing sent for account %d: %v", accountID, err)
		}
	}
	log.Printf("✅ Briefing sent to account %d", accountID)
}

func (r *Runner) newsSummary(ctx context.Context, positions []portfolio.Position) string {
	const unavailable = "Market news unavailable at this time."
	if r.reasoner == nil {
		return unavailable
	}

	symbols := make([]string, 0, len(positions))
	for _, pos := range positions {
		symbols = append(symbols, pos.Symbol)
	}

	news, err := r.reasoner.Complete(ctx, llm.SystemNewsAnalyst, llm.FormatNewsSummaryPrompt(symbols), r.cfg.NewsTimeout)
	if err != nil {
		log.Printf("⚠️  News summary failed: %v", err)
		return unavailable
	}
	return news
}
