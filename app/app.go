package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptobrief/advisor"
	"cryptobrief/briefing"
	"cryptobrief/cache"
	"cryptobrief/config"
	"cryptobrief/database"
	"cryptobrief/llm"
	"cryptobrief/notify"
	"cryptobrief/portfolio"
	"cryptobrief/prices"
)

// App represents the main application
type App struct {
	config *config.Config
	redis  *cache.RedisClient
	db     *database.Database
	runner *briefing.Runner
	stream *prices.Stream
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Start wires all components and runs until a shutdown signal arrives.
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Redis connection
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)
	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Caching and portfolios degraded.")
	} else {
		a.redis = redisClient
	}

	// 2. Database connection (optional)
	var recorder briefing.Recorder
	if a.config.DatabaseHost != "" {
		fmt.Println("🗄️  Connecting to database...")
		db, err := database.Connect(
			a.config.DatabaseHost,
			a.config.DatabasePort,
			a.config.DatabaseName,
			a.config.DatabaseUser,
			a.config.DatabasePassword,
		)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		a.db = db

		cycleRepo := database.NewCycleRepository(db)
		if err := cycleRepo.InitSchema(); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}
		recorder = cycleRepo
	} else {
		fmt.Println("🗄️  No database configured, cycle persistence disabled")
	}

	// 3. Price provider
	fetcher := prices.NewCoinGeckoClient(a.config.Prices.CallsPerMin, a.config.Prices.MaxRetries)
	provider := prices.NewProvider(fetcher, a.redis, a.config.Prices.CacheTTL, a.config.Prices.StaleTTL)

	// 4. Live price stream (optional)
	if a.config.Prices.StreamEnabled {
		a.stream = prices.NewStream(a.config.Prices.StreamURL, prices.Supported(), provider)
		go a.stream.Run(ctx)
		log.Println("✅ Live price stream started")
	}

	// 5. Reasoning gateway (optional)
	var reasoner advisor.Reasoner
	if a.config.LLM.Enabled && a.config.LLM.APIKey != "" {
		client := llm.NewClient(a.config.LLM.Endpoint, a.config.LLM.APIKey, a.config.LLM.Model)
		reasoner = llm.NewGateway(client)
		log.Println("✅ Reasoning gateway initialized")
	} else {
		fmt.Println("⚠️  Reasoning disabled, briefings will use rule-based advice only")
	}

	// 6. Briefing runner
	store := portfolio.NewStore(a.redis)
	sink := notify.NewTelegram(a.config.TelegramBotToken)
	briefingCache := cache.NewBriefingCache(a.redis)
	a.runner = briefing.NewRunner(a.config.Briefing, store, provider, reasoner, sink, briefingCache, recorder)

	// 7. Scheduler
	go a.runScheduler(ctx)
	log.Printf("✅ Briefing scheduler armed for %02d:00 %s", a.config.Briefing.Hour, a.config.Briefing.Location)

	return a.gracefulShutdown(cancel)
}

// runScheduler fires one briefing cycle per day at the configured local hour.
func (a *App) runScheduler(ctx context.Context) {
	if a.config.Briefing.RunOnStart {
		a.runCycle(ctx)
	}

	for {
		wait := time.Until(a.nextRun(time.Now()))
		log.Printf("⏰ Next briefing cycle in %v", wait.Round(time.Second))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			a.runCycle(ctx)
		}
	}
}

// nextRun returns the next occurrence of the briefing hour in the configured zone.
func (a *App) nextRun(now time.Time) time.Time {
	local := now.In(a.config.Briefing.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), a.config.Briefing.Hour, 0, 0, 0, a.config.Briefing.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (a *App) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	report, err := a.runner.RunMorningCycle(cycleCtx)
	if err != nil {
		log.Printf("❌ Briefing cycle failed: %v", err)
		return
	}
	log.Printf("📋 Cycle report: %+v", report)
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown(cancel context.CancelFunc) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	shutdownComplete := make(chan struct{})
	go func() {
		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			} else {
				fmt.Println("✅ Database connection closed")
			}
		}

		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Printf("Error closing redis: %v", err)
			} else {
				fmt.Println("✅ Redis connection closed")
			}
		}

		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		fmt.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}
