package database

import (
	"context"
	"fmt"
	"time"

	"cryptobrief/advisor"
	"cryptobrief/briefing"
)

// CycleRepository handles database operations for briefing cycles
type CycleRepository struct {
	db *Database
}

// NewCycleRepository creates a new cycle repository
func NewCycleRepository(db *Database) *CycleRepository {
	return &CycleRepository{db: db}
}

// InitSchema performs auto-migration for the briefing tables
func (r *CycleRepository) InitSchema() error {
	if err := r.db.db.AutoMigrate(&BriefingCycle{}, &TradeCandidate{}); err != nil {
		return fmt.Errorf("failed to migrate briefing tables: %w", err)
	}
	return nil
}

// SaveCycle records one completed cycle with its candidate analyses.
func (r *CycleRepository) SaveCycle(ctx context.Context, report briefing.Report, analyses []advisor.CandidateAnalysis) error {
	cycle := BriefingCycle{
		RanAt:              time.Now(),
		Status:             report.Status,
		UsersProcessed:     report.UsersProcessed,
		BriefingsSent:      report.BriefingsSent,
		SkippedNoPortfolio: report.SkippedNoPortfolio,
		SkippedAlreadySent: report.SkippedAlreadySent,
		Errors:             report.Errors,
		WinnerSymbol:       report.Winner.Symbol,
		WinnerAction:       string(report.Winner.Action),
		WinnerConfidence:   report.Winner.Confidence,
	}
	for _, a := range analyses {
		cycle.Candidates = append(cycle.Candidates, TradeCandidate{
			Symbol:     a.Symbol,
			Action:     string(a.Action),
			Confidence: a.Confidence,
			Risk:       string(a.Risk),
			Score:      a.Score,
		})
	}

	if err := r.db.db.WithContext(ctx).Create(&cycle).Error; err != nil {
		return fmt.Errorf("failed to save briefing cycle: %w", err)
	}
	return nil
}

// RecentCycles returns the most recent cycles, newest first.
func (r *CycleRepository) RecentCycles(ctx context.Context, limit int) ([]BriefingCycle, error) {
	var cycles []BriefingCycle
	err := r.db.db.WithContext(ctx).
		Preload("Candidates").
		Order("ran_at DESC").
		Limit(limit).
		Find(&cycles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load briefing cycles: %w", err)
	}
	return cycles, nil
}
