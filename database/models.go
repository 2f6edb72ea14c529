// Package database persists morning briefing outcomes to PostgreSQL so past
// cycles and their candidate analyses can be inspected later.
package database

import "time"

// BriefingCycle is one recorded run of the morning briefing.
type BriefingCycle struct {
	ID                 uint      `gorm:"primaryKey"`
	RanAt              time.Time `gorm:"index"`
	Status             string    `gorm:"size:16"`
	UsersProcessed     int
	BriefingsSent      int
	SkippedNoPortfolio int
	SkippedAlreadySent int
	Errors             int
	WinnerSymbol       string `gorm:"size:10"`
	WinnerAction       string `gorm:"size:10"`
	WinnerConfidence   int

	Candidates []TradeCandidate `gorm:"foreignKey:CycleID"`
}

// TradeCandidate is one analyzed candidate within a cycle.
type TradeCandidate struct {
	ID         uint   `gorm:"primaryKey"`
	CycleID    uint   `gorm:"index"`
	Symbol     string `gorm:"size:10"`
	Action     string `gorm:"size:10"`
	Confidence int
	Risk       string `gorm:"size:10"`
	Score      float64
}
