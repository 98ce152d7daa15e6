package store

import (
	"time"
)

// Run is one orchestrated adjudication of a declaration.
type Run struct {
	ID            string `gorm:"primaryKey;size:36"`
	DeclarationID string `gorm:"size:128;index"`
	RiskCount     int
	FailedCount   int
	DurationMs    int64
	Outcomes      []RiskOutcome `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time     `gorm:"index"`
}

// RiskOutcome is the persisted result of one risk within a run. Decision and
// Feedback are nil when the risk could not be processed.
type RiskOutcome struct {
	ID                  uint   `gorm:"primaryKey"`
	RunID               string `gorm:"size:36;index"`
	Position            int
	RiskID              string  `gorm:"size:128;index"`
	RiskType            string  `gorm:"size:32"`
	VerifierStatus      string  `gorm:"size:64"`
	VerifierExplanation string  `gorm:"type:text"`
	Decision            *string `gorm:"size:32;index"`
	Feedback            *string `gorm:"type:text"`
	Error               string  `gorm:"type:text"`
	DurationMs          int64
	CreatedAt           time.Time
}

// Failed reports whether the risk ended without a decision.
func (o RiskOutcome) Failed() bool {
	return o.Decision == nil
}
