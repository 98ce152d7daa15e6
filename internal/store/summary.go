package store

import (
	"errors"
	"fmt"
	"time"
)

// DecisionCount is the number of outcomes that ended with one decision.
// Failed outcomes are grouped under an empty decision.
type DecisionCount struct {
	Decision string
	RiskType string
	Total    int
}

// DecisionCounts aggregates outcomes created at or after since by decision and
// risk type, most frequent first.
func (d *Database) DecisionCounts(since time.Time) ([]DecisionCount, error) {
	if d == nil {
		return nil, errors.New("database is nil")
	}
	query := d.gorm.Table("risk_outcomes").
		Select("COALESCE(decision, '') AS decision, risk_type, COUNT(*) AS total").
		Group("COALESCE(decision, ''), risk_type").
		Order("total DESC").
		Order("decision ASC")
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}

	var results []DecisionCount
	if err := query.Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("decision counts: %w", err)
	}
	return results, nil
}
