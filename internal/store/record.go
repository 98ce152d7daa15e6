package store

import (
	"time"

	"github.com/Lavan1999/agentic-ai/internal/cdm"
)

// NewRun converts an orchestrator response into a history row stamped with the
// time the run started. Risks whose processing failed keep their error text and
// a nil decision.
func NewRun(resp cdm.Response, started time.Time, durationMs int64) *Run {
	run := &Run{
		DeclarationID: resp.DeclarationID,
		RiskCount:     len(resp.Results),
		DurationMs:    durationMs,
		Outcomes:      make([]RiskOutcome, 0, len(resp.Results)),
		CreatedAt:     started,
	}
	for _, result := range resp.Results {
		outcome := RiskOutcome{
			RiskID:     result.RiskID,
			RiskType:   string(cdm.NormalizeRiskType(result.RiskType)),
			DurationMs: result.Duration.Milliseconds(),
			CreatedAt:  started,
		}
		if result.Verifier != nil {
			outcome.VerifierStatus = string(result.Verifier.Status)
			outcome.VerifierExplanation = result.Verifier.Explanation
		}
		if result.Output.Decision != nil {
			decision := string(*result.Output.Decision)
			outcome.Decision = &decision
		}
		if result.Output.Feedback != nil {
			feedback := *result.Output.Feedback
			outcome.Feedback = &feedback
		}
		if result.Err != nil {
			outcome.Error = result.Err.Error()
		}
		if outcome.Failed() {
			run.FailedCount++
		}
		run.Outcomes = append(run.Outcomes, outcome)
	}
	return run
}
