package cdm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const noFeedbackMessage = "No verifier feedback available; HS code may be invalid."

type decisionRule struct {
	needles  []string
	decision Decision
}

// decisionRules is evaluated top to bottom against the normalized verifier
// status; a rule matches when the status contains any of its needles.
var decisionRules = []decisionRule{
	{needles: []string{"UNDER", "OVER"}, decision: DecisionCorrection},
	{needles: []string{"INVALID", "INCORRECT HS", "NO DATA"}, decision: DecisionInvalidHSCode},
	{needles: []string{"ACCEPT"}, decision: DecisionAccepted},
	{needles: []string{"NEED REVIEW", "ERROR"}, decision: DecisionNeedReview},
}

// MatchDecisionRule maps a verifier status to a decision using the first
// matching rule. ok is false when no rule applies.
func MatchDecisionRule(status VerifierStatus) (Decision, bool) {
	normalized := status.Normalized()
	if normalized == "" {
		return "", false
	}
	for _, rule := range decisionRules {
		for _, needle := range rule.needles {
			if strings.Contains(normalized, needle) {
				return rule.decision, true
			}
		}
	}
	return "", false
}

// Synthesizer turns verifier feedback into the final customs decision.
type Synthesizer struct {
	text textService
}

// NewSynthesizer constructs a synthesizer; timeout <= 0 selects the default.
func NewSynthesizer(gen TextGenerator, timeout time.Duration) *Synthesizer {
	return &Synthesizer{text: newTextService(gen, timeout)}
}

// Decide attaches the final decision to a state in DECIDING and completes it.
func (s *Synthesizer) Decide(ctx context.Context, state *WorkingState) (FinalDecision, error) {
	if state == nil || state.Risk == nil {
		return FinalDecision{}, ErrMissingRiskProfile
	}
	if state.Status() != StateDeciding {
		return FinalDecision{}, fmt.Errorf("%w: decide from %s", ErrInvalidTransition, state.Status())
	}

	decision := s.decide(ctx, state.riskID(), state.Feedback)
	state.Decision = &decision
	if err := state.advance(StateCompleted); err != nil {
		return FinalDecision{}, err
	}
	return decision, nil
}

func (s *Synthesizer) decide(ctx context.Context, riskID string, fb *Feedback) FinalDecision {
	if fb == nil {
		return FinalDecision{RiskID: riskID, Decision: DecisionInvalidHSCode, Feedback: noFeedbackMessage}
	}

	if decision, ok := MatchDecisionRule(fb.Status); ok {
		return FinalDecision{RiskID: riskID, Decision: decision, Feedback: s.justify(ctx, riskID, *fb, decision)}
	}

	reply, err := s.text.generate(ctx, buildClassificationPrompt(*fb))
	if err != nil {
		logrus.WithError(err).WithField("risk_id", riskID).Error("free classification failed")
		return FinalDecision{RiskID: riskID, Decision: DecisionError, Feedback: fmt.Sprintf("Decision failed: %v", err)}
	}
	decision, explanation := parseDecisionReply(reply)
	return FinalDecision{RiskID: riskID, Decision: decision, Feedback: explanation}
}

// justify asks for a justification of a decision that is already final.
func (s *Synthesizer) justify(ctx context.Context, riskID string, fb Feedback, decision Decision) string {
	fallback := fmt.Sprintf("Final decision derived from verifier status: %s", fb.Status)
	reply, err := s.text.generate(ctx, buildJustificationPrompt(fb, decision))
	if err != nil {
		logrus.WithError(err).WithField("risk_id", riskID).Warn("decision justification unavailable")
		return fallback
	}
	if explanation := parseExplanation(reply); explanation != "" {
		return explanation
	}
	return fallback
}

func buildJustificationPrompt(fb Feedback, decision Decision) string {
	builder := &strings.Builder{}
	builder.WriteString("You are a senior customs officer.\n\n")
	fmt.Fprintf(builder, "Verifier Status:\n%s\n\n", fb.Status)
	fmt.Fprintf(builder, "Verifier Explanation:\n%s\n\n", fb.Explanation)
	fmt.Fprintf(builder, "Final Decision: %s\n\n", decision)
	builder.WriteString("The final decision is fixed; do not change it.\n")
	builder.WriteString("Write a concise technical justification (max 50 words).\n\n")
	builder.WriteString("Response format:\nExplanation: <text>\n")
	return builder.String()
}

func buildClassificationPrompt(fb Feedback) string {
	builder := &strings.Builder{}
	builder.WriteString("You are a senior CDM Decision Officer.\n\n")
	fmt.Fprintf(builder, "Verifier Status:\n%s\n\n", fb.Status)
	fmt.Fprintf(builder, "Verifier Explanation:\n%s\n\n", fb.Explanation)
	builder.WriteString("Decide one:\nACCEPTED / CORRECTION / INSPECTION / DECLINED\n\n")
	builder.WriteString("Provide short explanation (<=50 words).\n\n")
	builder.WriteString("Response format:\nDecision: <value>\nExplanation: <text>\n")
	return builder.String()
}
