package cdm

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Router dispatches a working state to the verifier that matches its risk type.
type Router struct {
	tariff    *TariffVerifier
	valuation *ValuationVerifier
}

// NewRouter wires the two verifiers.
func NewRouter(tariff *TariffVerifier, valuation *ValuationVerifier) *Router {
	return &Router{tariff: tariff, valuation: valuation}
}

// Route runs the verifier for the state's risk and stores its feedback. Unknown
// risk types leave the feedback empty. The state moves INIT -> EXECUTING ->
// DECIDING; a state without a risk profile is rejected before EXECUTING.
func (r *Router) Route(ctx context.Context, state *WorkingState) error {
	if state == nil || state.Risk == nil {
		return ErrMissingRiskProfile
	}
	if err := state.advance(StateExecuting); err != nil {
		return err
	}

	risk := *state.Risk
	switch riskType := NormalizeRiskType(risk.RiskType); riskType {
	case RiskTariff:
		fb := r.tariff.Verify(ctx, TariffInput{
			Declaration: state.Declaration,
			Reference:   state.Tariff,
			Risk:        risk,
		})
		state.Feedback = &fb
	case RiskValuation:
		fb := r.valuation.Verify(ctx, ValuationInput{
			Declaration: state.Declaration,
			Reference:   state.Valuation,
			Risk:        risk,
		})
		state.Feedback = &fb
	default:
		logrus.WithFields(logrus.Fields{
			"risk_id":   risk.RiskID,
			"risk_type": string(riskType),
		}).Warn("unknown risk type; no verifier dispatched")
	}

	return state.advance(StateDeciding)
}
