package cdm

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by gateways when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrMissingRiskProfile marks a working state that cannot be routed.
	ErrMissingRiskProfile = errors.New("risk profile missing from working state")
)

// DeclarationSnapshot is the canonical view of one customs declaration. It is
// fetched once per run and shared read-only between all risks. Numeric fields
// stay textual so malformed upstream values can be reported.
type DeclarationSnapshot struct {
	HSCode           string `json:"hs_code"`
	GoodsDescription string `json:"goods_description"`
	DutyFee          string `json:"duty_fee"`
	GoodsValue       string `json:"goods_value"`
	Quantity         string `json:"quantity"`
	Currency         string `json:"currency"`
	Deposit          string `json:"deposit"`
}

// RiskType classifies a risk profile.
type RiskType string

const (
	RiskTariff    RiskType = "TARIFF"
	RiskValuation RiskType = "VALUATION"
)

// NormalizeRiskType trims and upper-cases a raw risk type.
func NormalizeRiskType(raw string) RiskType {
	return RiskType(strings.ToUpper(strings.TrimSpace(raw)))
}

// RiskProfile is a flagged concern about a declaration.
type RiskProfile struct {
	RiskID            string `json:"risk_id"`
	RiskType          string `json:"risk_type"`
	RiskDescription   string `json:"risk_description"`
	ConfidenceScore   string `json:"risk_confidence_score"`
	RecommendedAction string `json:"risk_recommended_action"`
}

// TariffReference is the official tariff record for an HS code.
type TariffReference struct {
	HSCode         string `json:"hs_code"`
	Description    string `json:"description"`
	DutyPercentage string `json:"duty_percentage"`
}

// ValuationReference is the reference price record for an HS code. Numeric
// fields stay textual so malformed upstream values can be reported.
type ValuationReference struct {
	ProductID           string `json:"product_id"`
	Description         string `json:"description"`
	Price               string `json:"price"`
	Currency            string `json:"currency"`
	VariationPercentage string `json:"variation_percentage"`
	UnitName            string `json:"unit_name"`
}

// VerifierStatus is the outcome reported by a verifier. The constants below are
// the values the verifiers produce themselves; a tariff status parsed from a
// generated reply may carry other text, which the decision rules still match.
type VerifierStatus string

const (
	StatusAccepted               VerifierStatus = "ACCEPTED"
	StatusIncorrectHSCode        VerifierStatus = "INCORRECT HS CODE"
	StatusDescriptionMismatch    VerifierStatus = "DESCRIPTION MISMATCH"
	StatusDutyPercentageMismatch VerifierStatus = "DUTY PERCENTAGE MISMATCH"
	StatusUnderValued            VerifierStatus = "UNDER VALUED"
	StatusOverValued             VerifierStatus = "OVER VALUED"
	StatusInvalidHSCode          VerifierStatus = "INVALID HS CODE"
	StatusNeedReview             VerifierStatus = "NEED REVIEW"
)

// Normalized returns the trimmed, upper-cased status text.
func (s VerifierStatus) Normalized() string {
	return strings.ToUpper(strings.TrimSpace(string(s)))
}

// FeedbackKind tags which verifier produced a Feedback.
type FeedbackKind string

const (
	FeedbackTariff    FeedbackKind = "tariff"
	FeedbackValuation FeedbackKind = "valuation"
)

// Feedback is the structured result of a verifier.
type Feedback struct {
	Kind        FeedbackKind   `json:"kind"`
	Status      VerifierStatus `json:"status"`
	Explanation string         `json:"explanation"`
}

// Decision is the final customs disposition for a risk.
type Decision string

const (
	DecisionAccepted      Decision = "ACCEPTED"
	DecisionCorrection    Decision = "CORRECTION"
	DecisionInspection    Decision = "INSPECTION"
	DecisionDeclined      Decision = "DECLINED"
	DecisionNeedReview    Decision = "NEED REVIEW"
	DecisionInvalidHSCode Decision = "INVALID HS CODE"
	DecisionError         Decision = "ERROR"
)

// FinalDecision is the synthesized outcome for one risk.
type FinalDecision struct {
	RiskID   string   `json:"risk_id"`
	Decision Decision `json:"decision"`
	Feedback string   `json:"feedback"`
}
