package cdm

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	valuationDeclarationMissing = "Declaration details are missing; valuation verification could not be performed."
	valuationReferenceMissing   = "No valuation reference data found for the declared HS code; please revalidate."
	valuationInvalidNumbers     = "Invalid numeric values encountered during valuation verification."
	valuationExplainFallback    = "Valuation status determined by rule-based checks; explanation unavailable."
)

// ValuationInput is everything the valuation verifier reads.
type ValuationInput struct {
	Declaration *DeclarationSnapshot
	Reference   *ValuationReference
	Risk        RiskProfile
}

// PriceBand is the acceptable declared-total range derived from a reference
// unit price, a quantity and an allowed variation percentage.
type PriceBand struct {
	UnitPrice float64
	Quantity  float64
	Variation float64
	Total     float64
	Lower     float64
	Upper     float64
}

// NewPriceBand computes total = unit x quantity and the band total x (1 -/+ v/100).
func NewPriceBand(unitPrice, quantity, variationPct float64) PriceBand {
	total := unitPrice * quantity
	return PriceBand{
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Variation: variationPct,
		Total:     total,
		Lower:     total * (1 - variationPct/100),
		Upper:     total * (1 + variationPct/100),
	}
}

// Classify places a declared total against the band. Both bounds are inclusive.
func (b PriceBand) Classify(declared float64) VerifierStatus {
	switch {
	case declared < b.Lower:
		return StatusUnderValued
	case declared > b.Upper:
		return StatusOverValued
	default:
		return StatusAccepted
	}
}

// ValuationVerifier classifies the declared value locally and only asks the
// text service to justify the status it already fixed.
type ValuationVerifier struct {
	text textService
}

// NewValuationVerifier constructs a verifier; timeout <= 0 selects the default.
func NewValuationVerifier(gen TextGenerator, timeout time.Duration) *ValuationVerifier {
	return &ValuationVerifier{text: newTextService(gen, timeout)}
}

// Verify always returns feedback. The returned status never depends on the
// text service.
func (v *ValuationVerifier) Verify(ctx context.Context, in ValuationInput) Feedback {
	if in.Declaration == nil {
		return Feedback{Kind: FeedbackValuation, Status: StatusNeedReview, Explanation: valuationDeclarationMissing}
	}
	if in.Reference == nil {
		return Feedback{Kind: FeedbackValuation, Status: StatusInvalidHSCode, Explanation: valuationReferenceMissing}
	}

	declared, band, err := valuationFigures(in.Declaration, in.Reference)
	if err != nil {
		logrus.WithError(err).WithField("risk_id", in.Risk.RiskID).Warn("valuation figures not numeric")
		return Feedback{Kind: FeedbackValuation, Status: StatusNeedReview, Explanation: valuationInvalidNumbers}
	}
	status := band.Classify(declared)

	fb := Feedback{Kind: FeedbackValuation, Status: status, Explanation: valuationExplainFallback}
	reply, err := v.text.generate(ctx, buildValuationPrompt(in, declared, band, status))
	if err != nil {
		logrus.WithError(err).WithField("risk_id", in.Risk.RiskID).Warn("valuation explanation unavailable")
		return fb
	}
	if explanation := parseExplanation(reply); explanation != "" {
		fb.Explanation = explanation
	}
	return fb
}

func valuationFigures(decl *DeclarationSnapshot, ref *ValuationReference) (float64, PriceBand, error) {
	declared, err := parseAmount(decl.GoodsValue, 0)
	if err != nil {
		return 0, PriceBand{}, fmt.Errorf("goods value: %w", err)
	}
	quantity, err := parseAmount(decl.Quantity, 1)
	if err != nil {
		return 0, PriceBand{}, fmt.Errorf("quantity: %w", err)
	}
	if quantity == 0 {
		quantity = 1
	}
	unitPrice, err := parseAmount(ref.Price, 0)
	if err != nil {
		return 0, PriceBand{}, fmt.Errorf("reference price: %w", err)
	}
	variation, err := parseAmount(ref.VariationPercentage, 0)
	if err != nil {
		return 0, PriceBand{}, fmt.Errorf("variation percentage: %w", err)
	}
	return declared, NewPriceBand(unitPrice, quantity, variation), nil
}

// parseAmount reads a decimal; blank input yields def. Non-finite values are
// rejected along with anything ParseFloat refuses.
func parseAmount(raw string, def float64) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("non-finite amount %q", trimmed)
	}
	return value, nil
}

func buildValuationPrompt(in ValuationInput, declared float64, band PriceBand, status VerifierStatus) string {
	builder := &strings.Builder{}
	builder.WriteString("You are a customs valuation verification specialist.\n\n")

	builder.WriteString("### USER DECLARATION INPUT\n")
	fmt.Fprintf(builder, "HS Code: %s\n", in.Declaration.HSCode)
	fmt.Fprintf(builder, "Quantity: %g\n", band.Quantity)
	fmt.Fprintf(builder, "Declared Total Price: %g\n", declared)
	if currency := strings.TrimSpace(in.Declaration.Currency); currency != "" {
		fmt.Fprintf(builder, "Currency: %s\n", currency)
	}
	builder.WriteString("\n")

	builder.WriteString("### DATABASE REFERENCE VALUES\n")
	fmt.Fprintf(builder, "Unit Price: %g\n", band.UnitPrice)
	fmt.Fprintf(builder, "Allowed Variation: ±%g%%\n", band.Variation)
	fmt.Fprintf(builder, "DB Total Price: %g\n", band.Total)
	fmt.Fprintf(builder, "Acceptable Range: %.2f - %.2f\n\n", band.Lower, band.Upper)

	builder.WriteString("### RISK PROFILE REASON\n")
	fmt.Fprintf(builder, "Reason: %s\n\n", strings.TrimSpace(in.Risk.RiskDescription))

	builder.WriteString("### RESULT (ALREADY DETERMINED)\n")
	fmt.Fprintf(builder, "Status: %s\n\n", status)

	builder.WriteString("### TASK\n")
	builder.WriteString("Write a concise technical explanation (<50 words) justifying the above status.\n")
	builder.WriteString("Do NOT re-calculate values.\n")
	builder.WriteString("Do NOT change the status.\n\n")

	builder.WriteString("### RESPONSE FORMAT\n")
	fmt.Fprintf(builder, "Status: %s\n", status)
	builder.WriteString("Explanation: <text>\n")
	return builder.String()
}
