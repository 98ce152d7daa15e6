package cdm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	tariffDeclarationMissing = "Declaration details are missing; tariff verification could not be performed."
	tariffReferenceMissing   = "No matching tariff data found for the declared HS code; please revalidate the HS code."
	tariffProcessingError    = "Tariff verification failed due to an internal processing error."
)

// TariffInput is everything the tariff verifier reads.
type TariffInput struct {
	Declaration *DeclarationSnapshot
	Reference   *TariffReference
	Risk        RiskProfile
}

// TariffVerifier compares declared tariff data against the official record.
// The comparison itself is delegated to the text service; the verifier only
// decides what to ask and how to read the answer.
type TariffVerifier struct {
	text textService
}

// NewTariffVerifier constructs a verifier; timeout <= 0 selects the default.
func NewTariffVerifier(gen TextGenerator, timeout time.Duration) *TariffVerifier {
	return &TariffVerifier{text: newTextService(gen, timeout)}
}

// Verify always returns feedback; failures become NEED REVIEW.
func (v *TariffVerifier) Verify(ctx context.Context, in TariffInput) Feedback {
	if in.Declaration == nil {
		return Feedback{Kind: FeedbackTariff, Status: StatusNeedReview, Explanation: tariffDeclarationMissing}
	}
	if in.Reference == nil {
		return Feedback{Kind: FeedbackTariff, Status: StatusIncorrectHSCode, Explanation: tariffReferenceMissing}
	}

	reply, err := v.text.generate(ctx, buildTariffPrompt(in))
	if err != nil {
		logrus.WithError(err).WithField("risk_id", in.Risk.RiskID).Warn("tariff comparison unavailable")
		return Feedback{Kind: FeedbackTariff, Status: StatusNeedReview, Explanation: tariffProcessingError}
	}
	return parseTariffReply(reply)
}

func buildTariffPrompt(in TariffInput) string {
	decl, ref := in.Declaration, in.Reference
	builder := &strings.Builder{}
	builder.WriteString("You are a customs tariff verification assistant.\n\n")

	builder.WriteString("### USER DECLARATION INPUT\n")
	fmt.Fprintf(builder, "HS Code: %s\n", decl.HSCode)
	fmt.Fprintf(builder, "Description: %s\n", decl.GoodsDescription)
	fmt.Fprintf(builder, "Duty Percentage: %s\n", decl.DutyFee)
	fmt.Fprintf(builder, "Reason: %s\n\n", strings.TrimSpace(in.Risk.RiskDescription))

	builder.WriteString("### OFFICIAL TARIFF DATABASE DATA\n")
	fmt.Fprintf(builder, "HS Code: %s\n", ref.HSCode)
	fmt.Fprintf(builder, "Description: %s\n", ref.Description)
	fmt.Fprintf(builder, "Duty Percentage: %s\n\n", ref.DutyPercentage)

	builder.WriteString("### TASK\n")
	builder.WriteString("Your verification must follow this strict priority order:\n")
	builder.WriteString("1. PRIMARY CHECK: evaluate ONLY the field mentioned in \"Reason\".\n")
	builder.WriteString("2. SECONDARY CHECK: only if the priority field matches, check the remaining fields.\n\n")

	builder.WriteString("### STATUS RULES\n")
	builder.WriteString("- Description mismatch -> DESCRIPTION MISMATCH\n")
	builder.WriteString("- Duty mismatch -> DUTY PERCENTAGE MISMATCH\n")
	builder.WriteString("- HS code mismatch -> INCORRECT HS CODE\n")
	builder.WriteString("- All fields match -> ACCEPTED\n\n")

	builder.WriteString("### IMPORTANT\n")
	builder.WriteString("- First evaluate the field mentioned in \"Reason\".\n")
	builder.WriteString("- Stop evaluation immediately if the priority field mismatches.\n")
	builder.WriteString("- Explanation must be under 70 words.\n\n")

	builder.WriteString("### RESPONSE FORMAT\n")
	builder.WriteString("Status: <ACCEPTED / INCORRECT HS CODE / DESCRIPTION MISMATCH / DUTY PERCENTAGE MISMATCH>\n")
	builder.WriteString("Explanation: <text>\n")
	return builder.String()
}
