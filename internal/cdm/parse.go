package cdm

import "strings"

// Generated replies carry no structure guarantee. Every call site parses its
// reply through exactly one of the adapters below; labels are matched without
// regard to case.

const (
	labelStatus      = "Status:"
	labelExplanation = "Explanation:"
	labelDecision    = "Decision:"
)

// Mismatch tokens come first so a reply such as "ACCEPTED? no, DESCRIPTION
// MISMATCH" is not read as an acceptance.
var tariffStatusTokens = []VerifierStatus{
	StatusIncorrectHSCode,
	StatusDescriptionMismatch,
	StatusDutyPercentageMismatch,
	StatusAccepted,
}

// parseTariffReply extracts status and explanation from a tariff comparison
// reply. Without a status line the status is NEED REVIEW and the whole reply is
// the explanation. A status line without a known token keeps its upper-cased
// text so the decision rules still see what the service said.
func parseTariffReply(reply string) Feedback {
	reply = strings.TrimSpace(reply)
	fb := Feedback{
		Kind:        FeedbackTariff,
		Status:      StatusNeedReview,
		Explanation: reply,
	}

	if line, ok := extractLine(reply, labelStatus); ok && line != "" {
		fb.Status = matchTariffStatus(line)
	}
	if explanation, ok := extractSection(reply, labelExplanation); ok && explanation != "" {
		fb.Explanation = explanation
	}
	return fb
}

func matchTariffStatus(line string) VerifierStatus {
	normalized := VerifierStatus(line).Normalized()
	for _, token := range tariffStatusTokens {
		if strings.Contains(normalized, string(token)) {
			return token
		}
	}
	return VerifierStatus(normalized)
}

// parseExplanation returns the text after "Explanation:", or the whole reply.
func parseExplanation(reply string) string {
	reply = strings.TrimSpace(reply)
	if explanation, ok := extractSection(reply, labelExplanation); ok && explanation != "" {
		return explanation
	}
	return reply
}

// parseDecisionReply reads a free classification. The label comes from the
// "Decision:" line, or the first line when that is missing; anything that is
// not recognizable falls back to NEED REVIEW.
func parseDecisionReply(reply string) (Decision, string) {
	reply = strings.TrimSpace(reply)

	label, ok := extractLine(reply, labelDecision)
	if !ok {
		label = firstLine(reply)
	}
	return matchDecisionLabel(label), parseExplanation(reply)
}

func matchDecisionLabel(label string) Decision {
	label = strings.ToUpper(strings.TrimSpace(label))
	switch {
	case strings.Contains(label, "ACCEPT"):
		return DecisionAccepted
	case strings.Contains(label, "CORRECT"):
		return DecisionCorrection
	case strings.Contains(label, "INSPECT"):
		return DecisionInspection
	case strings.Contains(label, "DECLINE"), strings.Contains(label, "REJECT"):
		return DecisionDeclined
	default:
		return DecisionNeedReview
	}
}

// extractSection returns the text after the first occurrence of label, up to a
// repeated occurrence of the same label.
func extractSection(text, label string) (string, bool) {
	idx := indexFold(text, label)
	if idx < 0 {
		return "", false
	}
	rest := text[idx+len(label):]
	if next := indexFold(rest, label); next >= 0 {
		rest = rest[:next]
	}
	return strings.TrimSpace(rest), true
}

// extractLine returns the remainder of the line that carries label.
func extractLine(text, label string) (string, bool) {
	idx := indexFold(text, label)
	if idx < 0 {
		return "", false
	}
	return firstLine(text[idx+len(label):]), true
}

func firstLine(text string) string {
	text = strings.TrimLeft(text, " \t")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// indexFold is a case-insensitive strings.Index for ASCII labels.
func indexFold(s, label string) int {
	n := len(label)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], label) {
			return i
		}
	}
	return -1
}
