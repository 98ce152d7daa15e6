package cdm

import (
	"context"
	"strings"
	"testing"
)

func tariffInput() TariffInput {
	return TariffInput{
		Declaration: &DeclarationSnapshot{HSCode: "8471", GoodsDescription: "laptops", DutyFee: "10"},
		Reference:   &TariffReference{HSCode: "8471", Description: "portable computers", DutyPercentage: "10"},
		Risk:        RiskProfile{RiskID: "r1", RiskType: "TARIFF", RiskDescription: "description differs"},
	}
}

func TestTariffVerifierMissingInputs(t *testing.T) {
	generator := &scriptedGenerator{}
	verifier := NewTariffVerifier(generator, 0)

	in := tariffInput()
	in.Reference = nil
	fb := verifier.Verify(context.Background(), in)
	if fb.Status != StatusIncorrectHSCode || fb.Explanation != tariffReferenceMissing {
		t.Fatalf("unexpected feedback %+v", fb)
	}

	in = tariffInput()
	in.Declaration = nil
	fb = verifier.Verify(context.Background(), in)
	if fb.Status != StatusNeedReview || fb.Explanation != tariffDeclarationMissing {
		t.Fatalf("unexpected feedback %+v", fb)
	}

	if generator.calls() != 0 {
		t.Fatalf("generator must not run without both records")
	}
}

func TestTariffVerifierGeneratorFailure(t *testing.T) {
	verifier := NewTariffVerifier(&scriptedGenerator{err: errGeneratorDown}, 0)
	fb := verifier.Verify(context.Background(), tariffInput())
	if fb.Kind != FeedbackTariff || fb.Status != StatusNeedReview || fb.Explanation != tariffProcessingError {
		t.Fatalf("unexpected feedback %+v", fb)
	}
}

func TestTariffVerifierBlankReply(t *testing.T) {
	generator := &scriptedGenerator{replies: map[string]string{"tariff verification assistant": "  \n\t "}}
	fb := NewTariffVerifier(generator, 0).Verify(context.Background(), tariffInput())
	if fb.Status != StatusNeedReview || fb.Explanation != tariffProcessingError {
		t.Fatalf("unexpected feedback %+v", fb)
	}
}

func TestTariffVerifierNoGenerator(t *testing.T) {
	verifier := NewTariffVerifier(nil, 0)
	fb := verifier.Verify(context.Background(), tariffInput())
	if fb.Status != StatusNeedReview {
		t.Fatalf("expected NEED REVIEW got %s", fb.Status)
	}
}

func TestTariffVerifierParsesReply(t *testing.T) {
	generator := &scriptedGenerator{replies: map[string]string{
		"tariff verification assistant": "Status: DESCRIPTION MISMATCH\nExplanation: Laptops are not described as portable computers.",
	}}
	verifier := NewTariffVerifier(generator, 0)
	fb := verifier.Verify(context.Background(), tariffInput())
	if fb.Status != StatusDescriptionMismatch {
		t.Fatalf("expected DESCRIPTION MISMATCH got %s", fb.Status)
	}
	if fb.Explanation != "Laptops are not described as portable computers." {
		t.Fatalf("unexpected explanation %q", fb.Explanation)
	}

	prompt := generator.prompts[0]
	for _, want := range []string{"HS Code: 8471", "Description: laptops", "Duty Percentage: 10", "Reason: description differs", "portable computers"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestParseTariffReply(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		status      VerifierStatus
		explanation string
	}{
		{"well formed", "Status: ACCEPTED\nExplanation: All fields match.", StatusAccepted, "All fields match."},
		{"lower case labels", "status: duty percentage mismatch\nexplanation: 10 vs 12", StatusDutyPercentageMismatch, "10 vs 12"},
		{"mismatch wins over accepted", "Status: not ACCEPTED, INCORRECT HS CODE\nExplanation: wrong chapter", StatusIncorrectHSCode, "wrong chapter"},
		{"no status line", "I cannot decide.", StatusNeedReview, "I cannot decide."},
		{"unknown status kept", "Status: partially valid\nExplanation: unsure", VerifierStatus("PARTIALLY VALID"), "unsure"},
		{"missing explanation", "Status: ACCEPTED", StatusAccepted, "Status: ACCEPTED"},
		{"repeated explanation label", "Status: ACCEPTED\nExplanation: first\nExplanation: second", StatusAccepted, "first"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := parseTariffReply(tc.reply)
			if fb.Status != tc.status {
				t.Fatalf("expected status %q got %q", tc.status, fb.Status)
			}
			if fb.Explanation != tc.explanation {
				t.Fatalf("expected explanation %q got %q", tc.explanation, fb.Explanation)
			}
		})
	}
}

func TestParseDecisionReply(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		decision Decision
	}{
		{"labelled", "Decision: INSPECTION\nExplanation: needs a physical check", DecisionInspection},
		{"first line", "DECLINED\nExplanation: forged invoice", DecisionDeclined},
		{"reject synonym", "Decision: reject", DecisionDeclined},
		{"correction", "Decision: Correction required", DecisionCorrection},
		{"unrecognized", "Decision: maybe later", DecisionNeedReview},
		{"empty", "", DecisionNeedReview},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision, _ := parseDecisionReply(tc.reply)
			if decision != tc.decision {
				t.Fatalf("expected %s got %s", tc.decision, decision)
			}
		})
	}
}
