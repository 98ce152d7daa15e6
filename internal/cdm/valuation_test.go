package cdm

import (
	"context"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPriceBandClassify(t *testing.T) {
	band := NewPriceBand(100, 10, 5)
	if band.Total != 1000 || band.Lower != 950 || band.Upper != 1050 {
		t.Fatalf("unexpected band %+v", band)
	}

	tests := []struct {
		name     string
		declared float64
		expected VerifierStatus
	}{
		{"exact total", 1000, StatusAccepted},
		{"lower bound inclusive", 950, StatusAccepted},
		{"upper bound inclusive", 1050, StatusAccepted},
		{"just below", 949.99, StatusUnderValued},
		{"just above", 1050.01, StatusOverValued},
		{"far below", 800, StatusUnderValued},
		{"far above", 5000, StatusOverValued},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := band.Classify(tc.declared); got != tc.expected {
				t.Fatalf("expected %s got %s", tc.expected, got)
			}
		})
	}
}

func TestPriceBandProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("reference total is always accepted", prop.ForAll(
		func(unit float64, qty int, variation float64) bool {
			band := NewPriceBand(unit, float64(qty), variation)
			return band.Classify(band.Total) == StatusAccepted
		},
		gen.Float64Range(0.01, 1e6),
		gen.IntRange(1, 10000),
		gen.Float64Range(0, 100),
	))

	properties.Property("values outside the band are never accepted", prop.ForAll(
		func(unit float64, qty int, variation float64) bool {
			band := NewPriceBand(unit, float64(qty), variation)
			below := band.Lower - 1
			above := band.Upper + 1
			return band.Classify(below) == StatusUnderValued && band.Classify(above) == StatusOverValued
		},
		gen.Float64Range(0.01, 1e6),
		gen.IntRange(1, 10000),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

func TestValuationVerifierScenarios(t *testing.T) {
	generator := &scriptedGenerator{replies: map[string]string{
		"valuation verification specialist": "Status: ignored\nExplanation: Declared total compared with the reference band.",
	}}
	verifier := NewValuationVerifier(generator, 0)

	tests := []struct {
		name       string
		goodsValue string
		expected   VerifierStatus
	}{
		{"declared equals reference", "1000", StatusAccepted},
		{"declared below band", "800", StatusUnderValued},
		{"declared above band", "1200", StatusOverValued},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := verifier.Verify(context.Background(), ValuationInput{
				Declaration: valuationDeclaration(tc.goodsValue),
				Reference:   valuationReference(),
				Risk:        RiskProfile{RiskID: "r1", RiskType: "VALUATION"},
			})
			if fb.Kind != FeedbackValuation {
				t.Fatalf("expected valuation feedback got %s", fb.Kind)
			}
			if fb.Status != tc.expected {
				t.Fatalf("expected %s got %s", tc.expected, fb.Status)
			}
			if fb.Explanation != "Declared total compared with the reference band." {
				t.Fatalf("unexpected explanation %q", fb.Explanation)
			}
		})
	}
}

func TestValuationStatusIgnoresGenerator(t *testing.T) {
	in := ValuationInput{Declaration: valuationDeclaration("800"), Reference: valuationReference()}

	failing := NewValuationVerifier(&scriptedGenerator{err: errGeneratorDown}, 0)
	fb := failing.Verify(context.Background(), in)
	if fb.Status != StatusUnderValued {
		t.Fatalf("expected UNDER VALUED got %s", fb.Status)
	}
	if fb.Explanation != valuationExplainFallback {
		t.Fatalf("expected fallback explanation got %q", fb.Explanation)
	}

	contrarian := NewValuationVerifier(&scriptedGenerator{replies: map[string]string{
		"Status:": "Status: ACCEPTED\nExplanation: Looks fine to me.",
	}}, 0)
	fb = contrarian.Verify(context.Background(), in)
	if fb.Status != StatusUnderValued {
		t.Fatalf("generated status must not override the band, got %s", fb.Status)
	}

	silent := NewValuationVerifier(&scriptedGenerator{}, 0)
	fb = silent.Verify(context.Background(), in)
	if fb.Explanation != valuationExplainFallback {
		t.Fatalf("empty reply should keep fallback, got %q", fb.Explanation)
	}
}

func TestValuationVerifierEdgeCases(t *testing.T) {
	generator := &scriptedGenerator{}
	verifier := NewValuationVerifier(generator, 0)

	t.Run("missing declaration", func(t *testing.T) {
		fb := verifier.Verify(context.Background(), ValuationInput{Reference: valuationReference()})
		if fb.Status != StatusNeedReview || fb.Explanation != valuationDeclarationMissing {
			t.Fatalf("unexpected feedback %+v", fb)
		}
	})

	t.Run("missing reference", func(t *testing.T) {
		fb := verifier.Verify(context.Background(), ValuationInput{Declaration: valuationDeclaration("1000")})
		if fb.Status != StatusInvalidHSCode || fb.Explanation != valuationReferenceMissing {
			t.Fatalf("unexpected feedback %+v", fb)
		}
	})

	t.Run("malformed goods value", func(t *testing.T) {
		fb := verifier.Verify(context.Background(), ValuationInput{Declaration: valuationDeclaration("abc"), Reference: valuationReference()})
		if fb.Status != StatusNeedReview || fb.Explanation != valuationInvalidNumbers {
			t.Fatalf("unexpected feedback %+v", fb)
		}
	})

	t.Run("malformed reference price", func(t *testing.T) {
		ref := valuationReference()
		ref.Price = "n/a"
		fb := verifier.Verify(context.Background(), ValuationInput{Declaration: valuationDeclaration("1000"), Reference: ref})
		if fb.Status != StatusNeedReview {
			t.Fatalf("expected NEED REVIEW got %s", fb.Status)
		}
	})

	t.Run("zero quantity counts as one", func(t *testing.T) {
		decl := valuationDeclaration("100")
		decl.Quantity = "0"
		fb := verifier.Verify(context.Background(), ValuationInput{Declaration: decl, Reference: valuationReference()})
		if fb.Status != StatusAccepted {
			t.Fatalf("expected ACCEPTED got %s", fb.Status)
		}
	})

	t.Run("malformed quantity", func(t *testing.T) {
		decl := valuationDeclaration("1000")
		decl.Quantity = "ten"
		fb := verifier.Verify(context.Background(), ValuationInput{Declaration: decl, Reference: valuationReference()})
		if fb.Status != StatusNeedReview || fb.Explanation != valuationInvalidNumbers {
			t.Fatalf("unexpected feedback %+v", fb)
		}
	})

	if generator.calls() != 1 {
		t.Fatalf("generator should only run for the classified case, ran %d times", generator.calls())
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"  12.5 ", 12.5, false},
		{"1e3", 1000, false},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"12,5", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := parseAmount(tc.raw, 0)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v got %v", tc.want, got)
			}
		})
	}
}
