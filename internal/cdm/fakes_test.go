package cdm

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var errGeneratorDown = errors.New("generator down")

// scriptedGenerator answers prompts by matching a marker in the prompt text.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	for marker, reply := range g.replies {
		if strings.Contains(prompt, marker) {
			return reply, nil
		}
	}
	return "", nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeDeclarations struct {
	snapshot *DeclarationSnapshot
	err      error
	calls    int
	mu       sync.Mutex
}

func (f *fakeDeclarations) FetchDeclaration(context.Context, string) (*DeclarationSnapshot, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

type fakeReferences struct {
	tariff       map[string]*TariffReference
	valuation    map[string]*ValuationReference
	tariffErr    error
	valuationErr error
	panicOn      string
}

func (f *fakeReferences) FetchTariff(_ context.Context, hsCode string) (*TariffReference, error) {
	if f.tariffErr != nil {
		return nil, f.tariffErr
	}
	if ref, ok := f.tariff[hsCode]; ok {
		return ref, nil
	}
	return nil, ErrNotFound
}

func (f *fakeReferences) FetchValuation(_ context.Context, hsCode string) (*ValuationReference, error) {
	if f.panicOn == hsCode {
		panic("valuation backend exploded")
	}
	if f.valuationErr != nil {
		return nil, f.valuationErr
	}
	if ref, ok := f.valuation[hsCode]; ok {
		return ref, nil
	}
	return nil, ErrNotFound
}

func valuationDeclaration(goodsValue string) *DeclarationSnapshot {
	return &DeclarationSnapshot{HSCode: "1234", GoodsDescription: "steel bolts", DutyFee: "5", GoodsValue: goodsValue, Quantity: "10", Currency: "USD"}
}

func valuationReference() *ValuationReference {
	return &ValuationReference{ProductID: "p-1", Description: "steel bolts", Price: "100", Currency: "USD", VariationPercentage: "5", UnitName: "piece"}
}
