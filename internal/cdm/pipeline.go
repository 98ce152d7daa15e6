package cdm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultLookupTimeout bounds one declaration or reference lookup.
const DefaultLookupTimeout = 15 * time.Second

// DeclarationSource fetches declaration snapshots. A missing declaration is
// reported as ErrNotFound.
type DeclarationSource interface {
	FetchDeclaration(ctx context.Context, declarationID string) (*DeclarationSnapshot, error)
}

// ReferenceSource fetches reference records by HS code. The two lookups are
// independent; a missing record is reported as ErrNotFound.
type ReferenceSource interface {
	FetchTariff(ctx context.Context, hsCode string) (*TariffReference, error)
	FetchValuation(ctx context.Context, hsCode string) (*ValuationReference, error)
}

// Config tunes the pipeline and orchestration loop.
type Config struct {
	// Workers > 1 processes risks of one declaration concurrently.
	Workers         int
	LookupTimeout   time.Duration
	GenerateTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = DefaultLookupTimeout
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = DefaultGenerateTimeout
	}
	return c
}

// Pipeline runs one working state through retrieval, routing and synthesis.
type Pipeline struct {
	refs          ReferenceSource
	router        *Router
	synth         *Synthesizer
	lookupTimeout time.Duration
}

// NewPipeline wires verifiers, router and synthesizer around one text generator.
func NewPipeline(refs ReferenceSource, gen TextGenerator, cfg Config) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		refs: refs,
		router: NewRouter(
			NewTariffVerifier(gen, cfg.GenerateTimeout),
			NewValuationVerifier(gen, cfg.GenerateTimeout),
		),
		synth:         NewSynthesizer(gen, cfg.GenerateTimeout),
		lookupTimeout: cfg.LookupTimeout,
	}
}

// Run processes a fresh working state to completion. Errors are structural and
// belong to this risk only.
func (p *Pipeline) Run(ctx context.Context, state *WorkingState) (FinalDecision, error) {
	if state == nil || state.Risk == nil {
		return FinalDecision{}, ErrMissingRiskProfile
	}
	if err := p.retrieve(ctx, state); err != nil {
		return FinalDecision{}, err
	}
	if err := p.router.Route(ctx, state); err != nil {
		return FinalDecision{}, fmt.Errorf("route: %w", err)
	}
	decision, err := p.synth.Decide(ctx, state)
	if err != nil {
		return FinalDecision{}, fmt.Errorf("decide: %w", err)
	}
	return decision, nil
}

// retrieve loads the reference record the risk type needs. A missing record is
// left nil for the verifier to report.
func (p *Pipeline) retrieve(ctx context.Context, state *WorkingState) error {
	if state.Declaration == nil || strings.TrimSpace(state.Declaration.HSCode) == "" {
		logrus.WithField("risk_id", state.riskID()).Warn("no hs code on declaration; skipping reference lookup")
		return nil
	}
	if p.refs == nil {
		return nil
	}
	hsCode := strings.TrimSpace(state.Declaration.HSCode)

	ctx, cancel := context.WithTimeout(ctx, p.lookupTimeout)
	defer cancel()

	switch NormalizeRiskType(state.Risk.RiskType) {
	case RiskTariff:
		ref, err := p.refs.FetchTariff(ctx, hsCode)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch tariff reference %s: %w", hsCode, err)
		}
		state.Tariff = ref
	case RiskValuation:
		ref, err := p.refs.FetchValuation(ctx, hsCode)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch valuation reference %s: %w", hsCode, err)
		}
		state.Valuation = ref
	}
	return nil
}
