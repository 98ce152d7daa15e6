package cdm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Lavan1999/agentic-ai/internal/util"
)

// Request is one adjudication request: a declaration and its flagged risks.
type Request struct {
	DeclarationID string        `json:"declaration_id"`
	RiskProfiles  []RiskProfile `json:"risk_profiles"`
}

// RiskOutput carries the caller-visible outcome; both fields are null when the
// risk could not be processed.
type RiskOutput struct {
	Decision *Decision `json:"cdm_decision"`
	Feedback *string   `json:"cdm_feedback"`
}

// RiskResult is the per-risk entry of a Response. Fields tagged "-" are kept
// for history and logging only.
type RiskResult struct {
	RiskID string     `json:"risk_id"`
	Output RiskOutput `json:"output"`

	RiskType string        `json:"-"`
	Verifier *Feedback     `json:"-"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"-"`
}

// Response holds one result per requested risk, in request order.
type Response struct {
	DeclarationID string       `json:"declaration_id"`
	Results       []RiskResult `json:"results"`
}

// Orchestrator fetches a declaration once and adjudicates each of its risks
// with an isolated working state.
type Orchestrator struct {
	declarations  DeclarationSource
	pipeline      *Pipeline
	workers       int
	lookupTimeout time.Duration
	telemetry     *telemetry
}

// NewOrchestrator wires the declaration source and the per-risk pipeline.
func NewOrchestrator(declarations DeclarationSource, pipeline *Pipeline, cfg Config) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		declarations:  declarations,
		pipeline:      pipeline,
		workers:       cfg.Workers,
		lookupTimeout: cfg.LookupTimeout,
		telemetry:     newTelemetry(),
	}
}

// Run never fails: a declaration that cannot be fetched, or has no HS code,
// yields an empty result list, and per-risk failures become null entries.
func (o *Orchestrator) Run(ctx context.Context, req Request) Response {
	resp := Response{DeclarationID: req.DeclarationID, Results: make([]RiskResult, 0, len(req.RiskProfiles))}
	start := time.Now()

	declaration, err := o.fetchDeclaration(ctx, req.DeclarationID)
	if err != nil {
		entry := logrus.WithError(err).WithField("declaration_id", req.DeclarationID)
		if errors.Is(err, ErrNotFound) {
			entry.Warn("declaration not found")
		} else {
			entry.Error("fetch declaration failed")
		}
		return resp
	}
	if strings.TrimSpace(declaration.HSCode) == "" {
		logrus.WithField("declaration_id", req.DeclarationID).Warn("declaration has no hs code")
		return resp
	}

	logrus.WithFields(logrus.Fields{
		"declaration_id": req.DeclarationID,
		"hs_code":        declaration.HSCode,
		"risks":          len(req.RiskProfiles),
		"workers":        o.workers,
	}).Info("adjudication started")

	resp.Results = o.processAll(ctx, req.DeclarationID, declaration, req.RiskProfiles)

	logrus.WithFields(logrus.Fields{
		"declaration_id": req.DeclarationID,
		"risks":          len(resp.Results),
		"duration":       time.Since(start).Round(time.Millisecond),
	}).Info("adjudication completed")
	return resp
}

func (o *Orchestrator) fetchDeclaration(ctx context.Context, declarationID string) (*DeclarationSnapshot, error) {
	if o.declarations == nil {
		return nil, errors.New("declaration source not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, o.lookupTimeout)
	defer cancel()

	declaration, err := o.declarations.FetchDeclaration(ctx, declarationID)
	if err != nil {
		return nil, err
	}
	if declaration == nil {
		return nil, ErrNotFound
	}
	return declaration, nil
}

// processAll keeps results aligned with the input; each slot is written by
// exactly one worker.
func (o *Orchestrator) processAll(ctx context.Context, declarationID string, declaration *DeclarationSnapshot, risks []RiskProfile) []RiskResult {
	results := make([]RiskResult, len(risks))

	workers := o.workers
	if workers > len(risks) {
		workers = len(risks)
	}
	if workers <= 1 {
		for i := range risks {
			results[i] = o.processRisk(ctx, declarationID, declaration, risks[i])
		}
		return results
	}

	taskCh := make(chan int, workers*4)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskCh {
				results[idx] = o.processRisk(ctx, declarationID, declaration, risks[idx])
			}
		}()
	}
	for idx := range risks {
		taskCh <- idx
	}
	close(taskCh)
	wg.Wait()
	return results
}

func (o *Orchestrator) processRisk(ctx context.Context, declarationID string, declaration *DeclarationSnapshot, risk RiskProfile) (result RiskResult) {
	timer := util.StartTimer()
	ctx, span := o.telemetry.startRisk(ctx, declarationID, risk)
	defer span.End()

	state := NewWorkingState(declarationID, &risk, declaration)
	defer func() {
		if r := recover(); r != nil {
			result = failedResult(risk, fmt.Errorf("panic while processing risk: %v", r))
		}
		result.Duration = timer.Elapsed()
		o.telemetry.recordResult(ctx, span, result, float64(timer.ElapsedMs()))
		logResult(declarationID, result)
	}()

	if o.pipeline == nil {
		return failedResult(risk, errors.New("pipeline not configured"))
	}
	decision, err := o.pipeline.Run(ctx, state)
	if err != nil {
		result = failedResult(risk, err)
		result.Verifier = state.Feedback
		return result
	}

	label := decision.Decision
	feedback := decision.Feedback
	return RiskResult{
		RiskID:   risk.RiskID,
		Output:   RiskOutput{Decision: &label, Feedback: &feedback},
		RiskType: risk.RiskType,
		Verifier: state.Feedback,
	}
}

func failedResult(risk RiskProfile, err error) RiskResult {
	return RiskResult{RiskID: risk.RiskID, RiskType: risk.RiskType, Err: err}
}

func logResult(declarationID string, result RiskResult) {
	fields := logrus.Fields{
		"declaration_id": declarationID,
		"risk_id":        result.RiskID,
		"risk_type":      result.RiskType,
		"duration_ms":    result.Duration.Milliseconds(),
	}
	if result.Verifier != nil {
		fields["verifier_status"] = string(result.Verifier.Status)
	}
	if result.Err != nil {
		logrus.WithError(result.Err).WithFields(fields).Error("risk processing failed")
		return
	}
	if result.Output.Decision != nil {
		fields["decision"] = string(*result.Output.Decision)
	}
	logrus.WithFields(fields).Info("risk adjudicated")
}
