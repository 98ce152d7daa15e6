package cdm

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Lavan1999/agentic-ai/internal/cdm"

// telemetry uses the global otel providers, which are no-ops unless the
// process installs an SDK.
type telemetry struct {
	tracer    trace.Tracer
	decisions metric.Int64Counter
	failures  metric.Int64Counter
	latency   metric.Float64Histogram
}

func newTelemetry() *telemetry {
	meter := otel.Meter(instrumentationName)
	t := &telemetry{tracer: otel.Tracer(instrumentationName)}

	var err error
	if t.decisions, err = meter.Int64Counter("cdm.decisions",
		metric.WithDescription("Final decisions produced per risk")); err != nil {
		logrus.WithError(err).Warn("register cdm.decisions counter")
	}
	if t.failures, err = meter.Int64Counter("cdm.risk_failures",
		metric.WithDescription("Risks that ended without a decision")); err != nil {
		logrus.WithError(err).Warn("register cdm.risk_failures counter")
	}
	if t.latency, err = meter.Float64Histogram("cdm.risk_duration",
		metric.WithDescription("Per-risk processing time"), metric.WithUnit("ms")); err != nil {
		logrus.WithError(err).Warn("register cdm.risk_duration histogram")
	}
	return t
}

func (t *telemetry) startRisk(ctx context.Context, declarationID string, risk RiskProfile) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cdm.risk", trace.WithAttributes(
		attribute.String("cdm.declaration_id", declarationID),
		attribute.String("cdm.risk_id", risk.RiskID),
		attribute.String("cdm.risk_type", string(NormalizeRiskType(risk.RiskType))),
	))
}

func (t *telemetry) recordResult(ctx context.Context, span trace.Span, result RiskResult, elapsedMs float64) {
	riskType := attribute.String("risk_type", string(NormalizeRiskType(result.RiskType)))
	if t.latency != nil {
		t.latency.Record(ctx, elapsedMs, metric.WithAttributes(riskType))
	}
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
		if t.failures != nil {
			t.failures.Add(ctx, 1, metric.WithAttributes(riskType))
		}
		return
	}
	if result.Output.Decision != nil {
		decision := string(*result.Output.Decision)
		span.SetAttributes(attribute.String("cdm.decision", decision))
		if t.decisions != nil {
			t.decisions.Add(ctx, 1, metric.WithAttributes(riskType, attribute.String("decision", decision)))
		}
	}
}
