package embed

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("stembed.embed")

var (
	// solveTotal counts finished solves by status and theory.
	solveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stembed_solve_total",
		Help: "Total embedding solves by status and theory",
	}, []string{"status", "theory"})

	// solveDuration tracks wall time per solve.
	solveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stembed_solve_duration_seconds",
		Help:    "Embedding solve duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	}, []string{"theory"})

	// solveExpansions tracks search size per solve.
	solveExpansions = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stembed_solve_expansions",
		Help:    "Candidate expansions per embedding solve",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	}, []string{"theory"})
)

func startSolveSpan(ctx context.Context, req Request) (context.Context, trace.Span) {
	return tracer.Start(ctx, "embed.Solver.Solve",
		trace.WithAttributes(
			attribute.String("embed.implementation", req.Implementation.Name()),
			attribute.String("embed.spacetime", req.Spacetime.Name),
			attribute.String("embed.theory", req.Theory.Name()),
			attribute.Int("embed.pins", len(req.Pins)),
		),
	)
}

func setSolveSpanResult(span trace.Span, res Result) {
	span.SetAttributes(
		attribute.String("embed.status", string(res.Status)),
		attribute.Int64("embed.expansions", res.Stats.Expansions),
		attribute.Int64("embed.backtracks", res.Stats.Backtracks),
		attribute.Int64("embed.theory_checks", res.Stats.TheoryChecks),
	)
}

func recordSolveMetrics(theoryName string, res Result) {
	solveTotal.WithLabelValues(string(res.Status), theoryName).Inc()
	solveDuration.WithLabelValues(theoryName).Observe(res.Stats.Elapsed.Seconds())
	solveExpansions.WithLabelValues(theoryName).Observe(float64(res.Stats.Expansions))
}
