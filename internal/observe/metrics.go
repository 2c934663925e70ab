// Package observe holds the OpenTelemetry instruments recorded by the
// assessment engine. Tests should build a [Metrics] from a dedicated
// [metric.MeterProvider] (for example a ManualReader-backed one, or the noop
// provider) instead of the global one.
package observe

import (
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/foxseedlab/speakscore"

// Submission status attribute values.
const (
	StatusScored    = "scored"
	StatusDegraded  = "degraded"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

type Metrics struct {
	// TranscriptionDuration tracks how long the transcriber takes per answer.
	TranscriptionDuration metric.Float64Histogram

	// Submissions counts answer submissions, with attribute "status".
	Submissions metric.Int64Counter

	// TranscriptionFailures counts transcriber errors recovered as silence.
	TranscriptionFailures metric.Int64Counter

	SessionsStarted   metric.Int64Counter
	SessionsCompleted metric.Int64Counter
	SessionsAbandoned metric.Int64Counter

	// ActiveSessions is the number of sessions holding working storage.
	ActiveSessions metric.Int64UpDownCounter

	// FinalScore records each per-utterance final score, with attribute "mode".
	FinalScore metric.Float64Histogram

	// HTTPRequestDuration tracks API latency by method, route and status.
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64}

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranscriptionDuration, err = m.Float64Histogram("speakscore.transcription.duration",
		metric.WithDescription("Latency of transcribing one answer."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Submissions, err = m.Int64Counter("speakscore.submissions",
		metric.WithDescription("Answer submissions by outcome."),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionFailures, err = m.Int64Counter("speakscore.transcription.failures",
		metric.WithDescription("Transcriber errors scored as silence."),
	); err != nil {
		return nil, err
	}
	if met.SessionsStarted, err = m.Int64Counter("speakscore.sessions.started",
		metric.WithDescription("Test sessions created."),
	); err != nil {
		return nil, err
	}
	if met.SessionsCompleted, err = m.Int64Counter("speakscore.sessions.completed",
		metric.WithDescription("Test sessions that reached a final score."),
	); err != nil {
		return nil, err
	}
	if met.SessionsAbandoned, err = m.Int64Counter("speakscore.sessions.abandoned",
		metric.WithDescription("Test sessions abandoned before completion."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("speakscore.sessions.active",
		metric.WithDescription("Test sessions currently holding working storage."),
	); err != nil {
		return nil, err
	}
	if met.FinalScore, err = m.Float64Histogram("speakscore.utterance.final_score",
		metric.WithDescription("Per-utterance weighted final score."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("speakscore.http.request.duration",
		metric.WithDescription("Latency of API requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}
