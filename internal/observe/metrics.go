// Package observe provides OpenTelemetry metrics for the assistant loop.
//
// Instruments are created from a [metric.MeterProvider] so tests can pass a
// provider backed by a manual reader. [InitProvider] wires the global
// provider to a Prometheus exporter for the /metrics endpoint.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/emmett/voxwake"

// Metrics holds the instruments recorded by the listening loop. A nil
// *Metrics records nothing.
type Metrics struct {
	// Wakes counts session starts. Attribute: trigger (keyword|manual).
	Wakes metric.Int64Counter

	// Sessions counts finished sessions. Attribute: outcome
	// (executed|failed|timeout|cancelled).
	Sessions metric.Int64Counter

	// Recognitions counts recognized text fragments. Attribute: matched (bool).
	Recognitions metric.Int64Counter

	// SessionDuration tracks time from wake to session end.
	SessionDuration metric.Float64Histogram

	// CommandDuration tracks command execution time. Attribute: type.
	CommandDuration metric.Float64Histogram

	// Listening is 1 while a session is open.
	Listening metric.Int64UpDownCounter
}

var durationBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates all instruments on mp
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Wakes, err = m.Int64Counter("voxwake.wakes",
		metric.WithDescription("Listening sessions started, by trigger."),
	); err != nil {
		return nil, err
	}
	if met.Sessions, err = m.Int64Counter("voxwake.sessions",
		metric.WithDescription("Listening sessions finished, by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Recognitions, err = m.Int64Counter("voxwake.recognitions",
		metric.WithDescription("Recognized text fragments after filler removal."),
	); err != nil {
		return nil, err
	}
	if met.SessionDuration, err = m.Float64Histogram("voxwake.session.duration",
		metric.WithDescription("Time from wake to end of session."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CommandDuration, err = m.Float64Histogram("voxwake.command.duration",
		metric.WithDescription("Command execution latency by type."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Listening, err = m.Int64UpDownCounter("voxwake.listening",
		metric.WithDescription("1 while a listening session is open."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordWake counts a session start
func (m *Metrics) RecordWake(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.Wakes.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
	m.Listening.Add(ctx, 1)
}

// RecordSessionEnd counts a finished session and its duration
func (m *Metrics) RecordSessionEnd(ctx context.Context, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.Sessions.Add(ctx, 1, attrs)
	m.SessionDuration.Record(ctx, d.Seconds(), attrs)
	m.Listening.Add(ctx, -1)
}

// RecordRecognition counts a recognized fragment
func (m *Metrics) RecordRecognition(ctx context.Context, matched bool) {
	if m == nil {
		return
	}
	m.Recognitions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("matched", matched)))
}

// RecordCommand records a command's execution latency
func (m *Metrics) RecordCommand(ctx context.Context, kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CommandDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("type", kind),
		attribute.String("status", status),
	))
}
