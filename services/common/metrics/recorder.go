// Package metrics lets domain code count things without knowing whether the numbers end up
// in CloudWatch, Prometheus or both.
package metrics

import (
	"context"
	"time"
)

// Recorder is satisfied by *aws.MetricsClient and *PromRecorder.
type Recorder interface {
	RecordCount(ctx context.Context, name string, dimensions map[string]string) error
	RecordValue(ctx context.Context, name string, value float64, dimensions map[string]string) error
	RecordLatency(ctx context.Context, name string, d time.Duration, dimensions map[string]string) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordCount(context.Context, string, map[string]string) error { return nil }

func (Nop) RecordValue(context.Context, string, float64, map[string]string) error { return nil }

func (Nop) RecordLatency(context.Context, string, time.Duration, map[string]string) error {
	return nil
}

// Multi fans out to every recorder and returns the first error.
type Multi []Recorder

func (m Multi) RecordCount(ctx context.Context, name string, dims map[string]string) error {
	var first error
	for _, r := range m {
		if err := r.RecordCount(ctx, name, dims); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) RecordValue(ctx context.Context, name string, value float64, dims map[string]string) error {
	var first error
	for _, r := range m {
		if err := r.RecordValue(ctx, name, value, dims); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) RecordLatency(ctx context.Context, name string, d time.Duration, dims map[string]string) error {
	var first error
	for _, r := range m {
		if err := r.RecordLatency(ctx, name, d, dims); err != nil && first == nil {
			first = err
		}
	}
	return first
}
