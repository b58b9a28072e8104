package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names recorded by SchedulingMetrics.
const (
	MetricSlotsGenerated     = "fieldz_slots_generated_total"
	MetricSlotConflicts      = "fieldz_slot_conflicts_total"
	MetricGenerationFailures = "fieldz_slot_generation_failures_total"
	MetricGenerationDuration = "fieldz_slot_generation_duration_ms"
)

// SchedulingMetrics counts what recurring generation produces. It reads the
// global meter provider at construction time.
type SchedulingMetrics struct {
	created   metric.Int64Counter
	conflicts metric.Int64Counter
	failures  metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewSchedulingMetrics() *SchedulingMetrics {
	meter := otel.Meter(tracerName)
	m := &SchedulingMetrics{}
	m.created, _ = meter.Int64Counter(
		MetricSlotsGenerated,
		metric.WithDescription("Slots created by recurring generation"),
		metric.WithUnit("{slot}"),
	)
	m.conflicts, _ = meter.Int64Counter(
		MetricSlotConflicts,
		metric.WithDescription("Occurrences skipped because the facility was already busy"),
		metric.WithUnit("{slot}"),
	)
	m.failures, _ = meter.Int64Counter(
		MetricGenerationFailures,
		metric.WithDescription("Generation runs that failed"),
	)
	m.duration, _ = meter.Float64Histogram(
		MetricGenerationDuration,
		metric.WithDescription("Time spent in a generation run"),
		metric.WithUnit("ms"),
	)
	return m
}

// RecordRun records one finished generation run. A nil receiver is a no-op.
func (m *SchedulingMetrics) RecordRun(ctx context.Context, facilityID int64, created, conflicts int, took time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("facility_id", strconv.FormatInt(facilityID, 10)))
	m.duration.Record(ctx, float64(took.Microseconds())/1000, attrs)
	if err != nil {
		m.failures.Add(ctx, 1, attrs)
		return
	}
	m.created.Add(ctx, int64(created), attrs)
	m.conflicts.Add(ctx, int64(conflicts), attrs)
}
