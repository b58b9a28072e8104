package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/fieldz/fieldz_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	c := &config.Config{}
	c.Observability.ServiceName = "fieldz"
	c.Server.Environment = "production"
	c.Scheduling.Timezone = "Africa/Algiers"
	c.Scheduling.LockBackend = "redis"
	c.Observability.Tracing.OTLPEndpoint = "otel:4318"

	got := FromCentralConfig(c)
	if got.OTLPEndpoint != "" {
		t.Errorf("endpoint %q used while tracing is disabled", got.OTLPEndpoint)
	}
	if got.Timezone != "Africa/Algiers" || got.LockBackend != "redis" || got.Environment != "production" {
		t.Errorf("unexpected config %+v", got)
	}

	c.Observability.Tracing.Enabled = true
	if got := FromCentralConfig(c); got.OTLPEndpoint != "otel:4318" {
		t.Errorf("endpoint = %q", got.OTLPEndpoint)
	}
}

func family(families []*dto.MetricFamily, prefix string) *dto.MetricFamily {
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), prefix) {
			return f
		}
	}
	return nil
}

func TestInitTelemetryExportsSchedulingMetrics(t *testing.T) {
	ctx := context.Background()
	reg := promclient.NewRegistry()
	p, err := InitTelemetry(ctx, Config{Timezone: "Africa/Algiers", LockBackend: "local", Registerer: reg})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer p.Shutdown(ctx)

	m := NewSchedulingMetrics()
	m.RecordRun(ctx, 7, 3, 2, 40*time.Millisecond, nil)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	hist := family(families, MetricGenerationDuration)
	if hist == nil || len(hist.GetMetric()) == 0 {
		t.Fatalf("no %s family in %d families", MetricGenerationDuration, len(families))
	}
	buckets := hist.GetMetric()[0].GetHistogram().GetBucket()
	if len(buckets) < len(GenerationDurationBuckets) || buckets[0].GetUpperBound() != GenerationDurationBuckets[0] {
		t.Errorf("duration histogram does not use the generation buckets: %v", buckets)
	}

	created := family(families, "fieldz_slots_generated")
	if created == nil || created.GetMetric()[0].GetCounter().GetValue() != 3 {
		t.Errorf("slots generated counter = %v", created)
	}

	info := family(families, "target_info")
	if info == nil {
		t.Fatal("no target_info family")
	}
	labels := map[string]string{}
	for _, l := range info.GetMetric()[0].GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	if labels["service_name"] != defaultServiceName {
		t.Errorf("service_name = %q", labels["service_name"])
	}
	if labels["fieldz_scheduling_timezone"] != "Africa/Algiers" {
		t.Errorf("timezone attribute = %q", labels["fieldz_scheduling_timezone"])
	}
}

func TestNilProviderShutdown(t *testing.T) {
	var p *Provider
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	var m *SchedulingMetrics
	m.RecordRun(context.Background(), 1, 1, 0, time.Millisecond, nil)
}
