package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/authgate"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	counters map[authgate.MetricID]uint64
	latency  []uint64
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authgate.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := authgate.MetricsSnapshot{
		Counters:   make(map[authgate.MetricID]uint64, len(f.counters)),
		Histograms: map[authgate.MetricID][]uint64{},
	}
	for k, v := range f.counters {
		out.Counters[k] = v
	}
	if f.latency != nil {
		out.Histograms[authgate.MetricValidateLatency] = append([]uint64(nil), f.latency...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newReaderMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func TestObserverReportsCountersAndBuckets(t *testing.T) {
	reader, provider := newReaderMeter()
	src := &fakeSource{
		counters: map[authgate.MetricID]uint64{authgate.MetricLoginSuccess: 3},
		latency:  []uint64{1, 1, 1, 1, 1, 1, 1, 1},
		dropped:  2,
	}

	obs, err := NewObserverFromSource(provider.Meter("authgate-test"), src)
	if err != nil {
		t.Fatalf("NewObserverFromSource: %v", err)
	}
	defer obs.Close()

	got := collect(t, reader)

	sum, ok := got["authgate_login_success_total"].Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 3 {
		t.Fatalf("unexpected login counter %+v", got["authgate_login_success_total"].Data)
	}

	dropped, ok := got["authgate_audit_dropped_total"].Data.(metricdata.Sum[int64])
	if !ok || dropped.DataPoints[0].Value != 2 {
		t.Fatalf("unexpected audit dropped %+v", got["authgate_audit_dropped_total"].Data)
	}

	buckets, ok := got["authgate_validate_latency_seconds_bucket"].Data.(metricdata.Gauge[int64])
	if !ok || len(buckets.DataPoints) != 8 {
		t.Fatalf("expected 8 bucket points, got %+v", got["authgate_validate_latency_seconds_bucket"].Data)
	}
	for _, dp := range buckets.DataPoints {
		le, _ := dp.Attributes.Value("le")
		if le.AsString() == "+Inf" && dp.Value != 8 {
			t.Fatalf("+Inf bucket = %d, want 8", dp.Value)
		}
	}

	count, ok := got["authgate_validate_latency_seconds_count"].Data.(metricdata.Gauge[int64])
	if !ok || count.DataPoints[0].Value != 8 {
		t.Fatalf("unexpected count %+v", got["authgate_validate_latency_seconds_count"].Data)
	}
}

func TestObserverSkipsAbsentCounters(t *testing.T) {
	reader, provider := newReaderMeter()
	obs, err := NewObserverFromSource(provider.Meter("authgate-test"), &fakeSource{})
	if err != nil {
		t.Fatalf("NewObserverFromSource: %v", err)
	}
	defer obs.Close()

	got := collect(t, reader)
	if m, ok := got["authgate_login_success_total"]; ok {
		if sum, _ := m.Data.(metricdata.Sum[int64]); len(sum.DataPoints) != 0 {
			t.Fatalf("expected no data points, got %+v", sum.DataPoints)
		}
	}
}

func TestObserverRejectsNilArguments(t *testing.T) {
	_, provider := newReaderMeter()
	if _, err := NewObserverFromSource(provider.Meter("authgate-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewObserverFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewObserver(provider.Meter("authgate-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}

func TestObserverConcurrentCollect(t *testing.T) {
	reader, provider := newReaderMeter()
	src := &fakeSource{counters: map[authgate.MetricID]uint64{authgate.MetricLoginSuccess: 1}}

	obs, err := NewObserverFromSource(provider.Meter("authgate-test"), src)
	if err != nil {
		t.Fatalf("NewObserverFromSource: %v", err)
	}
	defer obs.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.counters[authgate.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
