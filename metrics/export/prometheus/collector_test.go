package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/authgate"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type fakeSource struct {
	snapshot authgate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() authgate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func gather(t *testing.T, src fakeSource) map[string]*dto.MetricFamily {
	t.Helper()
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollectorFromSource(src)); err != nil {
		t.Fatalf("register: %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestCollectorDisabledMetricsOnlyReportsAuditDrops(t *testing.T) {
	families := gather(t, fakeSource{snapshot: authgate.MetricsSnapshot{
		Counters:   map[authgate.MetricID]uint64{},
		Histograms: map[authgate.MetricID][]uint64{},
	}})

	if len(families) != 1 {
		t.Fatalf("expected only the audit counter, got %d families", len(families))
	}
	if _, ok := families["authgate_audit_dropped_total"]; !ok {
		t.Fatal("missing audit dropped counter")
	}
}

func TestCollectorCountersAndHistogram(t *testing.T) {
	families := gather(t, fakeSource{
		snapshot: authgate.MetricsSnapshot{
			Counters: map[authgate.MetricID]uint64{
				authgate.MetricLoginSuccess:     7,
				authgate.MetricTokenBlacklisted: 2,
			},
			Histograms: map[authgate.MetricID][]uint64{
				authgate.MetricValidateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 3,
	})

	if got := families["authgate_login_success_total"].GetMetric()[0].GetCounter().GetValue(); got != 7 {
		t.Fatalf("login success = %v", got)
	}
	if got := families["authgate_token_blacklisted_total"].GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("blacklisted = %v", got)
	}
	if got := families["authgate_audit_dropped_total"].GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Fatalf("audit dropped = %v", got)
	}

	h := families["authgate_validate_latency_seconds"].GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 36 {
		t.Fatalf("sample count = %d", h.GetSampleCount())
	}
	first := h.GetBucket()[0]
	if first.GetUpperBound() != 0.005 || first.GetCumulativeCount() != 1 {
		t.Fatalf("unexpected first bucket %v", first)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	h, err := Handler(NewCollectorFromSource(fakeSource{snapshot: authgate.MetricsSnapshot{
		Counters: map[authgate.MetricID]uint64{authgate.MetricLogout: 1},
	}}))
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "authgate_logout_total 1") {
		t.Fatalf("missing logout counter in:\n%s", rec.Body.String())
	}
}
