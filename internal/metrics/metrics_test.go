package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// value reads the current value of a counter or gauge series from the
// registry.
func value(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if matchLabels(metric, labels) {
				if c := metric.GetCounter(); c != nil {
					return c.GetValue()
				}
				return metric.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(metric *dto.Metric, want map[string]string) bool {
	got := make(map[string]string)
	for _, lp := range metric.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestRecordFetch(t *testing.T) {
	m := New()
	m.RecordFetch("kalshi", nil, 200*time.Millisecond)
	m.RecordFetch("kalshi", errors.New("boom"), time.Second)
	m.RecordFetch("kalshi", errors.New("boom"), time.Second)

	if got := value(t, m, "marketlens_upstream_fetches_total", map[string]string{"source": "kalshi", "result": "ok"}); got != 1 {
		t.Errorf("ok fetches = %v, want 1", got)
	}
	if got := value(t, m, "marketlens_upstream_fetches_total", map[string]string{"source": "kalshi", "result": "error"}); got != 2 {
		t.Errorf("error fetches = %v, want 2", got)
	}
}

func TestRecordRefresh(t *testing.T) {
	m := New()
	m.RecordRefresh(3*time.Second, true, 12)
	m.RecordRefresh(time.Second, false, 14)

	if got := value(t, m, "marketlens_election_refresh_partial_total", nil); got != 1 {
		t.Errorf("partial refreshes = %v, want 1", got)
	}
	if got := value(t, m, "marketlens_election_matched_races", nil); got != 14 {
		t.Errorf("matched races = %v, want the latest value 14", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordFetch("polymarket", nil, time.Second)
	m.RecordCacheLookup("hit")
	m.RecordFallback("served")
	m.RecordRefresh(time.Second, false, 1)
	m.RecordArbitrage(3)
}

func TestHandlerServesPrivateRegistry(t *testing.T) {
	m := New()
	m.RecordArbitrage(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "marketlens_arbitrage_pairs 4") {
		t.Errorf("exposition missing arbitrage gauge:\n%s", body)
	}
}
