package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.ObserveStore("ListBills", nil, time.Millisecond)
	m.ReminderRecorded("final")
	m.SyncHandled("sync", nil)
	m.CacheLookup("payments", true)
	if m.Registry() != nil {
		t.Fatal("Registry() on nil metrics should be nil")
	}
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveHTTP("GET", "/bills", 200, 5*time.Millisecond)
	m.ObserveHTTP("GET", "/bills", 200, 5*time.Millisecond)
	m.ReminderRecorded("urgent")
	m.SyncHandled("sync", errors.New("boom"))
	m.CacheLookup("payments", false)

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/bills", "200")); got != 2 {
		t.Errorf("http requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.reminders.WithLabelValues("urgent")); got != 1 {
		t.Errorf("reminders = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.syncMessages.WithLabelValues("sync", "error")); got != 1 {
		t.Errorf("sync errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("payments", "miss")); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveStore("GetBill", nil, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "billminder_store_operation_duration_seconds") {
		t.Error("store histogram missing from /metrics output")
	}
}
