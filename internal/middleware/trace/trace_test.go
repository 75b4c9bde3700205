package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"billminder/internal/metrics"
)

func TestMiddleware_AssignsRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil, nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bills", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a uuid: %v", seen, err)
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	incoming := uuid.NewString()
	var seen string
	h := NewMiddleware(nil, nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromRequest(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != incoming {
		t.Errorf("request id = %q, want %q", seen, incoming)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "not-a-uuid<script>" {
		t.Error("malformed incoming request id was trusted")
	}
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bills/{id}", func(w http.ResponseWriter, r *http.Request) {})
	h := NewMiddleware(nil, nil, m).Middleware(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bills/7", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bills/8", nil))

	n, err := testutil.GatherAndCount(m.Registry(), "billminder_http_requests_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Errorf("expected a single route series, got %d", n)
	}
}

func TestRequestID_Empty(t *testing.T) {
	if got := RequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Errorf("RequestID() = %q, want empty", got)
	}
}

func TestMiddleware_RecordRouteThroughWrappedRequest(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bills/{id}", func(w http.ResponseWriter, r *http.Request) {
		RecordRoute(r)
	})
	// A middleware between trace and the mux that swaps the request.
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(r.Context()))
	})
	h := NewMiddleware(nil, nil, m).Middleware(inner)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bills/7", nil))

	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP billminder_http_requests_total HTTP requests by method, route and status code.
# TYPE billminder_http_requests_total counter
billminder_http_requests_total{method="GET",route="GET /bills/{id}",status="200"} 1
`), "billminder_http_requests_total")
	if err != nil {
		t.Error(err)
	}
}
