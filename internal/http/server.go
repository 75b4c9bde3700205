// Package http serves the billminder web UI (htmx partials rendered from
// embedded templates) and its JSON API.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"billminder/internal/cache"
	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/metrics"
	"billminder/internal/middleware/ratelimit"
	"billminder/internal/middleware/security"
	"billminder/internal/middleware/trace"
	"billminder/internal/services"
	appweb "billminder/web"
)

const (
	requestTimeout     = 7 * time.Second
	cacheSweepInterval = 10 * time.Minute
	staticMaxAge       = 3600
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Bills     *services.BillService
	Payments  *services.PaymentService
	Reminders *services.ReminderService
	Store     Pinger
	Metrics   *metrics.Metrics
	Logger    *log.Logger
	// Clock supplies today's date for form defaults. Defaults to core.Today.
	Clock services.Clock
}

type Server struct {
	http.Server
	templates *template.Template

	bills     *services.BillService
	payments  *services.PaymentService
	reminders *services.ReminderService
	store     Pinger
	metrics   *metrics.Metrics
	today     services.Clock

	limiter  *ratelimit.Limiter
	detector *security.Detector
	caches   *cache.Manager
	logger   *log.Logger
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	today := deps.Clock
	if today == nil {
		today = core.Today
	}

	s := &Server{
		bills:     deps.Bills,
		payments:  deps.Payments,
		reminders: deps.Reminders,
		store:     deps.Store,
		metrics:   deps.Metrics,
		today:     today,
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig(), logger),
		detector:  security.NewDetector(logger),
		caches:    cache.NewManager(logger),
		logger:    logger,
		started:   time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	if s.payments != nil {
		s.caches.Register(s.payments.Cache())
	}
	s.caches.Start(cacheSweepInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ClientIP)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.detector.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = trace.NewMiddleware(s.detector.ClientIP, logger, s.metrics).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		s.handle(mux, "GET /static/", security.StaticAssets(staticMaxAge)(static).ServeHTTP)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	s.handle(mux, "GET /healthz", s.handleHealth)
	s.handle(mux, "GET /readyz", s.handleReady)
	if s.metrics != nil {
		s.handle(mux, "GET /metrics", s.metrics.Handler().ServeHTTP)
	}

	// Dashboard
	s.handle(mux, "GET /{$}", s.handleDashboard)
	s.handle(mux, "GET /ui/dashboard/stats", s.handleDashboardStats)
	s.handle(mux, "GET /ui/dashboard/top", s.handleDashboardTop)
	s.handle(mux, "GET /ui/dashboard/upcoming", s.handleDashboardUpcoming)
	s.handle(mux, "GET /ui/dashboard/analytics", s.handleDashboardAnalytics)
	s.handle(mux, "GET /ui/dashboard/payments", s.handleDashboardPayments)

	// Bills
	s.handle(mux, "GET /bills", s.handleBillsPage)
	s.handle(mux, "GET /ui/bills", s.handleBillList)
	s.handle(mux, "GET /ui/bills/new", s.handleBillForm)
	s.handle(mux, "GET /ui/bills/{id}/edit", s.handleBillForm)
	s.handle(mux, "GET /ui/bills/{id}/report", s.handleBillReport)
	s.handle(mux, "POST /bills", s.handleCreateBill)
	s.handle(mux, "PUT /bills/{id}", s.handleUpdateBill)
	s.handle(mux, "POST /bills/{id}/paid", s.handleMarkPaid)
	s.handle(mux, "DELETE /bills/{id}", s.handleDeleteBill)

	// Reminders
	s.handle(mux, "GET /reminders", s.handleRemindersPage)
	s.handle(mux, "GET /ui/reminders", s.handleReminderList)
	s.handle(mux, "GET /ui/reminders/stats", s.handleReminderStats)
	s.handle(mux, "GET /ui/reminders/upcoming", s.handleUpcomingSummary)
	s.handle(mux, "GET /ui/reminders/log", s.handleReminderLog)
	s.handle(mux, "POST /reminders/record", s.handleRecordReminders)
	s.handle(mux, "POST /reminders/{id}/sent", s.handleMarkReminderSent)

	// Payments
	s.handle(mux, "GET /payments", s.handlePaymentsPage)
	s.handle(mux, "GET /ui/payments", s.handlePaymentList)
	s.handle(mux, "GET /ui/payments/form", s.handlePaymentForm)
	s.handle(mux, "GET /ui/payments/analytics", s.handlePaymentAnalytics)
	s.handle(mux, "POST /payments", s.handleRecordPayment)
	s.handle(mux, "DELETE /payments/{id}", s.handleDeletePayment)

	// JSON API
	s.handle(mux, "GET /api/bills", s.handleAPIBills)
	s.handle(mux, "GET /api/bills/{id}/score", s.handleAPIScore)
	s.handle(mux, "GET /api/reminders", s.handleAPIReminders)
	s.handle(mux, "GET /api/reminders/top", s.handleAPITopReminders)
	s.handle(mux, "GET /api/reminders/stats", s.handleAPIReminderStats)
	s.handle(mux, "GET /api/upcoming", s.handleAPIUpcoming)
	s.handle(mux, "GET /api/analytics", s.handleAPIAnalytics)
	s.handle(mux, "GET /api/payments/analytics", s.handleAPIPaymentAnalytics)
}

// handle registers h under pattern and records the matched pattern for
// the request metrics.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		trace.RecordRoute(r)
		h(w, r)
	})
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		if err := s.Server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr = err
		}
	})
	return shutdownErr
}

// requestContext bounds the work of one handler.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}
