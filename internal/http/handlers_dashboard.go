package http

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"billminder/internal/analytics"
	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/reminders"
)

type dashboardPart uint8

const (
	partStats dashboardPart = 1 << iota
	partTop
	partUpcoming
	partAnalytics
	partPayments

	partQuickStats = partStats | partUpcoming | partAnalytics
	partAll        = partStats | partTop | partUpcoming | partAnalytics | partPayments
)

type dashboardData struct {
	Today        core.Date
	UpcomingDays int
	Stats        reminders.Stats
	Top          []reminders.Event
	Upcoming     reminders.Summary
	Analytics    analytics.Report
	Payments     analytics.PaymentReport
}

// loadDashboard fetches the requested panels concurrently. Every goroutine
// writes its own field.
func (s *Server) loadDashboard(ctx context.Context, parts dashboardPart) (dashboardData, error) {
	d := dashboardData{Today: s.today(), UpcomingDays: s.reminders.UpcomingDays()}
	g, ctx := errgroup.WithContext(ctx)

	if parts&partStats != 0 {
		g.Go(func() (err error) {
			d.Stats, err = s.reminders.Stats(ctx)
			return err
		})
	}
	if parts&partTop != 0 {
		g.Go(func() (err error) {
			d.Top, err = s.reminders.Top(ctx, s.reminders.Limit())
			return err
		})
	}
	if parts&partUpcoming != 0 {
		g.Go(func() (err error) {
			d.Upcoming, err = s.reminders.Upcoming(ctx, d.UpcomingDays)
			return err
		})
	}
	if parts&partAnalytics != 0 {
		g.Go(func() (err error) {
			d.Analytics, err = s.reminders.Analytics(ctx)
			return err
		})
	}
	if parts&partPayments != 0 {
		g.Go(func() (err error) {
			d.Payments, err = s.payments.Analytics(ctx)
			return err
		})
	}
	return d, g.Wait()
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, parts dashboardPart, name string) {
	ctx, cancel := requestContext(r)
	defer cancel()

	d, err := s.loadDashboard(ctx, parts)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Dashboard load failed",
			log.FieldError, err,
			"template", name)
		InternalServerError("Could not load the dashboard").Write(w)
		return
	}
	s.render(w, r, name, d)
}

// handleDashboard renders the main dashboard page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, partAll, "dashboard_page")
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, partQuickStats, "quick_stats")
}

func (s *Server) handleDashboardTop(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, partTop, "top_reminders")
}

func (s *Server) handleDashboardUpcoming(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, partUpcoming, "upcoming_timeline")
}

func (s *Server) handleDashboardAnalytics(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, partAnalytics, "analytics_panel")
}

func (s *Server) handleDashboardPayments(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, partPayments, "recent_payments")
}
