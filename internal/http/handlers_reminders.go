package http

import (
	"fmt"
	"net/http"

	"billminder/internal/core"
	"billminder/internal/log"
	"billminder/internal/reminders"
)

type reminderListData struct {
	Today  core.Date
	Events []reminders.Event
}

type upcomingData struct {
	Days    int
	Summary reminders.Summary
}

type logEntry struct {
	core.ReminderRecord
	BillName string
}

type reminderLogData struct {
	UnsentOnly bool
	Entries    []logEntry
}

func (s *Server) handleRemindersPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	events, err := s.reminders.All(ctx)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	stats := reminders.Summarize(events)
	s.render(w, r, "reminders_page", struct {
		reminderListData
		Stats reminders.Stats
	}{reminderListData{Today: s.today(), Events: events}, stats})
}

// handleReminderList renders every reminder ranked by priority.
func (s *Server) handleReminderList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	events, err := s.reminders.All(ctx)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	s.render(w, r, "reminder_list", reminderListData{Today: s.today(), Events: events})
}

func (s *Server) handleReminderStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	stats, err := s.reminders.Stats(ctx)
	if err != nil {
		s.writeServiceError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, "reminder_stats", stats)
}

// handleUpcomingSummary renders the look-ahead summary; ?days overrides the
// configured window.
func (s *Server) handleUpcomingSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	days := ParseIntQuery(r.URL.Query(), "days", s.reminders.UpcomingDays())
	summary, err := s.reminders.Upcoming(ctx, days)
	if err != nil {
		s.writeServiceError(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, "upcoming_summary", upcomingData{Days: days, Summary: summary})
}

// handleReminderLog renders the persisted reminder records with the name
// of their bill.
func (s *Server) handleReminderLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	unsentOnly := ParseBoolQuery(r.URL.Query(), "unsent")
	records, err := s.reminders.Log(ctx, unsentOnly)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	bills, err := s.bills.List(ctx, true)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	names := make(map[int64]string, len(bills))
	for _, b := range bills {
		names[b.ID] = b.Name
	}

	d := reminderLogData{UnsentOnly: unsentOnly, Entries: make([]logEntry, len(records))}
	for i, rec := range records {
		d.Entries[i] = logEntry{ReminderRecord: rec, BillName: names[rec.BillID]}
	}
	s.render(w, r, "reminder_log", d)
}

// handleRecordReminders runs one record pass on demand, the same pass the
// reminder worker runs on its interval.
func (s *Server) handleRecordReminders(w http.ResponseWriter, r *http.Request) {
	n, err := s.reminders.Record(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpRecord, err)
		return
	}
	msg := fmt.Sprintf("%d new reminder(s) recorded", n)
	NewHTMXResponse().
		TriggerRemindersChanged().
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + msg + `</div>`).
		Write(w)
}

func (s *Server) handleMarkReminderSent(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.reminders.MarkSent(r.Context(), id); err != nil {
		s.writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	NewHTMXResponse().
		TriggerRemindersChanged().
		BodyHTML(`<span class="badge badge--sent">sent</span>`).
		Write(w)
}
