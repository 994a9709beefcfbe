package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tahuri-backend/cache"
	"tahuri-backend/logger/sl"
	"tahuri-backend/models"
)

const (
	defaultTrendDays = 14
	maxTrendDays     = 90
)

type ReportStore interface {
	Summary(ctx context.Context) (models.DashboardSummary, error)
	EventReports(ctx context.Context) ([]models.EventReport, error)
	RegistrationTrend(ctx context.Context, since time.Time, tz string) ([]models.DailyCount, error)
	CheckInTimeline(ctx context.Context, eventID uuid.UUID) ([]models.HourlyCount, error)
}

type SummaryCache interface {
	StatsInvalidator
	Summary(ctx context.Context) (models.DashboardSummary, error)
	SaveSummary(ctx context.Context, summary models.DashboardSummary) error
}

type RegistrationLister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationDetail, error)
}

type ReportService struct {
	log           *slog.Logger
	reports       ReportStore
	cache         SummaryCache
	events        EventGetter
	registrations RegistrationLister
	loc           *time.Location
	now           func() time.Time
}

func NewReportService(
	log *slog.Logger,
	reports ReportStore,
	summaryCache SummaryCache,
	events EventGetter,
	registrations RegistrationLister,
	loc *time.Location,
) *ReportService {
	return &ReportService{
		log:           log,
		reports:       reports,
		cache:         summaryCache,
		events:        events,
		registrations: registrations,
		loc:           loc,
		now:           time.Now,
	}
}

// Summary returns the dashboard totals, from the cache when it holds a copy.
func (s *ReportService) Summary(ctx context.Context) (summary models.DashboardSummary, err error) {
	const op = "services.ReportService.Summary"
	log := s.log.With(slog.String("op", op))

	ctx, span := tracer.Start(ctx, "ReportService.Summary")
	defer func() { endSpan(span, err) }()

	cached, err := s.cache.Summary(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warn("failed to read cached summary", sl.Err(err))
	}

	summary, err = s.reports.Summary(ctx)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	summary.AttendanceRate = models.AttendanceRate(summary.TotalCheckIns, summary.ActiveRegistrations)
	summary.GeneratedAt = s.now().UTC()

	if err := s.cache.SaveSummary(ctx, summary); err != nil {
		log.Warn("failed to cache summary", sl.Err(err))
	}

	return summary, nil
}

func (s *ReportService) EventReports(ctx context.Context) ([]models.EventReport, error) {
	const op = "services.ReportService.EventReports"

	reports, err := s.reports.EventReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range reports {
		reports[i].Finalize()
	}
	return reports, nil
}

// Trend returns one count per day for the last days days, today included,
// with zero for days without registrations.
func (s *ReportService) Trend(ctx context.Context, days int) ([]models.DailyCount, error) {
	const op = "services.ReportService.Trend"

	switch {
	case days <= 0:
		days = defaultTrendDays
	case days > maxTrendDays:
		days = maxTrendDays
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	since := today.AddDate(0, 0, -(days - 1))

	counts, err := s.reports.RegistrationTrend(ctx, since, s.loc.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Date] = c.Count
	}

	trend := make([]models.DailyCount, 0, days)
	for d := since; !d.After(today); d = d.AddDate(0, 0, 1) {
		date := d.Format(time.DateOnly)
		trend = append(trend, models.DailyCount{Date: date, Count: byDay[date]})
	}
	return trend, nil
}

func (s *ReportService) Timeline(ctx context.Context, eventID uuid.UUID) ([]models.HourlyCount, error) {
	const op = "services.ReportService.Timeline"

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	timeline, err := s.reports.CheckInTimeline(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range timeline {
		timeline[i].Hour = timeline[i].Hour.In(s.loc)
	}
	return timeline, nil
}

var csvHeader = []string{
	"ticket_number", "name", "nik", "phone", "email", "institution", "status", "registered_at", "checked_in_at",
}

// ExportCSV renders an event's registrations as CSV and suggests a file name.
func (s *ReportService) ExportCSV(ctx context.Context, eventID uuid.UUID) (string, []byte, error) {
	const op = "services.ReportService.ExportCSV"

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	regs, err := s.registrations.ListByEvent(ctx, eventID)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range regs {
		checkedIn := ""
		if r.CheckIn != nil {
			checkedIn = r.CheckIn.CheckedInAt.In(s.loc).Format(time.RFC3339)
		}
		record := []string{
			r.TicketNumber,
			csvSafe(r.Name),
			r.NIK,
			r.Phone,
			csvSafe(r.Email),
			csvSafe(r.Institution),
			r.Status,
			r.CreatedAt.In(s.loc).Format(time.RFC3339),
			checkedIn,
		}
		if err := w.Write(record); err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	filename := fmt.Sprintf("registrations-%s-%s.csv", strings.ToLower(event.Code), s.now().In(s.loc).Format("20060102"))
	return filename, buf.Bytes(), nil
}

// csvSafe stops spreadsheet apps from evaluating participant input as a formula.
func csvSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@", rune(v[0])) {
		return "'" + v
	}
	return v
}
