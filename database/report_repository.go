package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"tahuri-backend/models"
)

type ReportRepository struct {
	db *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Summary counts the dashboard totals in one round trip. The attendance
// rate is left to the caller.
func (r *ReportRepository) Summary(ctx context.Context) (models.DashboardSummary, error) {
	const op = "database.ReportRepository.Summary"

	var s models.DashboardSummary
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM events WHERE status = 'active'),
			(SELECT COUNT(*) FROM registrations),
			(SELECT COUNT(*) FROM registrations WHERE status = 'active'),
			(SELECT COUNT(*) FROM registrations WHERE status = 'cancelled'),
			(SELECT COUNT(*) FROM check_ins)
	`).Scan(
		&s.TotalEvents,
		&s.ActiveEvents,
		&s.TotalRegistrations,
		&s.ActiveRegistrations,
		&s.CancelledRegistrations,
		&s.TotalCheckIns,
	)
	if err != nil {
		return models.DashboardSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// EventReports returns raw per-event counts ordered by start time.
func (r *ReportRepository) EventReports(ctx context.Context) ([]models.EventReport, error) {
	const op = "database.ReportRepository.EventReports"

	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.code, e.title, e.status, e.starts_at, e.capacity,
			COUNT(r.id) FILTER (WHERE r.status = 'active'),
			COUNT(c.id)
		FROM events e
		LEFT JOIN registrations r ON r.event_id = e.id
		LEFT JOIN check_ins c ON c.registration_id = r.id
		GROUP BY e.id
		ORDER BY e.starts_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	reports := []models.EventReport{}
	for rows.Next() {
		var rep models.EventReport
		err := rows.Scan(
			&rep.EventID,
			&rep.Code,
			&rep.Title,
			&rep.Status,
			&rep.StartsAt,
			&rep.Capacity,
			&rep.Registrations,
			&rep.CheckIns,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reports, nil
}

// RegistrationTrend counts registrations per calendar day in tz since the
// given instant. Days without registrations are absent.
func (r *ReportRepository) RegistrationTrend(ctx context.Context, since time.Time, tz string) ([]models.DailyCount, error) {
	const op = "database.ReportRepository.RegistrationTrend"

	rows, err := r.db.Query(ctx, `
		SELECT to_char(created_at AT TIME ZONE $2, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM registrations
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day ASC`, since, tz)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	counts := []models.DailyCount{}
	for rows.Next() {
		var dc models.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}

// CheckInTimeline buckets an event's check-ins by hour.
func (r *ReportRepository) CheckInTimeline(ctx context.Context, eventID uuid.UUID) ([]models.HourlyCount, error) {
	const op = "database.ReportRepository.CheckInTimeline"

	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('hour', c.checked_in_at) AS hour, COUNT(*)
		FROM check_ins c
		JOIN registrations r ON r.id = c.registration_id
		WHERE r.event_id = $1
		GROUP BY hour
		ORDER BY hour ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	counts := []models.HourlyCount{}
	for rows.Next() {
		var hc models.HourlyCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		counts = append(counts, hc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}
