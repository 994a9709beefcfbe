package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DashboardSummary is the headline numbers of the admin dashboard
type DashboardSummary struct {
	TotalEvents            int       `json:"total_events"`
	ActiveEvents           int       `json:"active_events"`
	TotalRegistrations     int       `json:"total_registrations"`
	ActiveRegistrations    int       `json:"active_registrations"`
	CancelledRegistrations int       `json:"cancelled_registrations"`
	TotalCheckIns          int       `json:"total_checkins"`
	AttendanceRate         float64   `json:"attendance_rate"`
	GeneratedAt            time.Time `json:"generated_at"`
}

// EventReport represents attendance statistics for one event
type EventReport struct {
	EventID        uuid.UUID `json:"event_id"`
	Code           string    `json:"code"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	StartsAt       time.Time `json:"starts_at"`
	Capacity       int       `json:"capacity"`
	Registrations  int       `json:"registrations"`
	CheckIns       int       `json:"checkins"`
	NoShows        int       `json:"no_shows"`
	AvailableSlots int       `json:"available_slots"`
	AttendanceRate float64   `json:"attendance_rate"`
}

// Finalize fills the fields derived from the raw counts.
func (r *EventReport) Finalize() {
	r.AvailableSlots = AvailableSlots(r.Capacity, r.Registrations)
	r.NoShows = r.Registrations - r.CheckIns
	if r.NoShows < 0 {
		r.NoShows = 0
	}
	r.AttendanceRate = AttendanceRate(r.CheckIns, r.Registrations)
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type HourlyCount struct {
	Hour  time.Time `json:"hour"`
	Count int       `json:"count"`
}

// AttendanceRate is a percentage rounded to one decimal; zero when nobody registered.
func AttendanceRate(checkins, registrations int) float64 {
	if registrations <= 0 {
		return 0
	}
	return math.Round(float64(checkins)/float64(registrations)*1000) / 10
}
