package models

import (
	"time"

	"github.com/google/uuid"
)

// Event status constants
const (
	EventStatusActive   = "active"
	EventStatusInactive = "inactive"
)

// Event is a festival session (seminar) participants register for.
type Event struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Code        string     `json:"code" db:"code"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Location    string     `json:"location" db:"location"`
	StartsAt    time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	Capacity    int        `json:"capacity" db:"capacity"`
	Status      string     `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

func (e *Event) IsActive() bool {
	return e.Status == EventStatusActive
}

// EventDetail combines the stored event with its derived counts
type EventDetail struct {
	Event
	RegistrationCount int  `json:"registration_count"`
	CheckinCount      int  `json:"checkin_count"`
	AvailableSlots    int  `json:"available_slots"`
	IsFull            bool `json:"is_full"`
}

// NewEventDetail derives availability from the counts. Registrations are
// counted among active registrations only.
func NewEventDetail(e Event, registrations, checkins int) EventDetail {
	available := AvailableSlots(e.Capacity, registrations)
	return EventDetail{
		Event:             e,
		RegistrationCount: registrations,
		CheckinCount:      checkins,
		AvailableSlots:    available,
		IsFull:            available == 0,
	}
}

// AvailableSlots never goes below zero, even when registrations exceed capacity.
func AvailableSlots(capacity, registrations int) int {
	if registrations >= capacity {
		return 0
	}
	return capacity - registrations
}

// EventRequest is the admin payload for creating or replacing a seminar
type EventRequest struct {
	Code        string     `json:"code" binding:"required"`
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description"`
	Location    string     `json:"location" binding:"max=200"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    int        `json:"capacity" binding:"required,min=1,max=100000"`
	Status      string     `json:"status" binding:"omitempty,oneof=active inactive"`
}

// EventFilter holds the admin listing query
type EventFilter struct {
	Status string `form:"status"`
	Query  string `form:"q"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

type EventPage struct {
	Events []EventDetail `json:"events"`
	Total  int           `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}
