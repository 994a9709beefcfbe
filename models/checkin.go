package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckIn records that a registered participant physically attended.
// A registration has at most one.
type CheckIn struct {
	ID              uuid.UUID `json:"id" db:"id"`
	RegistrationID  uuid.UUID `json:"registration_id" db:"registration_id"`
	CheckedInAt     time.Time `json:"checked_in_at" db:"checked_in_at"`
	CheckedInBy     uuid.UUID `json:"checked_in_by" db:"checked_in_by"`
	CheckedInByName string    `json:"checked_in_by_name,omitempty"`
}

type CheckInRequest struct {
	RegistrationID string `json:"registration_id" binding:"required,uuid"`
}

// CheckInSearchQuery is the admin search box input
type CheckInSearchQuery struct {
	Query   string `form:"q"`
	EventID string `form:"event_id" binding:"omitempty,uuid"`
	State   string `form:"state"`
	Limit   int    `form:"limit"`
}

// CheckInSearch is a CheckInSearchQuery validated into typed options
type CheckInSearch struct {
	Query   string
	EventID *uuid.UUID
	State   CheckInState
	Limit   int
}

type CheckInSearchResult struct {
	RegistrationID uuid.UUID  `json:"registration_id"`
	TicketNumber   string     `json:"ticket_number"`
	Name           string     `json:"name"`
	NIK            string     `json:"nik"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`
	Status         string     `json:"status"`
	EventID        uuid.UUID  `json:"event_id"`
	EventCode      string     `json:"event_code"`
	EventTitle     string     `json:"event_title"`
	CheckedInAt    *time.Time `json:"checked_in_at"`
}

// EventCheckIn is one row of an event's check-in list
type EventCheckIn struct {
	CheckIn
	TicketNumber string `json:"ticket_number"`
	Name         string `json:"name"`
	NIK          string `json:"nik"`
}

// CheckInResult is returned by a successful check-in
type CheckInResult struct {
	CheckIn      CheckIn      `json:"check_in"`
	Registration Registration `json:"registration"`
}
