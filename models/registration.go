package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration status constants
const (
	RegistrationStatusActive    = "active"
	RegistrationStatusCancelled = "cancelled"
)

// Registration is one participant's signup for one event
type Registration struct {
	ID           uuid.UUID `json:"id" db:"id"`
	EventID      uuid.UUID `json:"event_id" db:"event_id"`
	TicketNumber string    `json:"ticket_number" db:"ticket_number"`
	Name         string    `json:"name" db:"name"`
	NIK          string    `json:"nik" db:"nik"`
	Phone        string    `json:"phone" db:"phone"`
	Email        string    `json:"email" db:"email"`
	Institution  string    `json:"institution" db:"institution"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (r *Registration) IsActive() bool {
	return r.Status == RegistrationStatusActive
}

// RegistrationDetail is a registration joined with its event and check-in
type RegistrationDetail struct {
	Registration
	EventCode     string    `json:"event_code"`
	EventTitle    string    `json:"event_title"`
	EventLocation string    `json:"event_location"`
	EventStartsAt time.Time `json:"event_starts_at"`
	CheckIn       *CheckIn  `json:"check_in"`
}

func (d *RegistrationDetail) IsCheckedIn() bool {
	return d.CheckIn != nil
}

// RegisterRequest is the public registration form
type RegisterRequest struct {
	Name        string `json:"name" binding:"required,max=150"`
	NIK         string `json:"nik" binding:"required,nik"`
	Phone       string `json:"phone" binding:"required,idphone"`
	Email       string `json:"email" binding:"required,email,max=150"`
	Institution string `json:"institution" binding:"max=150"`
}

// UpdateRegistrationRequest replaces the editable fields of a registration
type UpdateRegistrationRequest struct {
	Name        string `json:"name" binding:"required,max=150"`
	Phone       string `json:"phone" binding:"required,idphone"`
	Email       string `json:"email" binding:"required,email,max=150"`
	Institution string `json:"institution" binding:"max=150"`
	Status      string `json:"status" binding:"required,oneof=active cancelled"`
}

// RegistrationQuery is the raw admin listing query string
type RegistrationQuery struct {
	EventID string `form:"event_id" binding:"omitempty,uuid"`
	Status  string `form:"status"`
	CheckIn string `form:"checkin"`
	Query   string `form:"q"`
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
}

// RegistrationFilter is a RegistrationQuery validated into typed options
type RegistrationFilter struct {
	EventID *uuid.UUID
	Status  RegistrationStatusFilter
	CheckIn CheckInState
	Query   string
	Page    Page
}

type RegistrationPage struct {
	Registrations []RegistrationDetail `json:"registrations"`
	Total         int                  `json:"total"`
	Page          int                  `json:"page"`
	Limit         int                  `json:"limit"`
}
