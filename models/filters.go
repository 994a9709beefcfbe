package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFilter = errors.New("invalid filter")

// CheckInState filters registrations by whether they have a check-in row.
type CheckInState string

const (
	CheckInStateAll          CheckInState = "all"
	CheckInStateCheckedIn    CheckInState = "checked_in"
	CheckInStateNotCheckedIn CheckInState = "not_checked_in"
)

// ParseCheckInState maps the raw query value to a state. Empty means all.
func ParseCheckInState(raw string) (CheckInState, error) {
	switch CheckInState(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CheckInStateAll:
		return CheckInStateAll, nil
	case CheckInStateCheckedIn:
		return CheckInStateCheckedIn, nil
	case CheckInStateNotCheckedIn:
		return CheckInStateNotCheckedIn, nil
	}
	return "", fmt.Errorf("%w: unknown check-in state %q", ErrInvalidFilter, raw)
}

// RegistrationStatusFilter is empty when every status matches.
type RegistrationStatusFilter string

func ParseRegistrationStatus(raw string) (RegistrationStatusFilter, error) {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "", "all":
		return "", nil
	case RegistrationStatusActive, RegistrationStatusCancelled:
		return RegistrationStatusFilter(v), nil
	}
	return "", fmt.Errorf("%w: unknown registration status %q", ErrInvalidFilter, raw)
}

func ParseEventStatus(raw string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(raw)); v {
	case "", "all":
		return "", nil
	case EventStatusActive, EventStatusInactive:
		return v, nil
	}
	return "", fmt.Errorf("%w: unknown event status %q", ErrInvalidFilter, raw)
}

// Page is a validated page/limit pair
type Page struct {
	Number int
	Limit  int
}

// NewPage clamps page to >= 1 and limit to 1..max, using def when limit is unset.
func NewPage(page, limit, def, max int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return Page{Number: page, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}
