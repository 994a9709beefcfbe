package models

import "errors"

// Business-rule rejections. Handlers answer these with 409.
var (
	ErrRegistrationInactive  = errors.New("registration is not active")
	ErrAlreadyCheckedIn      = errors.New("already checked in")
	ErrNotCheckedIn          = errors.New("not checked in")
	ErrRegistrationCheckedIn = errors.New("cannot delete: registration has been checked in")
	ErrEventHasRegistrations = errors.New("cannot delete: has registrations")
	ErrEventInactive         = errors.New("event is not open for registration")
	ErrEventFull             = errors.New("event is fully booked")
)

// CanCheckIn reports whether reg may be checked in given its current
// check-in row, which is nil when there is none.
func CanCheckIn(reg Registration, existing *CheckIn) error {
	if !reg.IsActive() {
		return ErrRegistrationInactive
	}
	if existing != nil {
		return ErrAlreadyCheckedIn
	}
	return nil
}

func CanUndoCheckIn(existing *CheckIn) error {
	if existing == nil {
		return ErrNotCheckedIn
	}
	return nil
}

func CanDeleteRegistration(existing *CheckIn) error {
	if existing != nil {
		return ErrRegistrationCheckedIn
	}
	return nil
}

// CanDeleteEvent counts registrations of any status.
func CanDeleteEvent(registrations int) error {
	if registrations > 0 {
		return ErrEventHasRegistrations
	}
	return nil
}

// CanRegister checks the event side of a new registration; activeRegistrations
// excludes cancelled ones.
func CanRegister(event Event, activeRegistrations int) error {
	if !event.IsActive() {
		return ErrEventInactive
	}
	if AvailableSlots(event.Capacity, activeRegistrations) == 0 {
		return ErrEventFull
	}
	return nil
}
