package models

import (
	"time"

	"github.com/google/uuid"
)

// Domain message types published to the broker
const (
	MessageRegistrationCreated = "registration.created"
	MessageCheckedIn           = "checkin.created"
	MessageCheckInUndone       = "checkin.undone"
)

type DomainMessage struct {
	Type           string     `json:"type"`
	RegistrationID uuid.UUID  `json:"registration_id"`
	EventID        uuid.UUID  `json:"event_id"`
	TicketNumber   string     `json:"ticket_number"`
	AdminID        *uuid.UUID `json:"admin_id,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}
