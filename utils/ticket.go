package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// no 0/O or 1/I, tickets get read out loud at the gate
const ticketAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const TicketPrefix = "THR"

// NewTicketNumber generates THR-<CODE>-XXXXXX.
func NewTicketNumber(eventCode string) (string, error) {
	randomBytes := make([]byte, 6)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	suffix := make([]byte, len(randomBytes))
	for i, b := range randomBytes {
		suffix[i] = ticketAlphabet[int(b)%len(ticketAlphabet)]
	}

	return fmt.Sprintf("%s-%s-%s", TicketPrefix, NormalizeEventCode(eventCode), suffix), nil
}

func NormalizeTicketNumber(ticket string) string {
	return strings.ToUpper(strings.TrimSpace(ticket))
}
