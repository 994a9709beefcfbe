package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahuri-backend/models"
)

func TestEncode(t *testing.T) {
	adminID := uuid.New()
	msg := models.DomainMessage{
		Type:           models.MessageCheckedIn,
		RegistrationID: uuid.New(),
		EventID:        uuid.New(),
		TicketNumber:   "THR-SEM01-ABC234",
		AdminID:        &adminID,
		OccurredAt:     time.Date(2026, 8, 17, 9, 30, 0, 0, time.UTC),
	}

	m, err := encode(msg)
	require.NoError(t, err)

	assert.Equal(t, msg.RegistrationID.String(), string(m.Key))
	assert.Equal(t, msg.OccurredAt, m.Time)
	require.Len(t, m.Headers, 1)
	assert.Equal(t, "checkin.created", string(m.Headers[0].Value))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(m.Value, &decoded))
	assert.Equal(t, "checkin.created", decoded["type"])
	assert.Equal(t, adminID.String(), decoded["admin_id"])
	assert.Equal(t, "THR-SEM01-ABC234", decoded["ticket_number"])
}

func TestEncodeOmitsMissingAdmin(t *testing.T) {
	m, err := encode(models.DomainMessage{Type: models.MessageRegistrationCreated, RegistrationID: uuid.New()})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(m.Value, &decoded))
	assert.NotContains(t, decoded, "admin_id")
}

func TestNoop(t *testing.T) {
	var p Noop
	assert.NoError(t, p.Publish(context.Background(), models.DomainMessage{}))
	assert.NoError(t, p.Close())
}
