package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCheckInState(t *testing.T) {
	tests := []struct {
		raw     string
		want    CheckInState
		wantErr bool
	}{
		{"", CheckInStateAll, false},
		{"all", CheckInStateAll, false},
		{"checked_in", CheckInStateCheckedIn, false},
		{" NOT_CHECKED_IN ", CheckInStateNotCheckedIn, false},
		{"maybe", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCheckInState(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRegistrationStatus(t *testing.T) {
	got, err := ParseRegistrationStatus("Cancelled")
	require.NoError(t, err)
	assert.Equal(t, RegistrationStatusFilter(RegistrationStatusCancelled), got)

	got, err = ParseRegistrationStatus("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseRegistrationStatus("deleted")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestParseEventStatus(t *testing.T) {
	got, err := ParseEventStatus("active")
	require.NoError(t, err)
	assert.Equal(t, EventStatusActive, got)

	_, err = ParseEventStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestNewPage(t *testing.T) {
	p := NewPage(0, 0, 20, 100)
	assert.Equal(t, Page{Number: 1, Limit: 20}, p)
	assert.Equal(t, 0, p.Offset())

	p = NewPage(3, 500, 20, 100)
	assert.Equal(t, Page{Number: 3, Limit: 100}, p)
	assert.Equal(t, 200, p.Offset())
}
