package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahuri-backend/database"
	"tahuri-backend/models"
	"tahuri-backend/utils"
)

func detail(status string) models.EventDetail {
	return models.NewEventDetail(models.Event{
		ID:       uuid.New(),
		Code:     "SEM-01",
		Title:    "Seminar " + gofakeit.Word(),
		StartsAt: time.Date(2026, 8, 17, 9, 0, 0, 0, time.UTC),
		Capacity: 100,
		Status:   status,
	}, 10, 2)
}

func TestGetPublicEvent(t *testing.T) {
	s := newTestServer(t)
	active := detail(models.EventStatusActive)

	s.events.find = func(ref string) (models.EventDetail, error) {
		switch ref {
		case "sem-01":
			return active, nil
		case "sem-02":
			return detail(models.EventStatusInactive), nil
		}
		return models.EventDetail{}, database.ErrEventNotFound
	}

	w := s.do(http.MethodGet, "/api/v1/events/sem-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got models.EventDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, active.ID, got.ID)
	assert.Equal(t, 90, got.AvailableSlots)

	w = s.do(http.MethodGet, "/api/v1/events/sem-02", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/events/sem-99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"event not found"}`, w.Body.String())
}

func TestGetPublicEvents(t *testing.T) {
	s := newTestServer(t)
	s.events.listPublic = func() ([]models.EventDetail, error) {
		return []models.EventDetail{detail(models.EventStatusActive)}, nil
	}

	w := s.do(http.MethodGet, "/api/v1/events", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available_slots":90`)
}

func TestCreateEventHandler(t *testing.T) {
	s := newTestServer(t)

	var got models.EventRequest
	s.events.create = func(req models.EventRequest) (models.Event, error) {
		got = req
		return models.Event{ID: uuid.New(), Code: req.Code, Title: req.Title}, nil
	}

	body := `{"code":"SEM-01","title":"Seminar Budaya","starts_at":"2026-08-17T09:00:00+07:00","capacity":120}`
	w := s.admin(http.MethodPost, "/admin/seminars", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 120, got.Capacity)

	w = s.admin(http.MethodPost, "/admin/seminars", `{"code":"SEM-01","title":"x","starts_at":"2026-08-17T09:00:00Z","capacity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"capacity"`)

	w = s.do(http.MethodPost, "/admin/seminars", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateEventConflicts(t *testing.T) {
	s := newTestServer(t)
	s.events.create = func(models.EventRequest) (models.Event, error) {
		return models.Event{}, database.ErrCodeExists
	}

	body := `{"code":"SEM-01","title":"Seminar Budaya","starts_at":"2026-08-17T09:00:00Z","capacity":120}`
	w := s.admin(http.MethodPost, "/admin/seminars", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"event code already exists"}`, w.Body.String())

	s.events.create = func(models.EventRequest) (models.Event, error) {
		return models.Event{}, utils.Collect(utils.ValidationError{Field: "code", Message: "invalid event code"})
	}
	w = s.admin(http.MethodPost, "/admin/seminars", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"invalid event code"`)
}

func TestDeleteEventHandler(t *testing.T) {
	s := newTestServer(t)
	withRegs := uuid.New()

	s.events.del = func(id uuid.UUID) error {
		if id == withRegs {
			return models.ErrEventHasRegistrations
		}
		return nil
	}

	w := s.admin(http.MethodDelete, "/admin/seminars/"+withRegs.String(), "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.admin(http.MethodDelete, "/admin/seminars/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetEventsPassesFilter(t *testing.T) {
	s := newTestServer(t)

	var got models.EventFilter
	s.events.list = func(f models.EventFilter) (models.EventPage, error) {
		got = f
		return models.EventPage{Page: 2, Limit: 10}, nil
	}

	w := s.admin(http.MethodGet, "/admin/seminars?status=inactive&q=budaya&page=2&limit=10", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EventFilter{Status: "inactive", Query: "budaya", Page: 2, Limit: 10}, got)
}
