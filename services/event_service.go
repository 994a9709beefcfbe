package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tahuri-backend/models"
	"tahuri-backend/utils"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
	maxCapacity       = 100000
)

type EventStore interface {
	EventGetter
	Create(ctx context.Context, e models.Event) (models.Event, error)
	Update(ctx context.Context, e models.Event) (models.Event, error)
	List(ctx context.Context, status, q string, page models.Page) ([]models.EventDetail, int, error)
	ListActive(ctx context.Context) ([]models.EventDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type EventService struct {
	log    *slog.Logger
	events EventStore
	stats  StatsInvalidator
	now    func() time.Time
}

func NewEventService(log *slog.Logger, events EventStore, stats StatsInvalidator) *EventService {
	return &EventService{
		log:    log,
		events: events,
		stats:  stats,
		now:    time.Now,
	}
}

// buildEvent validates req and normalizes it into e.
func buildEvent(e *models.Event, req models.EventRequest) error {
	code := utils.NormalizeEventCode(req.Code)
	title := strings.TrimSpace(req.Title)

	var endsErr, capacityErr, startsErr error
	if req.StartsAt.IsZero() {
		startsErr = utils.ValidationError{Field: "starts_at", Message: "starts_at is required"}
	}
	if req.EndsAt != nil && req.EndsAt.Before(req.StartsAt) {
		endsErr = utils.ValidationError{Field: "ends_at", Message: "ends_at must not be before starts_at"}
	}
	if req.Capacity < 1 || req.Capacity > maxCapacity {
		capacityErr = utils.ValidationError{Field: "capacity", Message: fmt.Sprintf("capacity must be between 1 and %d", maxCapacity)}
	}

	status := req.Status
	var statusErr error
	switch status {
	case "":
		status = models.EventStatusActive
	case models.EventStatusActive, models.EventStatusInactive:
	default:
		statusErr = utils.ValidationError{Field: "status", Message: "status must be active or inactive"}
	}

	if err := utils.Collect(
		utils.ValidateEventCode(code),
		utils.ValidateRequired("title", title),
		startsErr,
		endsErr,
		capacityErr,
		statusErr,
	); err != nil {
		return err
	}

	e.Code = code
	e.Title = title
	e.Description = strings.TrimSpace(req.Description)
	e.Location = strings.TrimSpace(req.Location)
	e.StartsAt = req.StartsAt
	e.EndsAt = req.EndsAt
	e.Capacity = req.Capacity
	e.Status = status
	return nil
}

func (s *EventService) Create(ctx context.Context, req models.EventRequest) (models.Event, error) {
	const op = "services.EventService.Create"
	log := s.log.With(slog.String("op", op))

	now := s.now()
	e := models.Event{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	if err := buildEvent(&e, req); err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.events.Create(ctx, e)
	if err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("event created", slog.String("event_id", created.ID.String()), slog.String("code", created.Code))
	invalidateStats(ctx, log, s.stats)

	return created, nil
}

// Update replaces an event. Lowering capacity below the current number of
// registrations is allowed; available slots then report zero.
func (s *EventService) Update(ctx context.Context, id uuid.UUID, req models.EventRequest) (models.Event, error) {
	const op = "services.EventService.Update"
	log := s.log.With(slog.String("op", op), slog.String("event_id", id.String()))

	e := models.Event{ID: id, UpdatedAt: s.now()}
	if err := buildEvent(&e, req); err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.events.Update(ctx, e)
	if err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("event updated")
	invalidateStats(ctx, log, s.stats)

	return updated, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (models.EventDetail, error) {
	const op = "services.EventService.Get"

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return models.EventDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// Find looks an event up by id or by code.
func (s *EventService) Find(ctx context.Context, ref string) (models.EventDetail, error) {
	const op = "services.EventService.Find"

	e, err := lookupEvent(ctx, s.events, strings.TrimSpace(ref))
	if err != nil {
		return models.EventDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

func (s *EventService) List(ctx context.Context, filter models.EventFilter) (models.EventPage, error) {
	const op = "services.EventService.List"

	status, err := models.ParseEventStatus(filter.Status)
	if err != nil {
		return models.EventPage{}, fmt.Errorf("%s: %w", op, err)
	}
	page := models.NewPage(filter.Page, filter.Limit, defaultEventLimit, maxEventLimit)

	events, total, err := s.events.List(ctx, status, filter.Query, page)
	if err != nil {
		return models.EventPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.EventPage{
		Events: events,
		Total:  total,
		Page:   page.Number,
		Limit:  page.Limit,
	}, nil
}

// ListPublic returns the active events shown on the public site.
func (s *EventService) ListPublic(ctx context.Context) ([]models.EventDetail, error) {
	const op = "services.EventService.ListPublic"

	events, err := s.events.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

func (s *EventService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "services.EventService.Delete"
	log := s.log.With(slog.String("op", op), slog.String("event_id", id.String()))

	if err := s.events.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("event deleted")
	invalidateStats(ctx, log, s.stats)

	return nil
}
