package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tahuri-backend/logger/sl"
	"tahuri-backend/metrics"
	"tahuri-backend/models"
)

const (
	minSearchLength    = 2
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type CheckInStore interface {
	CheckIn(ctx context.Context, registrationID, adminID uuid.UUID, at time.Time) (models.CheckInResult, error)
	Undo(ctx context.Context, registrationID uuid.UUID) (models.Registration, error)
	Search(ctx context.Context, s models.CheckInSearch) ([]models.CheckInSearchResult, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventCheckIn, error)
}

type CheckinService struct {
	log       *slog.Logger
	checkins  CheckInStore
	events    EventGetter
	publisher Publisher
	stats     StatsInvalidator
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewCheckinService(
	log *slog.Logger,
	checkins CheckInStore,
	events EventGetter,
	publisher Publisher,
	stats StatsInvalidator,
	m *metrics.Metrics,
) *CheckinService {
	return &CheckinService{
		log:       log,
		checkins:  checkins,
		events:    events,
		publisher: publisher,
		stats:     stats,
		metrics:   m,
		now:       time.Now,
	}
}

// Search runs the check-in desk lookup. Queries shorter than two characters
// return no rows without touching the database.
func (s *CheckinService) Search(ctx context.Context, q models.CheckInSearchQuery) ([]models.CheckInSearchResult, error) {
	const op = "services.CheckinService.Search"

	state, err := models.ParseCheckInState(q.State)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	search := models.CheckInSearch{
		Query: strings.TrimSpace(q.Query),
		State: state,
		Limit: q.Limit,
	}
	if q.EventID != "" {
		id, err := uuid.Parse(q.EventID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: invalid event_id", op, models.ErrInvalidFilter)
		}
		search.EventID = &id
	}

	if utf8.RuneCountInString(search.Query) < minSearchLength {
		return []models.CheckInSearchResult{}, nil
	}
	switch {
	case search.Limit <= 0:
		search.Limit = defaultSearchLimit
	case search.Limit > maxSearchLimit:
		search.Limit = maxSearchLimit
	}

	results, err := s.checkins.Search(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return results, nil
}

// CheckIn marks a registration as attended by adminID.
func (s *CheckinService) CheckIn(ctx context.Context, registrationID, adminID uuid.UUID) (res models.CheckInResult, err error) {
	const op = "services.CheckinService.CheckIn"
	log := s.log.With(
		slog.String("op", op),
		slog.String("registration_id", registrationID.String()),
		slog.String("admin_id", adminID.String()),
	)

	ctx, span := tracer.Start(ctx, "CheckinService.CheckIn")
	span.SetAttributes(attribute.String("registration.id", registrationID.String()))
	defer func() { endSpan(span, err) }()
	defer func() { s.count(metrics.ActionCheckIn, err) }()

	res, err = s.checkins.CheckIn(ctx, registrationID, adminID, s.now())
	if err != nil {
		if isRejection(err) {
			log.Info("check-in rejected", slog.String("reason", err.Error()))
		} else {
			log.Error("check-in failed", sl.Err(err))
		}
		return models.CheckInResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("participant checked in", slog.String("ticket", res.Registration.TicketNumber))

	notify(ctx, log, s.publisher, s.stats, models.DomainMessage{
		Type:           models.MessageCheckedIn,
		RegistrationID: registrationID,
		EventID:        res.Registration.EventID,
		TicketNumber:   res.Registration.TicketNumber,
		AdminID:        &adminID,
		OccurredAt:     res.CheckIn.CheckedInAt,
	})

	return res, nil
}

// Undo removes a registration's check-in. adminID is the admin undoing it.
func (s *CheckinService) Undo(ctx context.Context, registrationID, adminID uuid.UUID) (reg models.Registration, err error) {
	const op = "services.CheckinService.Undo"
	log := s.log.With(
		slog.String("op", op),
		slog.String("registration_id", registrationID.String()),
		slog.String("admin_id", adminID.String()),
	)

	ctx, span := tracer.Start(ctx, "CheckinService.Undo")
	span.SetAttributes(attribute.String("registration.id", registrationID.String()))
	defer func() { endSpan(span, err) }()
	defer func() { s.count(metrics.ActionUndo, err) }()

	reg, err = s.checkins.Undo(ctx, registrationID)
	if err != nil {
		if errors.Is(err, models.ErrNotCheckedIn) {
			log.Info("undo rejected: not checked in")
		} else if !isRejection(err) {
			log.Error("undo failed", sl.Err(err))
		}
		return models.Registration{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("check-in undone", slog.String("ticket", reg.TicketNumber))

	notify(ctx, log, s.publisher, s.stats, models.DomainMessage{
		Type:           models.MessageCheckInUndone,
		RegistrationID: registrationID,
		EventID:        reg.EventID,
		TicketNumber:   reg.TicketNumber,
		AdminID:        &adminID,
		OccurredAt:     s.now(),
	})

	return reg, nil
}

// EventCheckIns lists who has checked in to an event.
func (s *CheckinService) EventCheckIns(ctx context.Context, eventID uuid.UUID) ([]models.EventCheckIn, error) {
	const op = "services.CheckinService.EventCheckIns"

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	checkins, err := s.checkins.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return checkins, nil
}

func (s *CheckinService) count(action string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.CheckIns.WithLabelValues(action, resultLabel(err)).Inc()
}
