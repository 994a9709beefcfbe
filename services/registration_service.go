package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tahuri-backend/database"
	"tahuri-backend/logger/sl"
	"tahuri-backend/metrics"
	"tahuri-backend/models"
	"tahuri-backend/utils"
)

const (
	defaultRegistrationLimit = 20
	maxRegistrationLimit     = 100
	ticketAttempts           = 3
)

type RegistrationStore interface {
	Create(ctx context.Context, reg models.Registration) (models.Registration, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.RegistrationDetail, error)
	GetByTicket(ctx context.Context, ticket string) (models.RegistrationDetail, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error)
	Update(ctx context.Context, reg models.Registration) (models.Registration, error)
	Delete(ctx context.Context, id uuid.UUID) (models.Registration, error)
}

type RegistrationService struct {
	log           *slog.Logger
	registrations RegistrationStore
	events        EventGetter
	publisher     Publisher
	stats         StatsInvalidator
	metrics       *metrics.Metrics
	newTicket     func(eventCode string) (string, error)
	now           func() time.Time
}

func NewRegistrationService(
	log *slog.Logger,
	registrations RegistrationStore,
	events EventGetter,
	publisher Publisher,
	stats StatsInvalidator,
	m *metrics.Metrics,
) *RegistrationService {
	return &RegistrationService{
		log:           log,
		registrations: registrations,
		events:        events,
		publisher:     publisher,
		stats:         stats,
		metrics:       m,
		newTicket:     utils.NewTicketNumber,
		now:           time.Now,
	}
}

// Register signs a participant up for the event identified by eventRef (id
// or code). Capacity, event status and NIK uniqueness are enforced by the
// store under a lock on the event row.
func (s *RegistrationService) Register(ctx context.Context, eventRef string, req models.RegisterRequest) (reg models.RegistrationDetail, err error) {
	const op = "services.RegistrationService.Register"
	log := s.log.With(slog.String("op", op))

	ctx, span := tracer.Start(ctx, "RegistrationService.Register")
	defer func() { endSpan(span, err) }()
	defer func() { s.countRegistration(err) }()

	name := strings.TrimSpace(req.Name)
	nik := utils.NormalizeNIK(req.NIK)
	phone := utils.NormalizePhone(req.Phone)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := utils.Collect(
		utils.ValidateRequired("name", name),
		utils.ValidateNIK(nik),
		utils.ValidatePhone(phone),
		utils.ValidateEmail(email),
	); err != nil {
		return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, err)
	}

	event, err := lookupEvent(ctx, s.events, strings.TrimSpace(eventRef))
	if err != nil {
		return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	if !event.IsActive() {
		return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, models.ErrEventInactive)
	}
	span.SetAttributes(attribute.String("event.code", event.Code))

	now := s.now()
	candidate := models.Registration{
		ID:          uuid.New(),
		EventID:     event.ID,
		Name:        name,
		NIK:         nik,
		Phone:       phone,
		Email:       email,
		Institution: strings.TrimSpace(req.Institution),
		Status:      models.RegistrationStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var created models.Registration
	for attempt := 1; ; attempt++ {
		candidate.TicketNumber, err = s.newTicket(event.Code)
		if err != nil {
			return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, err)
		}

		created, err = s.registrations.Create(ctx, candidate)
		if err == nil {
			break
		}
		if !errors.Is(err, database.ErrTicketExists) || attempt == ticketAttempts {
			return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, err)
		}
		log.Warn("ticket number collision, retrying", slog.Int("attempt", attempt))
	}

	log.Info("participant registered",
		slog.String("registration_id", created.ID.String()),
		slog.String("event_code", event.Code),
		slog.String("ticket", created.TicketNumber),
	)

	notify(ctx, log, s.publisher, s.stats, models.DomainMessage{
		Type:           models.MessageRegistrationCreated,
		RegistrationID: created.ID,
		EventID:        created.EventID,
		TicketNumber:   created.TicketNumber,
		OccurredAt:     now,
	})

	return models.RegistrationDetail{
		Registration:  created,
		EventCode:     event.Code,
		EventTitle:    event.Title,
		EventLocation: event.Location,
		EventStartsAt: event.StartsAt,
	}, nil
}

func (s *RegistrationService) countRegistration(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Registrations.WithLabelValues(resultLabel(err)).Inc()
}

func (s *RegistrationService) Get(ctx context.Context, id uuid.UUID) (models.RegistrationDetail, error) {
	const op = "services.RegistrationService.Get"

	reg, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	return reg, nil
}

// ByTicket finds a registration by ticket number, ignoring case and surrounding spaces.
func (s *RegistrationService) ByTicket(ctx context.Context, ticket string) (models.RegistrationDetail, error) {
	const op = "services.RegistrationService.ByTicket"

	reg, err := s.registrations.GetByTicket(ctx, utils.NormalizeTicketNumber(ticket))
	if err != nil {
		return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	return reg, nil
}

func (s *RegistrationService) List(ctx context.Context, q models.RegistrationQuery) (models.RegistrationPage, error) {
	const op = "services.RegistrationService.List"

	filter, err := registrationFilter(q)
	if err != nil {
		return models.RegistrationPage{}, fmt.Errorf("%s: %w", op, err)
	}

	regs, total, err := s.registrations.List(ctx, filter)
	if err != nil {
		return models.RegistrationPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.RegistrationPage{
		Registrations: regs,
		Total:         total,
		Page:          filter.Page.Number,
		Limit:         filter.Page.Limit,
	}, nil
}

func registrationFilter(q models.RegistrationQuery) (models.RegistrationFilter, error) {
	status, err := models.ParseRegistrationStatus(q.Status)
	if err != nil {
		return models.RegistrationFilter{}, err
	}
	state, err := models.ParseCheckInState(q.CheckIn)
	if err != nil {
		return models.RegistrationFilter{}, err
	}

	filter := models.RegistrationFilter{
		Status:  status,
		CheckIn: state,
		Query:   strings.TrimSpace(q.Query),
		Page:    models.NewPage(q.Page, q.Limit, defaultRegistrationLimit, maxRegistrationLimit),
	}
	if q.EventID != "" {
		id, err := uuid.Parse(q.EventID)
		if err != nil {
			return models.RegistrationFilter{}, fmt.Errorf("%w: invalid event_id", models.ErrInvalidFilter)
		}
		filter.EventID = &id
	}
	return filter, nil
}

func (s *RegistrationService) Update(ctx context.Context, id uuid.UUID, req models.UpdateRegistrationRequest) (models.Registration, error) {
	const op = "services.RegistrationService.Update"
	log := s.log.With(slog.String("op", op), slog.String("registration_id", id.String()))

	name := strings.TrimSpace(req.Name)
	phone := utils.NormalizePhone(req.Phone)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var statusErr error
	if req.Status != models.RegistrationStatusActive && req.Status != models.RegistrationStatusCancelled {
		statusErr = utils.ValidationError{Field: "status", Message: "status must be active or cancelled"}
	}
	if err := utils.Collect(
		utils.ValidateRequired("name", name),
		utils.ValidatePhone(phone),
		utils.ValidateEmail(email),
		statusErr,
	); err != nil {
		return models.Registration{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.registrations.Update(ctx, models.Registration{
		ID:          id,
		Name:        name,
		Phone:       phone,
		Email:       email,
		Institution: strings.TrimSpace(req.Institution),
		Status:      req.Status,
		UpdatedAt:   s.now(),
	})
	if err != nil {
		return models.Registration{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("registration updated", slog.String("status", updated.Status))
	invalidateStats(ctx, log, s.stats)

	return updated, nil
}

// Cancel sets a registration's status to cancelled, keeping its other fields.
func (s *RegistrationService) Cancel(ctx context.Context, id uuid.UUID) (models.Registration, error) {
	const op = "services.RegistrationService.Cancel"
	log := s.log.With(slog.String("op", op), slog.String("registration_id", id.String()))

	current, err := s.registrations.GetByID(ctx, id)
	if err != nil {
		return models.Registration{}, fmt.Errorf("%s: %w", op, err)
	}

	reg := current.Registration
	reg.Status = models.RegistrationStatusCancelled
	reg.UpdatedAt = s.now()

	updated, err := s.registrations.Update(ctx, reg)
	if err != nil {
		return models.Registration{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("registration cancelled")
	invalidateStats(ctx, log, s.stats)

	return updated, nil
}

// Delete removes a registration. One that has been checked in is kept and
// ErrRegistrationCheckedIn is returned.
func (s *RegistrationService) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "services.RegistrationService.Delete"
	log := s.log.With(slog.String("op", op), slog.String("registration_id", id.String()))

	deleted, err := s.registrations.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrRegistrationCheckedIn) {
			log.Warn("refusing to delete checked-in registration")
		} else if !errors.Is(err, database.ErrRegistrationNotFound) {
			log.Error("failed to delete registration", sl.Err(err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("registration deleted", slog.String("ticket", deleted.TicketNumber))
	invalidateStats(ctx, log, s.stats)

	return nil
}
