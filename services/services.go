package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tahuri-backend/database"
	"tahuri-backend/logger/sl"
	"tahuri-backend/metrics"
	"tahuri-backend/models"
	"tahuri-backend/utils"
)

var tracer = otel.Tracer("tahuri-backend/services")

const publishTimeout = 5 * time.Second

// Publisher delivers domain messages to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg models.DomainMessage) error
}

// StatsInvalidator drops cached dashboard numbers after a write.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// EventGetter resolves events by id or code.
type EventGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.EventDetail, error)
	GetByCode(ctx context.Context, code string) (models.EventDetail, error)
}

// detach keeps best-effort side effects alive after the request is done.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
}

// invalidateStats drops the cached summary; failures are only logged.
func invalidateStats(ctx context.Context, log *slog.Logger, stats StatsInvalidator) {
	ctx, cancel := detach(ctx)
	defer cancel()

	if err := stats.Invalidate(ctx); err != nil {
		log.Warn("failed to invalidate stats cache", sl.Err(err))
	}
}

// notify invalidates the stats cache and publishes msg. Publishing is best
// effort and never fails the caller.
func notify(ctx context.Context, log *slog.Logger, pub Publisher, stats StatsInvalidator, msg models.DomainMessage) {
	invalidateStats(ctx, log, stats)

	ctx, cancel := detach(ctx)
	defer cancel()

	if err := pub.Publish(ctx, msg); err != nil {
		log.Warn("failed to publish message", slog.String("type", msg.Type), sl.Err(err))
	}
}

// endSpan records err on span before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// lookupEvent accepts either an event id or its code.
func lookupEvent(ctx context.Context, events EventGetter, ref string) (models.EventDetail, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return events.GetByID(ctx, id)
	}
	return events.GetByCode(ctx, utils.NormalizeEventCode(ref))
}

// resultLabel classifies err for the operation counters.
func resultLabel(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	if isRejection(err) {
		return metrics.ResultRejected
	}
	return metrics.ResultError
}

// isRejection reports whether err is an expected refusal rather than a failure.
func isRejection(err error) bool {
	var verrs utils.ValidationErrors
	var verr utils.ValidationError
	switch {
	case errors.As(err, &verrs), errors.As(err, &verr):
		return true
	case errors.Is(err, models.ErrRegistrationInactive),
		errors.Is(err, models.ErrAlreadyCheckedIn),
		errors.Is(err, models.ErrNotCheckedIn),
		errors.Is(err, models.ErrEventInactive),
		errors.Is(err, models.ErrEventFull),
		errors.Is(err, database.ErrNIKExists),
		errors.Is(err, database.ErrEventNotFound),
		errors.Is(err, database.ErrRegistrationNotFound):
		return true
	}
	return false
}
