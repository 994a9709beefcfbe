package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tahuri-backend/models"
)

const eventDetailSelect = `
	SELECT
		e.id, e.code, e.title, e.description, e.location, e.starts_at, e.ends_at,
		e.capacity, e.status, e.created_at, e.updated_at,
		(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id AND r.status = 'active'),
		(SELECT COUNT(*) FROM check_ins c JOIN registrations r ON r.id = c.registration_id WHERE r.event_id = e.id)
	FROM events e
`

type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEventDetail(row scanner) (models.EventDetail, error) {
	var e models.Event
	var registrations, checkins int
	err := row.Scan(
		&e.ID,
		&e.Code,
		&e.Title,
		&e.Description,
		&e.Location,
		&e.StartsAt,
		&e.EndsAt,
		&e.Capacity,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
		&registrations,
		&checkins,
	)
	if err != nil {
		return models.EventDetail{}, err
	}
	return models.NewEventDetail(e, registrations, checkins), nil
}

func (r *EventRepository) Create(ctx context.Context, e models.Event) (models.Event, error) {
	const op = "database.EventRepository.Create"

	query := `
		INSERT INTO events (id, code, title, description, location, starts_at, ends_at, capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.Code, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt,
		e.Capacity, e.Status, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return models.Event{}, fmt.Errorf("%s: %w", op, ErrCodeExists)
		}
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

// Update replaces the editable columns; CreatedAt of e is ignored.
func (r *EventRepository) Update(ctx context.Context, e models.Event) (models.Event, error) {
	const op = "database.EventRepository.Update"

	query := `
		UPDATE events
		SET code = $2, title = $3, description = $4, location = $5, starts_at = $6, ends_at = $7,
			capacity = $8, status = $9, updated_at = $10
		WHERE id = $1
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		e.ID, e.Code, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt,
		e.Capacity, e.Status, e.UpdatedAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		if _, ok := uniqueViolation(err); ok {
			return models.Event{}, fmt.Errorf("%s: %w", op, ErrCodeExists)
		}
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (models.EventDetail, error) {
	const op = "database.EventRepository.GetByID"

	event, err := scanEventDetail(r.db.QueryRow(ctx, eventDetailSelect+" WHERE e.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EventDetail{}, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return models.EventDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	return event, nil
}

func (r *EventRepository) GetByCode(ctx context.Context, code string) (models.EventDetail, error) {
	const op = "database.EventRepository.GetByCode"

	event, err := scanEventDetail(r.db.QueryRow(ctx, eventDetailSelect+" WHERE e.code = $1", code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EventDetail{}, fmt.Errorf("%s: %w", op, ErrEventNotFound)
		}
		return models.EventDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	return event, nil
}

// List returns one page of events matching status and q, plus the total match count.
func (r *EventRepository) List(ctx context.Context, status, q string, page models.Page) ([]models.EventDetail, int, error) {
	const op = "database.EventRepository.List"

	where := " WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if status != "" {
		where += " AND e.status = $" + strconv.Itoa(argIndex)
		args = append(args, status)
		argIndex++
	}

	if q = strings.TrimSpace(q); q != "" {
		where += " AND (e.title ILIKE $" + strconv.Itoa(argIndex) + " OR e.code ILIKE $" + strconv.Itoa(argIndex) + ")"
		args = append(args, "%"+escapeLike(q)+"%")
		argIndex++
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM events e"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	query := eventDetailSelect + where +
		" ORDER BY e.starts_at DESC LIMIT $" + strconv.Itoa(argIndex) + " OFFSET $" + strconv.Itoa(argIndex+1)
	args = append(args, page.Limit, page.Offset())

	events, err := r.queryDetails(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return events, total, nil
}

// ListActive returns the public listing: active events, soonest first.
func (r *EventRepository) ListActive(ctx context.Context) ([]models.EventDetail, error) {
	const op = "database.EventRepository.ListActive"

	events, err := r.queryDetails(ctx, eventDetailSelect+" WHERE e.status = 'active' ORDER BY e.starts_at ASC")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

func (r *EventRepository) queryDetails(ctx context.Context, query string, args ...interface{}) ([]models.EventDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.EventDetail{}
	for rows.Next() {
		event, err := scanEventDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Delete removes an event that has no registrations. The event row is
// locked so a concurrent registration cannot slip in between the count and the delete.
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "database.EventRepository.Delete"

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRow(ctx, "SELECT id FROM events WHERE id = $1 FOR UPDATE", id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrEventNotFound
			}
			return fmt.Errorf("lock event: %w", err)
		}

		var registrations int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM registrations WHERE event_id = $1", id).Scan(&registrations); err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if err := models.CanDeleteEvent(registrations); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, "DELETE FROM events WHERE id = $1", id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
