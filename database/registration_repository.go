package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tahuri-backend/models"
)

const registrationDetailSelect = `
	SELECT
		r.id, r.event_id, r.ticket_number, r.name, r.nik, r.phone, r.email, r.institution,
		r.status, r.created_at, r.updated_at,
		e.code, e.title, e.location, e.starts_at,
		c.id, c.checked_in_at, c.checked_in_by, a.name
	FROM registrations r
	JOIN events e ON e.id = r.event_id
	LEFT JOIN check_ins c ON c.registration_id = r.id
	LEFT JOIN admins a ON a.id = c.checked_in_by
`

type RegistrationRepository struct {
	db *pgxpool.Pool
}

func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func scanRegistrationDetail(row scanner) (models.RegistrationDetail, error) {
	var d models.RegistrationDetail
	var (
		checkInID   *uuid.UUID
		checkedAt   *time.Time
		checkedBy   *uuid.UUID
		checkedName *string
	)
	err := row.Scan(
		&d.ID,
		&d.EventID,
		&d.TicketNumber,
		&d.Name,
		&d.NIK,
		&d.Phone,
		&d.Email,
		&d.Institution,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.EventCode,
		&d.EventTitle,
		&d.EventLocation,
		&d.EventStartsAt,
		&checkInID,
		&checkedAt,
		&checkedBy,
		&checkedName,
	)
	if err != nil {
		return models.RegistrationDetail{}, err
	}

	if checkInID != nil {
		d.CheckIn = &models.CheckIn{
			ID:             *checkInID,
			RegistrationID: d.ID,
			CheckedInAt:    *checkedAt,
			CheckedInBy:    *checkedBy,
		}
		if checkedName != nil {
			d.CheckIn.CheckedInByName = *checkedName
		}
	}
	return d, nil
}

// Create inserts a registration after checking the event under a row lock:
// the event must be active, have a free slot and not know the NIK yet.
func (r *RegistrationRepository) Create(ctx context.Context, reg models.Registration) (models.Registration, error) {
	const op = "database.RegistrationRepository.Create"

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		event, err := lockEvent(ctx, tx, reg.EventID)
		if err != nil {
			return err
		}

		active, err := countActiveRegistrations(ctx, tx, reg.EventID)
		if err != nil {
			return err
		}
		if err := models.CanRegister(event, active); err != nil {
			return err
		}

		var nikTaken bool
		err = tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM registrations WHERE event_id = $1 AND nik = $2)",
			reg.EventID, reg.NIK,
		).Scan(&nikTaken)
		if err != nil {
			return fmt.Errorf("check nik: %w", err)
		}
		if nikTaken {
			return ErrNIKExists
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO registrations (id, event_id, ticket_number, name, nik, phone, email, institution, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			reg.ID, reg.EventID, reg.TicketNumber, reg.Name, reg.NIK, reg.Phone, reg.Email,
			reg.Institution, reg.Status, reg.CreatedAt, reg.UpdatedAt,
		)
		if err != nil {
			return registrationInsertError(err)
		}
		return nil
	})
	if err != nil {
		return models.Registration{}, fmt.Errorf("%s: %w", op, err)
	}

	return reg, nil
}

func registrationInsertError(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return fmt.Errorf("insert registration: %w", err)
	}
	switch constraint {
	case "registrations_event_nik_key":
		return ErrNIKExists
	case "registrations_ticket_number_key":
		return ErrTicketExists
	}
	return fmt.Errorf("insert registration: %w", err)
}

func lockEvent(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Event, error) {
	var e models.Event
	err := tx.QueryRow(ctx,
		"SELECT id, code, capacity, status FROM events WHERE id = $1 FOR UPDATE", id,
	).Scan(&e.ID, &e.Code, &e.Capacity, &e.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, ErrEventNotFound
		}
		return models.Event{}, fmt.Errorf("lock event: %w", err)
	}
	return e, nil
}

func countActiveRegistrations(ctx context.Context, q querier, eventID uuid.UUID) (int, error) {
	var count int
	err := q.QueryRow(ctx,
		"SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'active'", eventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (models.RegistrationDetail, error) {
	const op = "database.RegistrationRepository.GetByID"

	reg, err := scanRegistrationDetail(r.db.QueryRow(ctx, registrationDetailSelect+" WHERE r.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, ErrRegistrationNotFound)
		}
		return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	return reg, nil
}

func (r *RegistrationRepository) GetByTicket(ctx context.Context, ticket string) (models.RegistrationDetail, error) {
	const op = "database.RegistrationRepository.GetByTicket"

	reg, err := scanRegistrationDetail(r.db.QueryRow(ctx, registrationDetailSelect+" WHERE r.ticket_number = $1", ticket))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, ErrRegistrationNotFound)
		}
		return models.RegistrationDetail{}, fmt.Errorf("%s: %w", op, err)
	}
	return reg, nil
}

func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	const op = "database.RegistrationRepository.List"

	where := " WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.EventID != nil {
		where += " AND r.event_id = $" + strconv.Itoa(argIndex)
		args = append(args, *filter.EventID)
		argIndex++
	}

	if filter.Status != "" {
		where += " AND r.status = $" + strconv.Itoa(argIndex)
		args = append(args, string(filter.Status))
		argIndex++
	}

	switch filter.CheckIn {
	case models.CheckInStateCheckedIn:
		where += " AND c.id IS NOT NULL"
	case models.CheckInStateNotCheckedIn:
		where += " AND c.id IS NULL"
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		p := "$" + strconv.Itoa(argIndex)
		where += " AND (r.name ILIKE " + p + " OR r.ticket_number ILIKE " + p + " OR r.nik LIKE " + p +
			" OR r.email ILIKE " + p + " OR r.phone LIKE " + p + ")"
		args = append(args, "%"+escapeLike(q)+"%")
		argIndex++
	}

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM registrations r
		LEFT JOIN check_ins c ON c.registration_id = r.id
	` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	query := registrationDetailSelect + where +
		" ORDER BY r.created_at DESC LIMIT $" + strconv.Itoa(argIndex) + " OFFSET $" + strconv.Itoa(argIndex+1)
	args = append(args, filter.Page.Limit, filter.Page.Offset())

	regs, err := r.queryDetails(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return regs, total, nil
}

// ListByEvent returns every registration of an event in signup order.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationDetail, error) {
	const op = "database.RegistrationRepository.ListByEvent"

	regs, err := r.queryDetails(ctx, registrationDetailSelect+" WHERE r.event_id = $1 ORDER BY r.created_at ASC", eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return regs, nil
}

func (r *RegistrationRepository) queryDetails(ctx context.Context, query string, args ...interface{}) ([]models.RegistrationDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := []models.RegistrationDetail{}
	for rows.Next() {
		reg, err := scanRegistrationDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// Update replaces the editable fields. Re-activating a cancelled
// registration takes a slot again, so capacity is checked for that case.
func (r *RegistrationRepository) Update(ctx context.Context, reg models.Registration) (models.Registration, error) {
	const op = "database.RegistrationRepository.Update"

	var updated models.Registration
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := lockRegistration(ctx, tx, reg.ID)
		if err != nil {
			return err
		}

		if !current.IsActive() && reg.IsActive() {
			event, err := lockEvent(ctx, tx, current.EventID)
			if err != nil {
				return err
			}
			active, err := countActiveRegistrations(ctx, tx, current.EventID)
			if err != nil {
				return err
			}
			if err := models.CanRegister(event, active); err != nil {
				return err
			}
		}

		updated = current
		updated.Name = reg.Name
		updated.Phone = reg.Phone
		updated.Email = reg.Email
		updated.Institution = reg.Institution
		updated.Status = reg.Status
		updated.UpdatedAt = reg.UpdatedAt

		_, err = tx.Exec(ctx, `
			UPDATE registrations
			SET name = $2, phone = $3, email = $4, institution = $5, status = $6, updated_at = $7
			WHERE id = $1`,
			updated.ID, updated.Name, updated.Phone, updated.Email, updated.Institution, updated.Status, updated.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Registration{}, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Delete removes a registration that has not been checked in.
func (r *RegistrationRepository) Delete(ctx context.Context, id uuid.UUID) (models.Registration, error) {
	const op = "database.RegistrationRepository.Delete"

	var deleted models.Registration
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		reg, err := lockRegistration(ctx, tx, id)
		if err != nil {
			return err
		}

		existing, err := findCheckIn(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := models.CanDeleteRegistration(existing); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, "DELETE FROM registrations WHERE id = $1", id); err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		deleted = reg
		return nil
	})
	if err != nil {
		return models.Registration{}, fmt.Errorf("%s: %w", op, err)
	}
	return deleted, nil
}

// lockRegistration reads a registration with SELECT ... FOR UPDATE.
func lockRegistration(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Registration, error) {
	var reg models.Registration
	err := tx.QueryRow(ctx, `
		SELECT id, event_id, ticket_number, name, nik, phone, email, institution, status, created_at, updated_at
		FROM registrations
		WHERE id = $1
		FOR UPDATE`, id,
	).Scan(
		&reg.ID,
		&reg.EventID,
		&reg.TicketNumber,
		&reg.Name,
		&reg.NIK,
		&reg.Phone,
		&reg.Email,
		&reg.Institution,
		&reg.Status,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Registration{}, ErrRegistrationNotFound
		}
		return models.Registration{}, fmt.Errorf("lock registration: %w", err)
	}
	return reg, nil
}

// findCheckIn returns the registration's check-in row, or nil when there is none.
func findCheckIn(ctx context.Context, q querier, registrationID uuid.UUID) (*models.CheckIn, error) {
	var ci models.CheckIn
	err := q.QueryRow(ctx,
		"SELECT id, registration_id, checked_in_at, checked_in_by FROM check_ins WHERE registration_id = $1",
		registrationID,
	).Scan(&ci.ID, &ci.RegistrationID, &ci.CheckedInAt, &ci.CheckedInBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find check-in: %w", err)
	}
	return &ci, nil
}
