package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tahuri-backend/models"
)

type CheckInRepository struct {
	db *pgxpool.Pool
}

func NewCheckInRepository(db *pgxpool.Pool) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// CheckIn records attendance for an active registration. The registration
// row stays locked until commit, and check_ins.registration_id is unique, so
// of two concurrent calls exactly one inserts and the other gets ErrAlreadyCheckedIn.
func (r *CheckInRepository) CheckIn(ctx context.Context, registrationID, adminID uuid.UUID, at time.Time) (models.CheckInResult, error) {
	const op = "database.CheckInRepository.CheckIn"

	var result models.CheckInResult
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		reg, err := lockRegistration(ctx, tx, registrationID)
		if err != nil {
			return err
		}

		existing, err := findCheckIn(ctx, tx, registrationID)
		if err != nil {
			return err
		}
		if err := models.CanCheckIn(reg, existing); err != nil {
			return err
		}

		ci := models.CheckIn{
			ID:             uuid.New(),
			RegistrationID: registrationID,
			CheckedInAt:    at,
			CheckedInBy:    adminID,
		}
		_, err = tx.Exec(ctx,
			"INSERT INTO check_ins (id, registration_id, checked_in_at, checked_in_by) VALUES ($1, $2, $3, $4)",
			ci.ID, ci.RegistrationID, ci.CheckedInAt, ci.CheckedInBy,
		)
		if err != nil {
			if constraint, ok := uniqueViolation(err); ok && constraint == "check_ins_registration_id_key" {
				return models.ErrAlreadyCheckedIn
			}
			return fmt.Errorf("insert check-in: %w", err)
		}

		result = models.CheckInResult{CheckIn: ci, Registration: reg}
		return nil
	})
	if err != nil {
		return models.CheckInResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// Undo deletes the check-in row of a registration and returns the registration.
func (r *CheckInRepository) Undo(ctx context.Context, registrationID uuid.UUID) (models.Registration, error) {
	const op = "database.CheckInRepository.Undo"

	var reg models.Registration
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		reg, err = lockRegistration(ctx, tx, registrationID)
		if err != nil {
			return err
		}

		existing, err := findCheckIn(ctx, tx, registrationID)
		if err != nil {
			return err
		}
		if err := models.CanUndoCheckIn(existing); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, "DELETE FROM check_ins WHERE id = $1", existing.ID); err != nil {
			return fmt.Errorf("delete check-in: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Registration{}, fmt.Errorf("%s: %w", op, err)
	}

	return reg, nil
}

// Search matches ticket number and NIK by prefix, and name, phone and email
// by substring, all case-insensitive. Exact ticket and NIK hits sort first.
func (r *CheckInRepository) Search(ctx context.Context, s models.CheckInSearch) ([]models.CheckInSearchResult, error) {
	const op = "database.CheckInRepository.Search"

	escaped := escapeLike(s.Query)
	args := []interface{}{s.Query, escaped + "%", "%" + escaped + "%"}
	argIndex := 4

	where := ` WHERE (r.ticket_number ILIKE $2 OR r.nik LIKE $2
		OR r.name ILIKE $3 OR r.phone LIKE $3 OR r.email ILIKE $3)`

	if s.EventID != nil {
		where += " AND r.event_id = $" + strconv.Itoa(argIndex)
		args = append(args, *s.EventID)
		argIndex++
	}

	switch s.State {
	case models.CheckInStateCheckedIn:
		where += " AND c.id IS NOT NULL"
	case models.CheckInStateNotCheckedIn:
		where += " AND c.id IS NULL"
	}

	query := `
		SELECT r.id, r.ticket_number, r.name, r.nik, r.phone, r.email, r.status,
			e.id, e.code, e.title, c.checked_in_at
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		LEFT JOIN check_ins c ON c.registration_id = r.id
	` + where + `
		ORDER BY (UPPER(r.ticket_number) = UPPER($1) OR r.nik = $1) DESC, r.name ASC
		LIMIT $` + strconv.Itoa(argIndex)
	args = append(args, s.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	results := []models.CheckInSearchResult{}
	for rows.Next() {
		var res models.CheckInSearchResult
		err := rows.Scan(
			&res.RegistrationID,
			&res.TicketNumber,
			&res.Name,
			&res.NIK,
			&res.Phone,
			&res.Email,
			&res.Status,
			&res.EventID,
			&res.EventCode,
			&res.EventTitle,
			&res.CheckedInAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return results, nil
}

// ListByEvent returns an event's check-ins, latest first.
func (r *CheckInRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EventCheckIn, error) {
	const op = "database.CheckInRepository.ListByEvent"

	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.registration_id, c.checked_in_at, c.checked_in_by, COALESCE(a.name, ''),
			r.ticket_number, r.name, r.nik
		FROM check_ins c
		JOIN registrations r ON r.id = c.registration_id
		LEFT JOIN admins a ON a.id = c.checked_in_by
		WHERE r.event_id = $1
		ORDER BY c.checked_in_at DESC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	checkins := []models.EventCheckIn{}
	for rows.Next() {
		var ci models.EventCheckIn
		err := rows.Scan(
			&ci.ID,
			&ci.RegistrationID,
			&ci.CheckedInAt,
			&ci.CheckedInBy,
			&ci.CheckedInByName,
			&ci.TicketNumber,
			&ci.Name,
			&ci.NIK,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		checkins = append(checkins, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return checkins, nil
}
