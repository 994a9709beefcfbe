package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAdminNotFound        = errors.New("admin not found")
	ErrCodeExists           = errors.New("event code already exists")
	ErrNIKExists            = errors.New("NIK is already registered for this event")
	ErrTicketExists         = errors.New("ticket number already exists")
)

const uniqueViolationCode = "23505"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// uniqueViolation returns the violated constraint name of a 23505 error.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}
