package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tahuri-backend/models"
)

type AdminRepository struct {
	db *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) ByEmail(ctx context.Context, email string) (models.Admin, error) {
	const op = "database.AdminRepository.ByEmail"

	return r.get(ctx, op, "SELECT id, name, email, password_hash, created_at FROM admins WHERE email = $1", email)
}

func (r *AdminRepository) ByID(ctx context.Context, id uuid.UUID) (models.Admin, error) {
	const op = "database.AdminRepository.ByID"

	return r.get(ctx, op, "SELECT id, name, email, password_hash, created_at FROM admins WHERE id = $1", id)
}

func (r *AdminRepository) get(ctx context.Context, op, query string, arg interface{}) (models.Admin, error) {
	var a models.Admin
	err := r.db.QueryRow(ctx, query, arg).Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Admin{}, fmt.Errorf("%s: %w", op, ErrAdminNotFound)
		}
		return models.Admin{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// Create inserts the admin unless the email is taken. It reports whether a row was inserted.
func (r *AdminRepository) Create(ctx context.Context, a models.Admin) (bool, error) {
	const op = "database.AdminRepository.Create"

	tag, err := r.db.Exec(ctx, `
		INSERT INTO admins (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`,
		a.ID, a.Name, a.Email, a.PasswordHash, a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected() == 1, nil
}
