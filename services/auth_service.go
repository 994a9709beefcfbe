package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tahuri-backend/database"
	"tahuri-backend/models"
	"tahuri-backend/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AdminStore interface {
	ByEmail(ctx context.Context, email string) (models.Admin, error)
	ByID(ctx context.Context, id uuid.UUID) (models.Admin, error)
	Create(ctx context.Context, a models.Admin) (bool, error)
}

// FailedLoginCounter is incremented on every rejected login.
type FailedLoginCounter interface {
	Inc()
}

type AuthService struct {
	log          *slog.Logger
	admins       AdminStore
	secret       string
	tokenTTL     time.Duration
	failedLogins FailedLoginCounter
}

func NewAuthService(log *slog.Logger, admins AdminStore, secret string, tokenTTL time.Duration, failedLogins FailedLoginCounter) *AuthService {
	return &AuthService{
		log:          log,
		admins:       admins,
		secret:       secret,
		tokenTTL:     tokenTTL,
		failedLogins: failedLogins,
	}
}

func (a *AuthService) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	const op = "services.AuthService.Login"
	log := a.log.With(slog.String("op", op))

	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := a.admins.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrAdminNotFound) {
			log.Warn("login for unknown admin")
			a.failedLogins.Inc()
			return models.LoginResponse{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return models.LoginResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte(password)); err != nil {
		log.Warn("invalid password", slog.String("admin_id", admin.ID.String()))
		a.failedLogins.Inc()
		return models.LoginResponse{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, expiresAt, err := utils.GenerateToken(admin.ID.String(), admin.Email, a.secret, a.tokenTTL)
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin logged in", slog.String("admin_id", admin.ID.String()))

	return models.LoginResponse{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

func (a *AuthService) Admin(ctx context.Context, id uuid.UUID) (models.Admin, error) {
	const op = "services.AuthService.Admin"

	admin, err := a.admins.ByID(ctx, id)
	if err != nil {
		return models.Admin{}, fmt.Errorf("%s: %w", op, err)
	}
	return admin, nil
}

// EnsureAdmin creates the bootstrap admin unless the email already exists.
// An existing account keeps its password.
func (a *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	const op = "services.AuthService.EnsureAdmin"
	log := a.log.With(slog.String("op", op))

	email = strings.ToLower(strings.TrimSpace(email))
	if err := utils.Collect(utils.ValidateEmail(email), utils.ValidateRequired("password", password)); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	created, err := a.admins.Create(ctx, models.Admin{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if created {
		log.Info("bootstrap admin created", slog.String("email", email))
	}
	return created, nil
}
