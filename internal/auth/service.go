package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trustd/internal/engine/ports"
	dErrors "trustd/pkg/domain-errors"
)

// AccountWriter mirrors new registrations into the history store so the
// account-history calculator sees creation time and verification status.
type AccountWriter interface {
	UpsertAccount(ctx context.Context, userID string, rec ports.AccountRecord) error
}

// Service registers users and verifies credentials.
type Service struct {
	users    UserStore
	accounts AccountWriter
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates the auth service.
// Panics if users or accounts is nil - fail fast at startup.
func NewService(users UserStore, accounts AccountWriter, opts ...Option) *Service {
	if users == nil {
		panic("auth.NewService: user store is required")
	}
	if accounts == nil {
		panic("auth.NewService: account writer is required")
	}
	s := &Service{users: users, accounts: accounts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a freshly hashed password and seeds the
// account record used by trust scoring.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username and password are required")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.accounts.UpsertAccount(ctx, user.ID, ports.AccountRecord{
		CreatedAt: user.CreatedAt,
		Verified:  user.Verified,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to seed account record",
			"user_id", user.ID,
			"error", err,
		)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", username)
	}
	return &user, nil
}

// Authenticate verifies username and password. Unknown users and wrong
// passwords return the same unauthorized error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.users.ByUsername(ctx, username)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, err
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return user, nil
}
