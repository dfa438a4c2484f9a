package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/repositories"
	"github.com/desertthunder/cadence/internal/shared"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 4

// AuthService handles registration, login and password changes.
type AuthService struct {
	store  *repositories.Store
	logger *log.Logger
}

// NewAuthService creates an [AuthService] backed by store.
func NewAuthService(store *repositories.Store, logger *log.Logger) *AuthService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AuthService{store: store, logger: logger}
}

// Register validates the input and creates the user and a free subscription in one transaction.
//
// Duplicate usernames or emails fail with [shared.ErrConstraintViolation].
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	hash, err := shared.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.store.WithTx(ctx, func(tx *repositories.Store) error {
		existing, err := tx.Users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: email %q is already registered", shared.ErrConstraintViolation, email)
		}
		if user, err = tx.Users.CreateWithHash(ctx, username, email, hash); err != nil {
			return err
		}
		_, err = tx.Subscriptions.Set(ctx, user.ID, models.LevelFree, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registered user", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks username and password.
//
// Unknown users and wrong passwords both yield [shared.ErrInvalidCredentials].
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.Users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if !s.store.Users.VerifyPassword(user, password) {
		s.logger.Debug("login rejected", "username", username)
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword verifies oldPassword before storing newPassword.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.store.Users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, shared.ErrNotFound)
	}

	if !s.store.Users.VerifyPassword(user, oldPassword) {
		return shared.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	if err := s.store.Users.UpdatePassword(ctx, userID, newPassword); err != nil {
		return err
	}
	s.logger.Info("password changed", "user_id", userID)
	return nil
}

func validateRegistration(username, email, password string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: username is required", shared.ErrValidation)
	case email == "":
		return fmt.Errorf("%w: email is required", shared.ErrValidation)
	case !strings.Contains(email, "@"):
		return fmt.Errorf("%w: email %q is not valid", shared.ErrValidation, email)
	}
	return validatePassword(password)
}

func validatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", shared.ErrValidation, MinPasswordLength)
	case len(password) > shared.MaxPasswordBytes:
		return fmt.Errorf("%w: password must be at most %d bytes", shared.ErrValidation, shared.MaxPasswordBytes)
	}
	return nil
}
