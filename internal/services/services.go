// package services implements the account workflows layered over the repositories
package services

import (
	"context"

	"github.com/desertthunder/cadence/internal/models"
)

// Authenticator verifies credentials and issues session tokens.
//
// [AuthService] is the production implementation; the HTTP layer depends only on this interface.
type Authenticator interface {
	// Register creates an account with a free subscription.
	Register(ctx context.Context, username, email, password string) (*models.User, error)

	// Authenticate returns the user matching username and password, or [shared.ErrInvalidCredentials].
	Authenticate(ctx context.Context, username, password string) (*models.User, error)

	// ChangePassword replaces the password after verifying the current one.
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
}

// TokenManager issues and validates bearer tokens.
type TokenManager interface {
	Issue(user *models.User) (string, error)
	Parse(token string) (*Claims, error)
}

var (
	_ Authenticator = (*AuthService)(nil)
	_ TokenManager  = (*TokenIssuer)(nil)
)
