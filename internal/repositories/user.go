package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

const userColumns = "id, username, email, password_hash, created_at"

// UserRepository persists [models.User] accounts.
type UserRepository struct {
	db  DBTX
	now Clock
}

// NewUserRepository creates a new [UserRepository] with the given connection and clock.
func NewUserRepository(db DBTX, now Clock) *UserRepository {
	return &UserRepository{db: db, now: orUTCNow(now)}
}

// Create hashes rawPassword and inserts a new user.
//
// Duplicate usernames or emails fail with [shared.ErrConstraintViolation].
func (r *UserRepository) Create(ctx context.Context, username, email, rawPassword string) (*models.User, error) {
	if err := validateUserFields(username, email); err != nil {
		return nil, err
	}

	hash, err := shared.HashPassword(rawPassword)
	if err != nil {
		return nil, err
	}

	return r.CreateWithHash(ctx, username, email, hash)
}

// CreateWithHash inserts a user whose password was hashed by the caller.
func (r *UserRepository) CreateWithHash(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	if err := validateUserFields(username, email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password hash is required", shared.ErrValidation)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.now(),
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.Username, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return nil, classify("insert user", err)
	}

	if user.ID, err = result.LastInsertId(); err != nil {
		return nil, classify("read user id", err)
	}
	return user, nil
}

// Get retrieves a user by ID. It returns nil without error when no user matches.
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByUsername looks a user up by exact, case-sensitive username.
//
// It returns nil without error when no user matches.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	user, err := r.scanOne(r.db.QueryRowContext(ctx, query, username))
	// MySQL's default collation is case-insensitive.
	if user != nil && user.Username != username {
		return nil, nil
	}
	return user, err
}

// FindByEmail looks a user up by exact email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// VerifyPassword reports whether rawPassword matches the user's stored hash.
func (r *UserRepository) VerifyPassword(user *models.User, rawPassword string) bool {
	if user == nil {
		shared.BurnPasswordCheck(rawPassword)
		return false
	}
	return shared.CheckPassword(user.PasswordHash, rawPassword)
}

// UpdatePassword replaces the stored hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, rawPassword string) error {
	hash, err := shared.HashPassword(rawPassword)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return classify("update password", err)
	}
	return affected("update password", result, "user", id)
}

// Delete removes a user. Playlists, history, ratings and the subscription cascade.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return classify("delete user", err)
	}
	return affected("delete user", result, "user", id)
}

// List returns every user ordered by ID.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id ASC")
	if err != nil {
		return nil, classify("query users", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterate users", err)
	}
	return users, nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, classify("count users", err)
	}
	return n, nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	user, err := r.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) scanRow(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, classify("scan user", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func validateUserFields(username, email string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email %q is not valid", shared.ErrValidation, email)
	}
	return nil
}
