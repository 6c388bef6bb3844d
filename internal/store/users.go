package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rxdesk/m/domain"
)

var (
	// ErrEmailTaken is returned by CreateUser when the email is registered.
	ErrEmailTaken = errors.New("email already exists")
	// ErrUserNotFound is returned by UserByEmail.
	ErrUserNotFound = errors.New("user not found")
	// ErrRegistrationClosed is returned by CreateFirstOwner once any account exists.
	ErrRegistrationClosed = errors.New("registration requires an owner")
)

// CreateUser stores a staff account. passwordHash must already be hashed.
func (s *Store) CreateUser(ctx context.Context, u domain.User, passwordHash string) (domain.User, error) {
	u.Email = strings.ToLower(u.Email)
	err := s.db.QueryRowxContext(ctx, `INSERT INTO users (username, email, password, role) VALUES (?, ?, ?, ?) RETURNING id, created_at`,
		u.Username, u.Email, passwordHash, u.Role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("%w: create user: %w", ErrWrite, err)
	}
	return u, nil
}

// CreateFirstOwner stores u as an owner only while the users table is empty.
// The check and the insert are one statement, so two concurrent callers
// cannot both succeed.
func (s *Store) CreateFirstOwner(ctx context.Context, u domain.User, passwordHash string) (domain.User, error) {
	u.Email = strings.ToLower(u.Email)
	u.Role = domain.RoleOwner
	err := s.db.QueryRowxContext(ctx, `INSERT INTO users (username, email, password, role)
		SELECT ?, ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM users) RETURNING id, created_at`,
		u.Username, u.Email, passwordHash, u.Role).Scan(&u.ID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrRegistrationClosed
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: create owner: %w", ErrWrite, err)
	}
	return u, nil
}

// UserByEmail loads an account including its password hash.
func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, `SELECT id, username, email, password, role, created_at FROM users WHERE email = ?`, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	if err != nil {
		return u, unavailable("get user", err)
	}
	return u, nil
}

func (s *Store) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("%w: set password: %w", ErrWrite, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
