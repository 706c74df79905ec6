package store

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	maxEmailLength    = 255
	minNicknameLength = 2
	maxNicknameLength = 100
)

// CreateUser persists a new user. Email uniqueness is checked here so all
// drivers report it the same way.
func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	create.Email = strings.ToLower(strings.TrimSpace(create.Email))
	create.Nickname = strings.TrimSpace(create.Nickname)
	if _, err := mail.ParseAddress(create.Email); err != nil {
		return nil, errors.Wrap(ErrValidation, "invalid email address")
	}
	if utf8.RuneCountInString(create.Email) > maxEmailLength {
		return nil, errors.Wrapf(ErrValidation, "email must be at most %d characters", maxEmailLength)
	}
	if n := utf8.RuneCountInString(create.Nickname); n < minNicknameLength || n > maxNicknameLength {
		return nil, errors.Wrapf(ErrValidation, "nickname must be between %d and %d characters", minNicknameLength, maxNicknameLength)
	}
	if create.PasswordHash == "" {
		return nil, errors.Wrap(ErrValidation, "password hash is required")
	}

	existing, err := s.driver.ListUsers(ctx, &FindUser{Email: &create.Email})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, errors.Wrap(ErrValidation, "email already registered")
	}
	return s.driver.CreateUser(ctx, create)
}

// ListUsers lists users matching the given filter.
func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// GetUser returns the first user matching the given filter, or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrap(ErrNotFound, "user")
	}
	return list[0], nil
}

// DeleteUser removes the user and everything they own.
func (s *Store) DeleteUser(ctx context.Context, delete *DeleteUser) error {
	if _, err := s.GetUser(ctx, &FindUser{ID: &delete.ID}); err != nil {
		return err
	}
	return s.driver.DeleteUser(ctx, delete)
}
