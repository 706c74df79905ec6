package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/usetaskchat/taskchat/internal/profile"
)

// Store composes all persistence operations over a database driver.
// It owns validation and error normalization; drivers hold only SQL.
type Store struct {
	Profile *profile.Profile
	driver  Driver
}

func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		Profile: profile,
		driver:  driver,
	}
}

// Migrate brings the database schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.driver.EnsureSchema(ctx); err != nil {
		return errors.Wrap(err, "failed to ensure database schema")
	}
	return nil
}

func (s *Store) Close() error {
	return s.driver.Close()
}
