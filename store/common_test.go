package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/usetaskchat/taskchat/internal/profile"
	"github.com/usetaskchat/taskchat/store"
	"github.com/usetaskchat/taskchat/store/db"
)

// newTestStore opens a sqlite-backed store in a per-test temp directory.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()
	testProfile := &profile.Profile{
		Mode:   "dev",
		Data:   dir,
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "taskchat_test.db"),
	}
	require.NoError(t, testProfile.Validate())

	driver, err := db.NewDBDriver(testProfile)
	require.NoError(t, err)

	st := store.New(driver, testProfile)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func createTestUser(t *testing.T, st *store.Store, email string) *store.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), &store.User{
		ID:           uuid.New().String(),
		Email:        email,
		Nickname:     "Test User",
		PasswordHash: "not-a-real-hash",
	})
	require.NoError(t, err)
	return user
}

func createTestTask(t *testing.T, st *store.Store, creatorID, title string) *store.Task {
	t.Helper()
	task, err := st.CreateTask(context.Background(), &store.Task{
		CreatorID: creatorID,
		Title:     title,
	})
	require.NoError(t, err)
	return task
}
