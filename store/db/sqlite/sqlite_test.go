package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usetaskchat/taskchat/internal/profile"
	"github.com/usetaskchat/taskchat/store"
)

func TestNewDBPreservesDSNQueryParameters(t *testing.T) {
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "taskchat_test.db") + "?mode=rwc"
	driver, err := NewDB(&profile.Profile{Mode: "dev", Data: dir, Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = driver.Close()
	})

	// The pragmas are appended with & here; a broken DSN would fail on the
	// first statement.
	ctx := context.Background()
	require.NoError(t, driver.EnsureSchema(ctx))

	user, err := driver.CreateUser(ctx, &store.User{
		ID:           "u1",
		Email:        "alice@example.com",
		Nickname:     "Alice",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotZero(t, user.CreatedTs)
}
