package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usetaskchat/taskchat/store"
)

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")

	task, err := st.CreateTask(ctx, &store.Task{
		CreatorID:   user.ID,
		Title:       "  buy groceries  ",
		Description: "milk and bread",
	})
	require.NoError(t, err)
	require.NotZero(t, task.ID)
	require.Equal(t, "buy groceries", task.Title)
	require.Equal(t, "milk and bread", task.Description)
	require.False(t, task.Completed)
	require.NotZero(t, task.CreatedTs)

	got, err := st.GetTask(ctx, &store.FindTask{ID: &task.ID, CreatorID: user.ID})
	require.NoError(t, err)
	require.Equal(t, task.Title, got.Title)
	require.Equal(t, task.Description, got.Description)
}

func TestCreateTaskValidation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")

	tests := []struct {
		name string
		task *store.Task
	}{
		{"empty title", &store.Task{CreatorID: user.ID, Title: ""}},
		{"whitespace title", &store.Task{CreatorID: user.ID, Title: "   "}},
		{"title too long", &store.Task{CreatorID: user.ID, Title: strings.Repeat("x", 201)}},
		{"description too long", &store.Task{CreatorID: user.ID, Title: "ok", Description: strings.Repeat("x", 1001)}},
		{"missing creator", &store.Task{Title: "ok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.CreateTask(ctx, tt.task)
			require.ErrorIs(t, err, store.ErrValidation)
		})
	}

	// A title of exactly the maximum length is allowed.
	_, err := st.CreateTask(ctx, &store.Task{CreatorID: user.ID, Title: strings.Repeat("x", 200)})
	require.NoError(t, err)
}

func TestListTasksFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")

	first := createTestTask(t, st, user.ID, "first")
	second := createTestTask(t, st, user.ID, "second")
	third := createTestTask(t, st, user.ID, "third")

	_, err := st.CompleteTask(ctx, &store.UpdateTask{ID: second.ID, CreatorID: user.ID})
	require.NoError(t, err)

	all, err := st.ListTasks(ctx, &store.FindTask{CreatorID: user.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	require.Equal(t, third.ID, all[0].ID)
	require.Equal(t, second.ID, all[1].ID)
	require.Equal(t, first.ID, all[2].ID)

	completed := true
	done, err := st.ListTasks(ctx, &store.FindTask{CreatorID: user.ID, Completed: &completed})
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, second.ID, done[0].ID)

	pending := false
	open, err := st.ListTasks(ctx, &store.FindTask{CreatorID: user.ID, Completed: &pending})
	require.NoError(t, err)
	require.Len(t, open, 2)

	// Listing requires an owner.
	_, err = st.ListTasks(ctx, &store.FindTask{})
	require.ErrorIs(t, err, store.ErrValidation)
}

func TestCompleteTaskIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")
	task := createTestTask(t, st, user.ID, "ship release")

	done, err := st.CompleteTask(ctx, &store.UpdateTask{ID: task.ID, CreatorID: user.ID})
	require.NoError(t, err)
	require.True(t, done.Completed)

	// Completing again succeeds and stays completed.
	again, err := st.CompleteTask(ctx, &store.UpdateTask{ID: task.ID, CreatorID: user.ID})
	require.NoError(t, err)
	require.True(t, again.Completed)
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")
	task := createTestTask(t, st, user.ID, "draft report")

	title := "final report"
	updated, err := st.UpdateTask(ctx, &store.UpdateTask{ID: task.ID, CreatorID: user.ID, Title: &title})
	require.NoError(t, err)
	require.Equal(t, "final report", updated.Title)

	description := "due friday"
	updated, err = st.UpdateTask(ctx, &store.UpdateTask{ID: task.ID, CreatorID: user.ID, Description: &description})
	require.NoError(t, err)
	require.Equal(t, "final report", updated.Title)
	require.Equal(t, "due friday", updated.Description)

	// No fields at all is rejected.
	_, err = st.UpdateTask(ctx, &store.UpdateTask{ID: task.ID, CreatorID: user.ID})
	require.ErrorIs(t, err, store.ErrValidation)

	// An empty replacement title is rejected.
	empty := "  "
	_, err = st.UpdateTask(ctx, &store.UpdateTask{ID: task.ID, CreatorID: user.ID, Title: &empty})
	require.ErrorIs(t, err, store.ErrValidation)

	// Unknown task reports not found.
	missing := int32(9999)
	_, err = st.UpdateTask(ctx, &store.UpdateTask{ID: missing, CreatorID: user.ID, Title: &title})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTaskOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	alice := createTestUser(t, st, "alice@example.com")
	mallory := createTestUser(t, st, "mallory@example.com")

	task := createTestTask(t, st, alice.ID, "private task")

	// Another user's id resolves exactly like a missing one.
	_, err := st.GetTask(ctx, &store.FindTask{ID: &task.ID, CreatorID: mallory.ID})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.CompleteTask(ctx, &store.UpdateTask{ID: task.ID, CreatorID: mallory.ID})
	require.ErrorIs(t, err, store.ErrNotFound)

	title := "hijacked"
	_, err = st.UpdateTask(ctx, &store.UpdateTask{ID: task.ID, CreatorID: mallory.ID, Title: &title})
	require.ErrorIs(t, err, store.ErrNotFound)

	err = st.DeleteTask(ctx, &store.DeleteTask{ID: task.ID, CreatorID: mallory.ID})
	require.ErrorIs(t, err, store.ErrNotFound)

	// The task is untouched for its owner.
	got, err := st.GetTask(ctx, &store.FindTask{ID: &task.ID, CreatorID: alice.ID})
	require.NoError(t, err)
	require.Equal(t, "private task", got.Title)
	require.False(t, got.Completed)

	list, err := st.ListTasks(ctx, &store.FindTask{CreatorID: mallory.ID})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := createTestUser(t, st, "alice@example.com")
	task := createTestTask(t, st, user.ID, "temporary")

	require.NoError(t, st.DeleteTask(ctx, &store.DeleteTask{ID: task.ID, CreatorID: user.ID}))

	_, err := st.GetTask(ctx, &store.FindTask{ID: &task.ID, CreatorID: user.ID})
	require.ErrorIs(t, err, store.ErrNotFound)

	// Deleting twice reports not found.
	err = st.DeleteTask(ctx, &store.DeleteTask{ID: task.ID, CreatorID: user.ID})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestParseTaskStatus(t *testing.T) {
	completed, err := store.ParseTaskStatus("")
	require.NoError(t, err)
	require.Nil(t, completed)

	completed, err = store.ParseTaskStatus(store.TaskStatusAll)
	require.NoError(t, err)
	require.Nil(t, completed)

	completed, err = store.ParseTaskStatus(store.TaskStatusPending)
	require.NoError(t, err)
	require.NotNil(t, completed)
	require.False(t, *completed)

	completed, err = store.ParseTaskStatus(store.TaskStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, completed)
	require.True(t, *completed)

	_, err = store.ParseTaskStatus("bogus")
	require.ErrorIs(t, err, store.ErrValidation)
}
