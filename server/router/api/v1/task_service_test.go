package v1_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type taskPayload struct {
	ID          int32  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedTs   int64  `json:"created_ts"`
	UpdatedTs   int64  `json:"updated_ts"`
}

func taskPath(account testAccount, suffix string) string {
	return fmt.Sprintf("/api/v1/users/%s/tasks%s", account.UserID, suffix)
}

func TestTaskCRUDRoundTrip(t *testing.T) {
	st := newTestStore(t)
	e, _ := newTestHandler(t, st)
	account := signUp(t, e, "alice@example.com")

	var created taskPayload
	rec := doJSON(t, e, http.MethodPost, taskPath(account, ""), account.Token, map[string]string{
		"title":       "buy groceries",
		"description": "milk and bread",
	}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotZero(t, created.ID)
	require.Equal(t, "buy groceries", created.Title)
	require.False(t, created.Completed)

	// Pending listing includes it.
	var pending []taskPayload
	rec = doJSON(t, e, http.MethodGet, taskPath(account, "?status=pending"), account.Token, nil, &pending)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pending, 1)
	require.Equal(t, created.ID, pending[0].ID)

	// Complete it, twice: the second call changes nothing and still succeeds.
	var completed taskPayload
	for i := 0; i < 2; i++ {
		rec = doJSON(t, e, http.MethodPatch, taskPath(account, fmt.Sprintf("/%d/complete", created.ID)), account.Token, nil, &completed)
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, completed.Completed)
	}

	var done []taskPayload
	rec = doJSON(t, e, http.MethodGet, taskPath(account, "?status=completed"), account.Token, nil, &done)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, done, 1)

	// Partial update touches only the named field.
	var updated taskPayload
	rec = doJSON(t, e, http.MethodPatch, taskPath(account, fmt.Sprintf("/%d", created.ID)), account.Token, map[string]string{
		"title": "buy groceries and snacks",
	}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "buy groceries and snacks", updated.Title)
	require.Equal(t, "milk and bread", updated.Description)

	// Delete it; listing all is then empty.
	rec = doJSON(t, e, http.MethodDelete, taskPath(account, fmt.Sprintf("/%d", created.ID)), account.Token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var all []taskPayload
	rec = doJSON(t, e, http.MethodGet, taskPath(account, ""), account.Token, nil, &all)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, all)

	var envelope errorEnvelope
	rec = doJSON(t, e, http.MethodGet, taskPath(account, fmt.Sprintf("/%d", created.ID)), account.Token, nil, &envelope)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", envelope.ErrorKind)
}

func TestCreateTaskValidation(t *testing.T) {
	st := newTestStore(t)
	e, _ := newTestHandler(t, st)
	account := signUp(t, e, "alice@example.com")

	var envelope errorEnvelope
	rec := doJSON(t, e, http.MethodPost, taskPath(account, ""), account.Token, map[string]string{
		"title": "   ",
	}, &envelope)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", envelope.ErrorKind)
	require.Contains(t, envelope.Message, "title cannot be empty")

	// Nothing was inserted.
	var all []taskPayload
	rec = doJSON(t, e, http.MethodGet, taskPath(account, ""), account.Token, nil, &all)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, all)
}

func TestTaskRoutesRequireAuth(t *testing.T) {
	st := newTestStore(t)
	e, _ := newTestHandler(t, st)
	account := signUp(t, e, "alice@example.com")

	// Missing token.
	var envelope errorEnvelope
	rec := doJSON(t, e, http.MethodGet, taskPath(account, ""), "", nil, &envelope)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", envelope.ErrorKind)

	// Garbage token.
	rec = doJSON(t, e, http.MethodGet, taskPath(account, ""), "not-a-jwt", nil, &envelope)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTaskOwnerIsolationOverHTTP(t *testing.T) {
	st := newTestStore(t)
	e, _ := newTestHandler(t, st)
	alice := signUp(t, e, "alice@example.com")
	mallory := signUp(t, e, "mallory@example.com")

	var created taskPayload
	rec := doJSON(t, e, http.MethodPost, taskPath(alice, ""), alice.Token, map[string]string{
		"title": "private task",
	}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)

	// A valid token used on someone else's path is forbidden outright.
	var envelope errorEnvelope
	rec = doJSON(t, e, http.MethodGet, taskPath(alice, ""), mallory.Token, nil, &envelope)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", envelope.ErrorKind)

	// Alice's task id on Mallory's own path reads as missing, revealing
	// nothing about whose it is.
	rec = doJSON(t, e, http.MethodGet, taskPath(mallory, fmt.Sprintf("/%d", created.ID)), mallory.Token, nil, &envelope)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", envelope.ErrorKind)

	rec = doJSON(t, e, http.MethodPatch, taskPath(mallory, fmt.Sprintf("/%d/complete", created.ID)), mallory.Token, nil, &envelope)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Untouched for its owner.
	var got taskPayload
	rec = doJSON(t, e, http.MethodGet, taskPath(alice, fmt.Sprintf("/%d", created.ID)), alice.Token, nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, got.Completed)
}
