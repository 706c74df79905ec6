package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/require"

	"github.com/usetaskchat/taskchat/internal/profile"
	apiv1 "github.com/usetaskchat/taskchat/server/router/api/v1"
	"github.com/usetaskchat/taskchat/store"
	"github.com/usetaskchat/taskchat/store/db"
)

const testSecret = "test-secret"

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

// newTestHandler wires a fresh echo instance with the v1 routes over the
// given store. Separate handlers over one store simulate separate stateless
// server processes sharing a database.
func newTestHandler(t *testing.T, st *store.Store) (*echo.Echo, *apiv1.APIV1Service) {
	t.Helper()
	e := echo.New()
	svc := apiv1.NewAPIV1Service(testSecret, st.Profile, st, nil)
	svc.RegisterRoutes(e)
	return e, svc
}

// doJSON performs one request against the handler and decodes the JSON
// response body into out (when out is non-nil).
func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

type testAccount struct {
	UserID string
	Token  string
}

// signUp registers an account through the API and returns its id and token.
func signUp(t *testing.T, e *echo.Echo, email string) testAccount {
	t.Helper()

	var resp struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	rec := doJSON(t, e, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    email,
		"nickname": "Test User",
		"password": "correct horse battery staple",
	}, &resp)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.User.ID)
	return testAccount{UserID: resp.User.ID, Token: resp.AccessToken}
}

type errorEnvelope struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}
