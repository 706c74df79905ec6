// Package v1 carries every /api/v1 HTTP handler: auth, task CRUD and the
// conversational chat endpoint.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"

	"github.com/usetaskchat/taskchat/internal/agent"
	"github.com/usetaskchat/taskchat/internal/profile"
	"github.com/usetaskchat/taskchat/plugin/llm"
	"github.com/usetaskchat/taskchat/server/auth"
	"github.com/usetaskchat/taskchat/store"
)

// Error kinds carried in the error envelope.
const (
	errKindUnauthorized = "unauthorized"
	errKindForbidden    = "forbidden"
	errKindNotFound     = "not_found"
	errKindValidation   = "validation_error"
	errKindInternal     = "internal_error"
)

// APIV1Service owns all v1 routes and their shared dependencies.
type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	// LLM stays nil when no completion provider is configured; the chat
	// endpoint then answers through the keyword fallback.
	LLM agent.CompletionClient
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store, llmClient *llm.Client) *APIV1Service {
	s := &APIV1Service{
		Secret:  secret,
		Profile: profile,
		Store:   store,
	}
	// A nil *llm.Client assigned straight to the interface field would no
	// longer compare equal to nil.
	if llmClient != nil {
		s.LLM = llmClient
	}
	return s
}

// RegisterRoutes attaches every v1 handler to the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	s.registerAuthRoutes(e)
	s.registerTaskRoutes(e)
	s.registerChatRoutes(e)
}

// errorResponse is the envelope every non-2xx response carries.
type errorResponse struct {
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

func errorJSON(c *echo.Context, status int, kind, message string) error {
	return c.JSON(status, errorResponse{ErrorKind: kind, Message: message})
}

// storeErrorJSON maps store sentinel errors onto the wire envelope. Internal
// failures are logged with their detail, which never reaches the client.
func storeErrorJSON(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, errKindNotFound, err.Error())
	case errors.Is(err, store.ErrValidation):
		return errorJSON(c, http.StatusBadRequest, errKindValidation, err.Error())
	default:
		slog.Error("request failed", "path", c.Request().URL.Path, "err", err)
		return errorJSON(c, http.StatusInternalServerError, errKindInternal, "internal server error")
	}
}

// requireAuth resolves the request's access token to a user. On failure the
// 401 envelope has already been written and the returned user is nil.
func (s *APIV1Service) requireAuth(c *echo.Context) (*store.User, error) {
	authHeader := c.Request().Header.Get("Authorization")
	cookieHeader := c.Request().Header.Get("Cookie")
	user, err := auth.NewAuthenticator(s.Store, s.Secret).AuthenticateToUser(
		c.Request().Context(), authHeader, cookieHeader,
	)
	if err != nil || user == nil {
		return nil, errorJSON(c, http.StatusUnauthorized, errKindUnauthorized, "unauthorized")
	}
	return user, nil
}

// requireAuthOwner additionally checks that the :uid path segment names the
// authenticated user. A valid token presented for someone else's path is
// forbidden, not unauthorized.
func (s *APIV1Service) requireAuthOwner(c *echo.Context) (*store.User, error) {
	user, err := s.requireAuth(c)
	if user == nil {
		return nil, err
	}
	if c.Param("uid") != user.ID {
		return nil, errorJSON(c, http.StatusForbidden, errKindForbidden, "you may only access your own resources")
	}
	return user, nil
}
