package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/usetaskchat/taskchat/server/auth"
	"github.com/usetaskchat/taskchat/store"
)

const minPasswordLength = 8

type signUpRequest struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	CreatedTs int64  `json:"created_ts"`
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

func (s *APIV1Service) registerAuthRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/auth")
	g.POST("/signup", s.signUp)
	g.POST("/signin", s.signIn)
}

func (s *APIV1Service) signUp(c *echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, errKindValidation, "malformed request body")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return errorJSON(c, http.StatusBadRequest, errKindValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, errKindInternal, "internal server error")
	}
	user, err := s.Store.CreateUser(c.Request().Context(), &store.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Nickname:     req.Nickname,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		return storeErrorJSON(c, err)
	}
	return s.issueToken(c, http.StatusCreated, user)
}

func (s *APIV1Service) signIn(c *echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, errKindValidation, "malformed request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{Email: &email})
	if err != nil {
		// Same answer whether the email or the password was wrong.
		return errorJSON(c, http.StatusUnauthorized, errKindUnauthorized, "invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return errorJSON(c, http.StatusUnauthorized, errKindUnauthorized, "invalid email or password")
	}
	return s.issueToken(c, http.StatusOK, user)
}

// issueToken signs an access token for the user and returns it both in the
// response body and as an HttpOnly cookie for the web client.
func (s *APIV1Service) issueToken(c *echo.Context, status int, user *store.User) error {
	expires := time.Now().Add(auth.AccessTokenDuration)
	token, err := auth.GenerateAccessToken(user.ID, user.Email, s.Secret, expires)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, errKindInternal, "internal server error")
	}
	http.SetCookie(c.Response(), &http.Cookie{
		Name:     auth.AccessTokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(status, authResponse{
		AccessToken: token,
		User: userResponse{
			ID:        user.ID,
			Email:     user.Email,
			Nickname:  user.Nickname,
			CreatedTs: user.CreatedTs,
		},
	})
}
