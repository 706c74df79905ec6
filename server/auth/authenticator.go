// Package auth issues and verifies the signed access tokens accepted by the
// HTTP API, either as a bearer Authorization header or as a browser cookie.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/usetaskchat/taskchat/store"
)

const (
	// AccessTokenCookieName is the cookie the web client keeps its token in.
	AccessTokenCookieName = "taskchat.access-token"
	// AccessTokenDuration bounds how long an issued token stays valid.
	AccessTokenDuration = 7 * 24 * time.Hour

	issuer = "taskchat"
)

// ClaimsMessage is the token payload. The subject carries the user id.
type ClaimsMessage struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an HS256 token for the given user.
func GenerateAccessToken(userID, email, secret string, expirationTime time.Time) (string, error) {
	claims := &ClaimsMessage{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Authenticator resolves request credentials to a stored user.
type Authenticator struct {
	store  *store.Store
	secret string
}

func NewAuthenticator(st *store.Store, secret string) *Authenticator {
	return &Authenticator{store: st, secret: secret}
}

// AuthenticateToUser validates the access token found in either header and
// loads the user it was issued to. Expired tokens, bad signatures, missing
// tokens and deleted users all fail the same way.
func (a *Authenticator) AuthenticateToUser(ctx context.Context, authorizationHeader, cookieHeader string) (*store.User, error) {
	token := extractToken(authorizationHeader, cookieHeader)
	if token == "" {
		return nil, errors.New("missing access token")
	}

	claims := &ClaimsMessage{}
	if _, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(a.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer)); err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}
	if claims.Subject == "" {
		return nil, errors.New("access token has no subject")
	}

	user, err := a.store.GetUser(ctx, &store.FindUser{ID: &claims.Subject})
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve token user")
	}
	return user, nil
}

// extractToken prefers the Authorization header over the cookie.
func extractToken(authorizationHeader, cookieHeader string) string {
	if strings.HasPrefix(authorizationHeader, "Bearer ") {
		return strings.TrimPrefix(authorizationHeader, "Bearer ")
	}
	if cookieHeader != "" {
		r := http.Request{Header: http.Header{"Cookie": {cookieHeader}}}
		if cookie, err := r.Cookie(AccessTokenCookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}
