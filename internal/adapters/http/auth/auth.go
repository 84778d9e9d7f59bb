// Package auth extracts OpenRosa credentials from incoming requests.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
)

type contextKey string

const credentialsContextKey contextKey = "credentials"

// Claims is the payload of the auth cookie token.
type Claims struct {
	User   string `json:"user,omitempty"`
	Pass   string `json:"pass,omitempty"`
	Bearer string `json:"bearer,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator reads credentials from the Authorization header or from a
// signed token in the auth cookie.
type Authenticator struct {
	secret     []byte
	cookieName string
}

// New creates an Authenticator verifying cookie tokens with secret.
func New(secret, cookieName string) *Authenticator {
	return &Authenticator{secret: []byte(secret), cookieName: cookieName}
}

// CookieName returns the name of the auth cookie.
func (a *Authenticator) CookieName() string { return a.cookieName }

// IssueToken signs credentials into a token for the auth cookie.
func (a *Authenticator) IssueToken(user, pass, bearer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		User:   user,
		Pass:   pass,
		Bearer: bearer,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign auth token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies a cookie token and returns its claims.
func (a *Authenticator) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// GetCredentials returns the request's credentials, or nil when it has none.
// Basic auth wins over a bearer header, which wins over the auth cookie.
// An invalid or expired cookie token counts as no credentials.
func (a *Authenticator) GetCredentials(r *http.Request) *survey.Credentials {
	if user, pass, ok := r.BasicAuth(); ok {
		return &survey.Credentials{User: user, Pass: pass}
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
		return &survey.Credentials{Bearer: strings.TrimSpace(token)}
	}

	cookie, err := r.Cookie(a.cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := a.ValidateToken(cookie.Value)
	if err != nil {
		return nil
	}
	creds := &survey.Credentials{User: claims.User, Pass: claims.Pass, Bearer: claims.Bearer}
	if creds.Empty() {
		return nil
	}
	return creds
}

// Middleware stores the request's credentials in its context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if creds := a.GetCredentials(r); creds != nil {
			r = r.WithContext(WithCredentials(r.Context(), creds))
		}
		next.ServeHTTP(w, r)
	})
}

// WithCredentials returns a copy of ctx carrying creds.
func WithCredentials(ctx context.Context, creds *survey.Credentials) context.Context {
	return context.WithValue(ctx, credentialsContextKey, creds)
}

// FromContext returns the credentials stored by Middleware, or nil.
func FromContext(ctx context.Context) *survey.Credentials {
	creds, _ := ctx.Value(credentialsContextKey).(*survey.Credentials)
	return creds
}

// LoggedIn reports whether the request carries credentials.
func LoggedIn(ctx context.Context) bool {
	return !FromContext(ctx).Empty()
}
