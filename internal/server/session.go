package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookie     = "ytp_session"
	DefaultSessionTTL = time.Hour
	minSecretLength   = 8
)

// SessionClaims is the signed session payload. Subject is the username.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SessionManager issues and verifies HS256 session tokens carried in a cookie.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager rejects secrets too short to sign with.
func NewSessionManager(secret string, ttl time.Duration) (*SessionManager, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("%w: session secret must be at least %d characters", shared.ErrInvalidConfig, minSecretLength)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for username.
func (m *SessionManager) Issue(username string) (string, error) {
	now := m.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies a token and returns its username.
func (m *SessionManager) Parse(raw string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", shared.ErrTokenExpired
	case err != nil || !token.Valid || claims.Subject == "":
		return "", shared.ErrNotAuthenticated
	}
	return claims.Subject, nil
}

// Cookie wraps a token in the session cookie.
func (m *SessionManager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie() *http.Cookie {
	return &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true}
}

type ctxUserKey struct{}

// WithUser stores the session username on ctx.
func WithUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, username)
}

// UserFromContext returns the session username set by [SessionManager.Require].
func UserFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxUserKey{}).(string)
	return u, ok && u != ""
}

// Require rejects requests without a valid session cookie.
func (m *SessionManager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			writeError(w, fmt.Errorf("%w: Not logged in", shared.ErrAuth))
			return
		}

		username, err := m.Parse(cookie.Value)
		if err != nil {
			writeError(w, fmt.Errorf("%w: Session expired, please log in again", shared.ErrAuth))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), username)))
	})
}
