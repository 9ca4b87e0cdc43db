package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the session id.
const SessionCookieName = "session_id"

const contextKeyIdentity = "identity"

// ErrUnauthorized is reported when a protected route is called without valid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Resolver turns request credentials into an Identity: the session cookie first,
// then an "Authorization: Bearer" token when tokens are enabled.
type Resolver struct {
	sessions *Store
	tokens   *TokenIssuer
}

// NewResolver returns a Resolver. tokens may be nil.
func NewResolver(sessions *Store, tokens *TokenIssuer) *Resolver {
	return &Resolver{sessions: sessions, tokens: tokens}
}

// Resolve returns Anonymous for missing or invalid credentials. An error means
// the session backend could not be consulted.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (Identity, error) {
	if cookie, err := req.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		userID, err := r.sessions.GetUserID(ctx, cookie.Value)
		switch {
		case err == nil:
			return Authenticated{UserID: userID}, nil
		case !errors.Is(err, ErrSessionNotFound):
			return nil, err
		}
	}
	if r.tokens != nil {
		if token, ok := bearerToken(req); ok {
			if userID, err := r.tokens.Parse(token); err == nil {
				return Authenticated{UserID: userID}, nil
			}
		}
	}
	return Anonymous{}, nil
}

func bearerToken(req *http.Request) (string, bool) {
	h := req.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// IdentityFrom returns the identity bound by RequireSession or OptionalSession.
func IdentityFrom(c *gin.Context) Identity {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return Anonymous{}
	}
	id, ok := v.(Identity)
	if !ok {
		return Anonymous{}
	}
	return id
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) (string, bool) {
	a, ok := IdentityFrom(c).(Authenticated)
	return a.UserID, ok
}

// RequireSession binds an Authenticated identity or aborts with ErrUnauthorized.
func RequireSession(res *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := res.Resolve(c.Request.Context(), c.Request)
		if err != nil {
			_ = c.Error(fmt.Errorf("resolve session: %w", err))
			c.Abort()
			return
		}
		if _, ok := id.(Authenticated); !ok {
			_ = c.Error(ErrUnauthorized)
			c.Abort()
			return
		}
		c.Set(contextKeyIdentity, id)
		c.Next()
	}
}

// OptionalSession binds whatever identity the request carries, Anonymous included.
func OptionalSession(res *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := res.Resolve(c.Request.Context(), c.Request)
		if err != nil {
			_ = c.Error(fmt.Errorf("resolve session: %w", err))
			c.Abort()
			return
		}
		c.Set(contextKeyIdentity, id)
		c.Next()
	}
}
