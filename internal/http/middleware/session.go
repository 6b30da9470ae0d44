// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides RequireSession, the authentication gate for routes that
// operate on an established conversation. Identity is carried by an opaque
// session token minted at login.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rifath/chatbot-backend/internal/chat"
)

// HeaderSessionToken is the request header carrying the opaque session token
// returned by the login endpoint.
const HeaderSessionToken = "X-Session-Token"

// SessionLookup resolves a session token to a live session, refreshing its
// idle deadline. It returns chat.ErrSessionNotFound for unknown, expired, or
// logged-out tokens.
type SessionLookup func(token string) (*chat.Session, error)

// RequireSession returns a Gin middleware that rejects requests without a
// valid session token. On success it stores the session under the "session"
// context key, the username under "userID", and the token under "sessionID"
// for downstream middleware and handlers.
func RequireSession(lookup SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(HeaderSessionToken))
		if token == "" {
			unauthorized(c, "missing session token")
			return
		}

		s, err := lookup(token)
		if err != nil {
			unauthorized(c, "invalid or expired session")
			return
		}

		c.Set("session", s)
		c.Set("userID", s.Username)
		c.Set("sessionID", s.Token)
		c.Next()
	}
}

// SessionFrom returns the session attached by RequireSession, or nil when
// the route is unauthenticated.
func SessionFrom(c *gin.Context) *chat.Session {
	if v, ok := c.Get("session"); ok {
		if s, ok := v.(*chat.Session); ok {
			return s
		}
	}
	return nil
}

func unauthorized(c *gin.Context, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"code":       "unauthorized",
		"message":    msg,
	})
}
