// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe methods. It validates
// an Idempotency-Key request header, optionally consults a lookup to detect
// a previously completed request for the same (username, session, key)
// tuple, and annotates the context so downstream components can detect
// replays, serve the stored reply, and bypass rate limiting. Persistence
// stays out of the middleware; the lookup is injected.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to convey an
// idempotency key for message submission. The value must be stable across
// retries of the same semantic operation.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyIdemReply  = "idem.reply"
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated key stashed by
// IdempotencyValidator. Handlers should use this rather than reading the
// header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request would replay a previously completed
// exchange.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// ReplayReply returns the stored reply stashed by IdempotencyValidator when
// the lookup found a prior result. Only meaningful when IsReplay is true.
func ReplayReply(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemReply)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

// IdempotencyOptions configures header validation. TTL enforcement belongs
// inside the lookup, not here.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a stored, still-valid reply exists for
// (username, sessionID, key) at the given time, returning the reply when it
// does. Errors mean lookup failure and never block normal processing.
type IdempotencyLookup func(ctx context.Context, username, sessionID, key string, now time.Time) (reply string, exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes it in the context, and marks the request as a replay (with rate
// bypass) when the lookup finds a prior result. Requests without the header
// pass through untouched; a malformed header gets a 400.
//
// Place after RequireSession so the username and session ID are available.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			username := asString(mustGet(c, "userID"))
			sessionID := asString(mustGet(c, "sessionID"))
			now := time.Now().UTC()

			if reply, exists, _ := lookup(c.Request.Context(), username, sessionID, key, now); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyIdemReply, reply)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

func mustGet(c *gin.Context, key string) interface{} {
	v, _ := c.Get(key)
	return v
}
