// Message HTTP handler.
//
// This file exposes the exchange endpoint:
//   - POST /messages  (submit a message and receive the assistant reply)
//
// The handler validates and normalizes input, delegates the exchange to the
// session, and implements idempotent replay: when the client supplies an
// Idempotency-Key and a previous reply exists for (user, session, key), that
// reply is returned with `Idempotency-Replayed: true` without invoking the
// completion backend again.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rifath/chatbot-backend/internal/chat"
	"github.com/rifath/chatbot-backend/internal/http/middleware"
	"github.com/rifath/chatbot-backend/internal/repo"
)

//
// DTOs
//

// PostMessageRequest is the JSON payload for submitting a message.
type PostMessageRequest struct {
	// Message is the user prompt. It must be non-empty.
	Message string `json:"message" binding:"required,min=1" example:"hello, how are you?"`
}

// PostMessageResponse carries the assistant reply for one exchange.
type PostMessageResponse struct {
	Reply string `json:"reply" example:"I am doing well, thank you!"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
// CRLF/CR become LF, runs of 3+ LFs collapse to two, surrounding whitespace
// is trimmed.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ReplayLookup adapts the idempotency store to the middleware lookup
// contract. A nil db disables replay detection.
func ReplayLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, username, sessionID, key string, now time.Time) (string, bool, error) {
		if db == nil {
			return "", false, nil
		}
		rec, err := repo.GetIdempotency(ctx, db, username, sessionID, key, now)
		if err != nil || rec == nil {
			return "", false, nil
		}
		return rec.Reply, true, nil
	}
}

//
// Handler
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Submit a message and get the assistant reply
// @Description Appends the message to the session transcript and returns the
// @Description assistant reply. Supports idempotency via the Idempotency-Key
// @Description header (same key within the TTL returns the stored reply).
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-Session-Token  header  string  true   "Session token"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.PostMessageRequest  true  "Message payload"
//
// @Success     200  {object}  handlers.PostMessageResponse  "Assistant reply"
// @Failure     400  {object}  handlers.ErrorResponse        "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse        "Missing or invalid session"
// @Failure     500  {object}  handlers.ErrorResponse        "Internal error"
// @Router      /messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()

	s := middleware.SessionFrom(c)
	if s == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing session")
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	content := sanitizeContent(req.Message)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	if h.maxPromptRunes > 0 && utf8.RuneCountInString(content) > h.maxPromptRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("message too long: max %d runes", h.maxPromptRunes))
		return
	}

	// Idempotency (replay path). The validator already consulted the store
	// and stashed the stored reply; serve it without a second lookup.
	if middleware.IsReplay(c) {
		if reply, found := middleware.ReplayReply(c); found {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, PostMessageResponse{Reply: reply})
			return
		}
	}

	reply, err := s.Submit(ctx, content)
	if err != nil {
		switch {
		case err == chat.ErrEmptyMessage:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		case err == chat.ErrTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message too long")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, err.Error())
		}
		return
	}

	// Idempotency (store path), best effort.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.db != nil {
		_, _ = repo.CreateIdempotency(ctx, h.db, s.Username, s.Token, idemKey, reply, http.StatusOK, h.idemTTL)
	}

	ok(c, http.StatusOK, PostMessageResponse{Reply: reply})
}
