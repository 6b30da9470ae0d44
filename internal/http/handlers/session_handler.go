// Session HTTP handlers.
//
// This file exposes the conversation lifecycle endpoints:
//   - POST /auth/login          (authenticate and open a session)
//   - POST /auth/logout         (close the session and discard its transcript)
//   - GET  /session/transcript  (inspect the in-memory transcript)
//
// Handlers are transport-thin: they validate input, call the session manager,
// and translate results into HTTP responses. Identity is a bare username
// checked against a fixed allow-list; there are no passwords in this system.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/rifath/chatbot-backend/internal/auth"
	"github.com/rifath/chatbot-backend/internal/chat"
	"github.com/rifath/chatbot-backend/internal/domain"
	"github.com/rifath/chatbot-backend/internal/http/middleware"
	"github.com/rifath/chatbot-backend/internal/utils"
)

//
// Manager contract
//

// SessionManager defines the session lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use.
type SessionManager interface {
	// Login authenticates a username and opens a fresh session.
	Login(username string) (*chat.Session, error)
	// Lookup resolves a live session token, refreshing its idle deadline.
	Lookup(token string) (*chat.Session, error)
	// Logout closes the session for token. Unknown tokens are a no-op.
	Logout(token string)
}

//
// Handler wiring
//

// Options configures the Handlers instance.
type Options struct {
	// Manager is the session registry. Required.
	Manager SessionManager
	// DB backs the idempotency store. May be nil, which disables replay.
	DB *gorm.DB
	// IdempotencyTTL bounds how long a stored reply can be replayed.
	IdempotencyTTL time.Duration
	// MaxPromptRunes caps message length at the edge. <= 0 disables the
	// edge check (the session enforces its own limit regardless).
	MaxPromptRunes int
}

// Handlers groups the HTTP endpoints for sessions and messages.
type Handlers struct {
	mgr            SessionManager
	db             *gorm.DB
	idemTTL        time.Duration
	maxPromptRunes int
}

// New constructs a Handlers instance bound to the given collaborators.
func New(opts Options) *Handlers {
	ttl := opts.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{
		mgr:            opts.Manager,
		db:             opts.DB,
		idemTTL:        ttl,
		maxPromptRunes: opts.MaxPromptRunes,
	}
}

//
// DTOs
//

// LoginRequest is the JSON payload for opening a session.
type LoginRequest struct {
	// Username is checked against the configured allow-list.
	Username string `json:"username" binding:"required,min=1" example:"rifath"`
}

// LoginResponse carries the opaque session token clients must present in the
// X-Session-Token header on subsequent requests.
type LoginResponse struct {
	Token    string `json:"token" example:"7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab"`
	Username string `json:"username" example:"rifath"`
	Greeting string `json:"greeting" example:"Welcome Rifath!"`
}

// TranscriptResponse returns the session transcript, oldest turn first.
type TranscriptResponse struct {
	Username string        `json:"username"`
	Turns    []domain.Turn `json:"turns"`
	Count    int           `json:"count"`
}

var titleCaser = cases.Title(language.English)

//
// Handlers
//

// Login godoc
// @ID          login
// @Summary     Authenticate and open a session
// @Description Checks the username against the allow-list and opens a fresh
// @Description conversation session. The returned token must be sent in the
// @Description X-Session-Token header on all subsequent requests.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.LoginResponse  "Session opened"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unknown user"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username required")
		return
	}

	s, err := h.mgr.Login(req.Username)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmptyName):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username required")
		case errors.Is(err, auth.ErrNotAllowed):
			fail(c, http.StatusUnauthorized, ErrCodeLoginFailed, "user not recognized")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, LoginResponse{
		Token:    s.Token,
		Username: s.Username,
		Greeting: "Welcome " + titleCaser.String(s.Username) + "!",
	})
}

// Logout godoc
// @ID          logout
// @Summary     Close the current session
// @Description Closes the session identified by X-Session-Token and discards
// @Description its in-memory transcript. Logging out twice is harmless.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Session-Token  header  string  true  "Session token"
//
// @Success     204  "Session closed"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid session"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	s := middleware.SessionFrom(c)
	if s == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing session")
		return
	}
	h.mgr.Logout(s.Token)
	noContent(c)
}

// GetTranscript godoc
// @ID          getTranscript
// @Summary     Inspect the session transcript
// @Description Returns the in-memory conversation transcript for the current
// @Description session, oldest turn first, including the system preamble.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-Session-Token  header  string  true   "Session token"
// @Param       limit            query   int     false  "Return only the last N turns"  minimum(1)
//
// @Success     200  {object}  handlers.TranscriptResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid session"
// @Router      /session/transcript [get]
func (h *Handlers) GetTranscript(c *gin.Context) {
	s := middleware.SessionFrom(c)
	if s == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing session")
		return
	}

	turns := s.Transcript()
	if limit := utils.AtoiDefault(c.Query("limit"), 0); limit > 0 && limit < len(turns) {
		turns = turns[len(turns)-limit:]
	}

	ok(c, http.StatusOK, TranscriptResponse{
		Username: s.Username,
		Turns:    turns,
		Count:    len(turns),
	})
}
