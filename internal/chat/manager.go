// The Manager is the registry of active sessions, keyed by an opaque token
// handed out at login. Each session is isolated: two logins by the same
// identity get independent transcripts, and the chat log in the document
// store is the only state they share.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rifath/chatbot-backend/internal/auth"
	"github.com/rifath/chatbot-backend/internal/domain"
	"github.com/rifath/chatbot-backend/internal/llm"
)

// sweepEvery bounds how many lookups happen between idle-session sweeps.
const sweepEvery = 1000

// ManagerOptions configures a Manager. Gate, Completer, and Recorder are
// required; the rest default sensibly.
type ManagerOptions struct {
	Gate      *auth.Gate
	Completer llm.Client
	Recorder  Recorder

	// Model is the completion model identifier sent on every call.
	Model string
	// SystemPrompt seeds each new transcript; empty selects DefaultSystemPrompt.
	SystemPrompt string
	// MaxPromptRunes caps submitted messages; 0 disables the cap.
	MaxPromptRunes int
	// IdleTTL evicts sessions that have not been used for this long.
	// Values <= 0 default to 6h.
	IdleTTL time.Duration

	Logger zerolog.Logger
}

// Manager owns the set of active sessions. Safe for concurrent use.
type Manager struct {
	gate           *auth.Gate
	completer      llm.Client
	recorder       Recorder
	model          string
	systemPrompt   string
	maxPromptRunes int
	idleTTL        time.Duration
	log            zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	sweepN   uint64
}

// NewManager constructs a Manager from options, applying defaults.
func NewManager(opts ManagerOptions) *Manager {
	prompt := opts.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Manager{
		gate:           opts.Gate,
		completer:      opts.Completer,
		recorder:       opts.Recorder,
		model:          opts.Model,
		systemPrompt:   prompt,
		maxPromptRunes: opts.MaxPromptRunes,
		idleTTL:        ttl,
		log:            opts.Logger,
		sessions:       make(map[string]*Session),
	}
}

// Login authenticates the claimed name through the identity gate and opens a
// fresh session with a transcript seeded with exactly one system turn.
// Authentication failures (auth.ErrEmptyName, auth.ErrNotAllowed) pass
// through unchanged.
func (m *Manager) Login(rawName string) (*Session, error) {
	username, err := m.gate.Authenticate(rawName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &Session{
		Token:          uuid.NewString(),
		Username:       username,
		turns:          []domain.Turn{{Role: domain.RoleSystem, Content: m.systemPrompt}},
		completer:      m.completer,
		recorder:       m.recorder,
		model:          m.model,
		maxPromptRunes: m.maxPromptRunes,
		log:            m.log,
	}
	s.touch(now)

	m.mu.Lock()
	m.sweepLocked(now)
	m.sessions[s.Token] = s
	m.mu.Unlock()

	m.log.Info().Str("user", username).Msg("session opened")
	return s, nil
}

// Lookup resolves a token to its active session and marks it used.
// Expired sessions are evicted on contact and reported as not found.
func (m *Manager) Lookup(token string) (*Session, error) {
	now := time.Now()

	m.mu.Lock()
	m.sweepN++
	if m.sweepN >= sweepEvery {
		m.sweepLocked(now)
		m.sweepN = 0
	}
	s, ok := m.sessions[token]
	if ok && now.Sub(s.LastSeen()) >= m.idleTTL {
		delete(m.sessions, token)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(now)
	return s, nil
}

// Logout discards the session and its transcript. Unknown tokens are a no-op:
// logout is idempotent.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()

	if ok {
		m.log.Info().Str("user", s.Username).Msg("session closed")
	}
}

// Active reports the number of live sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// sweepLocked evicts sessions idle for at least the TTL. Caller holds m.mu.
func (m *Manager) sweepLocked(now time.Time) {
	for tok, s := range m.sessions {
		if now.Sub(s.LastSeen()) >= m.idleTTL {
			delete(m.sessions, tok)
		}
	}
}
