// A Session owns one conversation: the authenticated identity and the ordered
// transcript that is sent, in full, to the completion endpoint on every turn.
// Submit runs the whole exchange pipeline and embodies the failure posture of
// the system: completion failures become the assistant reply (fail-open),
// persistence failures are logged and dropped, and nothing is ever retried
// or rolled back.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rifath/chatbot-backend/internal/domain"
	"github.com/rifath/chatbot-backend/internal/llm"
)

// DefaultSystemPrompt seeds every new transcript when no override is configured.
const DefaultSystemPrompt = "You are a friendly chatbot. Respond to questions like a real person, " +
	"using simple English and within three lines of text or less. If the user says 'bye', " +
	"'goodbye', or 'exit', respond with a respectful and courteous farewell."

// Diagnostic replies synthesized when the completion collaborator fails.
// They take the place of the assistant reply and flow through the rest of
// the pipeline, including persistence, exactly like a real reply.
const replyNotConfigured = "Groq client not configured."

// Recorder persists one completed exchange under an identity.
// Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, username, userText, botText string, ts time.Time) error
}

// Session is one logical conversation. It is created by Manager.Login and
// discarded by Manager.Logout or idle eviction. A session processes one
// message at a time: Submit holds the session lock for the whole exchange,
// so overlapping submissions on the same token serialize.
type Session struct {
	// Token is the opaque handle the client presents on every request.
	Token string
	// Username is the normalized identity bound at login. Immutable.
	Username string

	mu    sync.Mutex
	turns []domain.Turn

	// lastSeen holds unix nanos and is read by the Manager while it holds
	// its own lock. It stays atomic, never guarded by mu: Submit holds mu
	// across the completion call, and idle checks must not wait on that.
	lastSeen atomic.Int64

	completer      llm.Client
	recorder       Recorder
	model          string
	maxPromptRunes int
	log            zerolog.Logger
}

// Transcript returns a copy of the conversation so far, system turn first.
// The copy is safe for the caller to retain; it never aliases session state.
func (s *Session) Transcript() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// LastSeen reports when the session last processed a request.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// Submit runs one exchange and returns the assistant reply text.
//
// Pipeline: append the user turn, call the completion endpoint with the
// entire transcript, append the reply, then record the (input, reply) pair
// in the chat log. A completion failure does not abort the turn: the error
// is rendered into a diagnostic reply that the user sees inline and that is
// persisted as if the model had produced it. A persistence failure is logged
// as a warning and otherwise ignored; the in-memory transcript keeps the
// exchange regardless. Durability is therefore best-effort, at-most-once.
func (s *Session) Submit(ctx context.Context, text string) (string, error) {
	tr := otel.Tracer("chat/Session")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.String("user.id", s.Username)),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if s.maxPromptRunes > 0 && utf8.RuneCountInString(text) > s.maxPromptRunes {
		return "", ErrTooLong
	}

	s.touch(time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, domain.Turn{Role: domain.RoleUser, Content: text})

	reply, err := s.completer.Complete(ctx, s.turns, s.model)
	if err != nil {
		reply = degradedReply(err)
		s.log.Warn().Err(err).Str("user", s.Username).Msg("completion failed")
	}
	s.turns = append(s.turns, domain.Turn{Role: domain.RoleAssistant, Content: reply})

	if err := s.recorder.Record(ctx, s.Username, text, reply, time.Now().UTC()); err != nil {
		s.log.Warn().Err(err).Str("user", s.Username).Msg("failed to save chat")
	}
	return reply, nil
}

// degradedReply renders a completion failure as the assistant reply.
// The UI does not distinguish this from a real reply.
func degradedReply(err error) string {
	if errors.Is(err, llm.ErrNotConfigured) {
		return replyNotConfigured
	}
	return fmt.Sprintf("Groq API error: %v", err)
}
