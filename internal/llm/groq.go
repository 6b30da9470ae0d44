// Package llm provides the completion client that generates assistant
// replies. The Groq implementation speaks Groq's OpenAI-compatible
// chat-completions API: the caller sends the full ordered transcript on
// every call and gets back a single reply. No streaming, no retries; one
// transport timeout is the only resilience mechanism.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rifath/chatbot-backend/internal/domain"
)

// ErrNotConfigured is returned on every call when no API key was supplied.
// The condition is permanent for the process lifetime; callers degrade
// rather than crash.
var ErrNotConfigured = errors.New("groq client not configured")

const defaultBaseURL = "https://api.groq.com/openai/v1"

// maxErrorBody caps how much of an upstream error payload is read and quoted.
const maxErrorBody = 8 << 10

// completions counts completion calls by outcome. Labels stay low-cardinality:
// ok, not_configured, transport_error, http_error, decode_error.
var completions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "llm_completions_total",
		Help: "Total number of completion calls by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(completions)
}

// Client produces one assistant reply for an ordered transcript.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends the entire transcript and returns the reply text.
	Complete(ctx context.Context, turns []domain.Turn, model string) (string, error)
}

// Options configures the Groq client.
type Options struct {
	// APIKey authenticates against the completion endpoint. Empty means the
	// client is permanently unavailable (every call fails with ErrNotConfigured).
	APIKey string
	// BaseURL overrides the API root, mainly for tests.
	BaseURL string
	// Timeout bounds each HTTP call. Defaults to 60s.
	Timeout time.Duration
}

// Groq is the HTTP implementation of Client.
type Groq struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewGroq constructs a Groq client. It never fails: a missing API key is
// reported per call, so the surrounding session keeps working in degraded mode.
func NewGroq(opts Options) *Groq {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Groq{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}
}

// wire types for the chat-completions endpoint

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete implements Client. Failure causes (missing credential, transport
// error, non-2xx status, malformed body) are all surfaced as errors; the
// caller decides how to degrade.
func (g *Groq) Complete(ctx context.Context, turns []domain.Turn, model string) (string, error) {
	if g.apiKey == "" {
		completions.WithLabelValues("not_configured").Inc()
		return "", ErrNotConfigured
	}

	msgs := make([]chatMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, chatMessage{Role: t.Role, Content: t.Content})
	}
	body, err := json.Marshal(chatRequest{Model: model, Messages: msgs})
	if err != nil {
		completions.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("groq: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		completions.WithLabelValues("transport_error").Inc()
		return "", fmt.Errorf("groq: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		completions.WithLabelValues("transport_error").Inc()
		return "", fmt.Errorf("groq: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		completions.WithLabelValues("transport_error").Inc()
		return "", fmt.Errorf("groq: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		completions.WithLabelValues("http_error").Inc()
		return "", fmt.Errorf("groq: %s: %s", resp.Status, upstreamErrorDetail(raw))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		completions.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("groq: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		completions.WithLabelValues("decode_error").Inc()
		return "", errors.New("groq: response contained no choices")
	}

	completions.WithLabelValues("ok").Inc()
	return out.Choices[0].Message.Content, nil
}

// upstreamErrorDetail extracts the error message from an upstream error
// payload, falling back to the (truncated) raw body.
func upstreamErrorDetail(raw []byte) string {
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err == nil && out.Error != nil && out.Error.Message != "" {
		return out.Error.Message
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	if s == "" {
		return "no response body"
	}
	return s
}
