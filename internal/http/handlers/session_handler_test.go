package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rifath/chatbot-backend/internal/auth"
	"github.com/rifath/chatbot-backend/internal/chat"
	"github.com/rifath/chatbot-backend/internal/domain"
	"github.com/rifath/chatbot-backend/internal/http/middleware"
)

type fakeCompleter struct {
	reply string
	calls int64
}

func (f *fakeCompleter) Complete(_ context.Context, _ []domain.Turn, _ string) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.reply, nil
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, string, string, string, time.Time) error { return nil }

type testEnv struct {
	router    *gin.Engine
	mgr       *chat.Manager
	completer *fakeCompleter
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fc := &fakeCompleter{reply: "hi there"}
	mgr := chat.NewManager(chat.ManagerOptions{
		Gate:           auth.NewGate([]string{"rifath", "marzooka"}),
		Completer:      fc,
		Recorder:       nopRecorder{},
		Model:          "llama-3.1-8b-instant",
		MaxPromptRunes: 100,
		Logger:         zerolog.Nop(),
	})

	opts.Manager = mgr
	h := New(opts)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/auth/login", h.Login)

	authed := r.Group("/")
	authed.Use(middleware.RequireSession(mgr.Lookup))
	authed.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, ReplayLookup(opts.DB)))
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/session/transcript", h.GetTranscript)
	authed.POST("/messages", h.PostMessage)

	return &testEnv{router: r, mgr: mgr, completer: fc}
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginToken(t *testing.T, env *testEnv, username string) string {
	t.Helper()
	w := doJSON(t, env.router, http.MethodPost, "/auth/login", `{"username":"`+username+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.Token
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t, Options{})

	w := doJSON(t, env.router, http.MethodPost, "/auth/login", `{"username":"  RiFatH "}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected non-empty token")
	}
	if resp.Username != "rifath" {
		t.Fatalf("expected normalized username, got %q", resp.Username)
	}
	if resp.Greeting != "Welcome Rifath!" {
		t.Fatalf("unexpected greeting %q", resp.Greeting)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	env := newTestEnv(t, Options{})

	w := doJSON(t, env.router, http.MethodPost, "/auth/login", `{"username":"intruder"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodeLoginFailed) {
		t.Fatalf("expected login_failed code, got %s", w.Body.String())
	}
}

func TestLogin_MissingUsername(t *testing.T) {
	env := newTestEnv(t, Options{})

	for _, body := range []string{``, `{}`, `{"username":""}`} {
		w := doJSON(t, env.router, http.MethodPost, "/auth/login", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestLogout_ClosesSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := loginToken(t, env, "rifath")
	hdr := map[string]string{middleware.HeaderSessionToken: token}

	w := doJSON(t, env.router, http.MethodPost, "/auth/logout", "", hdr)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", w.Code, w.Body.String())
	}

	// The token is dead afterwards.
	w = doJSON(t, env.router, http.MethodGet, "/session/transcript", "", hdr)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}

func TestGetTranscript_ReturnsTurns(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := loginToken(t, env, "marzooka")
	hdr := map[string]string{middleware.HeaderSessionToken: token}

	// One exchange, then inspect.
	w := doJSON(t, env.router, http.MethodPost, "/messages", `{"message":"hello"}`, hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("post message: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, env.router, http.MethodGet, "/session/transcript", "", hdr)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp TranscriptResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// system + user + assistant
	if resp.Count != 3 || len(resp.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", resp.Count)
	}
	if resp.Turns[0].Role != domain.RoleSystem || resp.Turns[2].Role != domain.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", resp.Turns)
	}
	if resp.Username != "marzooka" {
		t.Fatalf("unexpected username %q", resp.Username)
	}
}

func TestGetTranscript_Limit(t *testing.T) {
	env := newTestEnv(t, Options{})
	token := loginToken(t, env, "rifath")
	hdr := map[string]string{middleware.HeaderSessionToken: token}

	doJSON(t, env.router, http.MethodPost, "/messages", `{"message":"one"}`, hdr)
	doJSON(t, env.router, http.MethodPost, "/messages", `{"message":"two"}`, hdr)

	w := doJSON(t, env.router, http.MethodGet, "/session/transcript?limit=2", "", hdr)
	var resp TranscriptResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected last 2 turns, got %d", resp.Count)
	}
	// The tail of the transcript is the latest exchange.
	if resp.Turns[0].Role != domain.RoleUser || resp.Turns[0].Content != "two" {
		t.Fatalf("unexpected tail: %+v", resp.Turns)
	}
}
