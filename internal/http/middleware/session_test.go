package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rifath/chatbot-backend/internal/auth"
	"github.com/rifath/chatbot-backend/internal/chat"
)

func sessionRouter(t *testing.T) (*gin.Engine, *chat.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mgr := chat.NewManager(chat.ManagerOptions{
		Gate:   auth.NewGate([]string{"rifath"}),
		Logger: zerolog.Nop(),
	})
	s, err := mgr.Login("rifath")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	r := gin.New()
	r.Use(RequestID(), RequireSession(mgr.Lookup))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("userID")+"/"+c.GetString("sessionID"))
	})
	return r, s
}

func TestRequireSession_MissingToken(t *testing.T) {
	r, _ := sessionRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestRequireSession_UnknownToken(t *testing.T) {
	r, _ := sessionRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderSessionToken, "nope")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireSession_ValidToken_SetsContext(t *testing.T) {
	r, s := sessionRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderSessionToken, s.Token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if want := "rifath/" + s.Token; w.Body.String() != want {
		t.Fatalf("expected %q, got %q", want, w.Body.String())
	}
}

func TestSessionFrom_NilWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if s := SessionFrom(c); s != nil {
		t.Fatalf("expected nil session, got %+v", s)
	}
}
