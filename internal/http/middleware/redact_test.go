package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestRedactingLogger_MasksSessionToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Session-Token", "super-secret-token")
	req.Header.Set("Authorization", "Bearer abc")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, "super-secret-token") || strings.Contains(out, "Bearer abc") {
		t.Fatalf("credential leaked to logs: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("expected masked headers in log output: %s", out)
	}
}

func TestRedactingLogger_ScrubsQueryPII(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ok?email=someone@example.com", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if strings.Contains(out, "someone@example.com") {
		t.Fatalf("email leaked to logs: %s", out)
	}
	if !strings.Contains(out, "[REDACTED:email]") {
		t.Fatalf("expected redacted email marker: %s", out)
	}
}

func TestRedactingLogger_MasksCustomHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Api-Key", "k-123456")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if strings.Contains(buf.String(), "k-123456") {
		t.Fatalf("custom header leaked: %s", buf.String())
	}
}
