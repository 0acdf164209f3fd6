package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"/bot123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw0/getMe", "/bot[REDACTED:token]/getMe"},
		{"key=LC-ABC123-DEF456-GHI789", "key=[REDACTED:license]"},
		{"k=0123456789ABCDEF0123456789ABCDEF", "k=[REDACTED:license]"},
		{"mail=ada@example.com", "mail=[REDACTED:email]"},
	}
	for _, tt := range tests {
		if got := redact(tt.in); got != tt.want {
			t.Errorf("redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header(requestIDHeader, "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.POST("/webhook", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	req := httptest.NewRequest(http.MethodPost, "/webhook?license=LC-ABC123-DEF456-GHI789", strings.NewReader(`{}`))
	req.Header.Set(HeaderTelegramSecret, "s3cret")
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("X-Api-Key", "k")
	req.Header.Set("X-Note", "from ada@example.com")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry struct {
		Level     string            `json:"level"`
		RequestID string            `json:"request_id"`
		Path      string            `json:"path"`
		Query     string            `json:"query"`
		Status    int               `json:"status"`
		Headers   map[string]string `json:"headers"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log line: %v\n%s", err, buf.String())
	}
	if entry.Level != "info" || entry.RequestID != "rid-resp" || entry.Path != "/webhook" || entry.Status != 200 {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Query != "license=[REDACTED:license]" {
		t.Fatalf("query = %q", entry.Query)
	}
	for _, h := range []string{HeaderTelegramSecret, "Authorization", "X-Api-Key"} {
		if entry.Headers[h] != "[REDACTED]" {
			t.Fatalf("header %s = %q", h, entry.Headers[h])
		}
	}
	if entry.Headers["X-Note"] != "from [REDACTED:email]" {
		t.Fatalf("X-Note = %q", entry.Headers["X-Note"])
	}
	if strings.Contains(buf.String(), "s3cret") {
		t.Fatal("secret leaked into log")
	}
}

func TestRedactingLogger_LevelsAndUnmatchedPath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		path   string
		status int
		level  string
	}{
		{"warn on 4xx", "/bad", http.StatusBadRequest, "warn"},
		{"error on 5xx", "/down", http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogger(t)
			r := gin.New()
			r.Use(RedactingLogger(RedactOptions{}))
			r.GET(tt.path, func(c *gin.Context) { c.Status(tt.status) })

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(requestIDHeader, "rid-req")
			r.ServeHTTP(httptest.NewRecorder(), req)

			out := buf.String()
			if !strings.Contains(out, `"level":"`+tt.level+`"`) || !strings.Contains(out, `"request_id":"rid-req"`) {
				t.Fatalf("log = %s", out)
			}
		})
	}

	buf := captureLogger(t)
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/bot123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw0/x", nil))
	if strings.Contains(buf.String(), "AAHdqTcv") || !strings.Contains(buf.String(), "[REDACTED:token]") {
		t.Fatalf("unmatched path not redacted: %s", buf.String())
	}
}
