package sysutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  WARNING ", zerolog.WarnLevel},
		{"warn", zerolog.WarnLevel},
		{"Error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"trace", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetLogLevel_ChangesGlobal(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	SetLogLevel("error")
	if zerolog.GlobalLevel() != zerolog.ErrorLevel {
		t.Fatalf("global level = %v", zerolog.GlobalLevel())
	}
	SetLogLevel("bogus")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("unknown level should select info, got %v", zerolog.GlobalLevel())
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"none", nil, ""},
		{"blank only", []string{" ", "\t"}, ""},
		{"issued email wins", []string{"ada@example.com", "other@example.com"}, "ada@example.com"},
		{"falls through to account email", []string{"  ", "ada@example.com"}, "ada@example.com"},
		{"keeps spacing", []string{"", " @ada "}, " @ada "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstNonEmpty(tt.in...); got != tt.want {
				t.Fatalf("FirstNonEmpty(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger_JSONAndGlobal(t *testing.T) {
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })

	var buf bytes.Buffer
	NewLogger(&buf, "licensechain-telegram-bot", false)
	log.Info().Int64("update_id", 7).Msg("update queued")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not JSON: %v (%q)", err, buf.String())
	}
	if line["service"] != "licensechain-telegram-bot" || line["message"] != "update queued" || line["update_id"] != float64(7) {
		t.Fatalf("line = %v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Fatal("missing timestamp")
	}
}

func TestNewLogger_Pretty(t *testing.T) {
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })

	var buf bytes.Buffer
	l := NewLogger(&buf, "bot", true)
	l.Warn().Msg("queue full")
	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") || !strings.Contains(out, "queue full") {
		t.Fatalf("expected console output, got %q", out)
	}
}
