package services

import (
	"context"
	"errors"
	"testing"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

type fakeLanguages map[string]bool

func (f fakeLanguages) IsSupported(code string) bool { return f[code] }

func TestSettingsService_ToggleKeepsOtherFields(t *testing.T) {
	store := newStore(t)
	mustUser(t, store, 1, "alice")
	s := NewSettingsService(store, fakeLanguages{"en": true, "de": true})
	ctx := context.Background()

	if _, err := s.SetLanguage(ctx, 1, "de"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	got, err := s.Toggle(ctx, 1, "notifications", false)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	want := domain.UserSettings{Notifications: false, Analytics: true, Language: "de"}
	if got.Notifications != want.Notifications || got.Analytics != want.Analytics || got.Language != want.Language {
		t.Fatalf("settings = %+v; want %+v", got, want)
	}
}

func TestSettingsService_Errors(t *testing.T) {
	store := newStore(t)
	mustUser(t, store, 1, "alice")
	s := NewSettingsService(store, fakeLanguages{"en": true})
	ctx := context.Background()

	if _, err := s.Toggle(ctx, 1, "darkmode", true); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown setting err = %v", err)
	}
	if _, err := s.SetLanguage(ctx, 1, "xx"); !errors.Is(err, ErrValidation) {
		t.Fatalf("unsupported language err = %v", err)
	}
	if _, err := s.Toggle(ctx, 404, "analytics", true); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestSettingsService_LanguageRegionStripped(t *testing.T) {
	store := newStore(t)
	mustUser(t, store, 1, "alice")
	s := NewSettingsService(store, fakeLanguages{"en": true, "pt": true})

	got, err := s.SetLanguage(context.Background(), 1, "pt-BR")
	if err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	if got.Language != "pt" {
		t.Fatalf("language = %q; want pt", got.Language)
	}
}
