package repo

import (
	"context"
	"errors"
	"testing"
)

func TestGetUserSettings_DefaultsForUnknownAndNewUsers(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	s, err := GetUserSettings(ctx, db, 77, "en")
	if err != nil {
		t.Fatalf("unknown user: %v", err)
	}
	if !s.Notifications || !s.Analytics || s.Language != "en" {
		t.Fatalf("expected defaults, got %+v", s)
	}

	u, _ := GetOrCreateUser(ctx, db, Profile{TelegramID: 77})
	s, err = GetUserSettings(ctx, db, 77, "de")
	if err != nil {
		t.Fatalf("known user without row: %v", err)
	}
	if s.UserID != u.ID || !s.Notifications || !s.Analytics || s.Language != "de" {
		t.Fatalf("expected defaults bound to user, got %+v", s)
	}
}

func TestUpdateUserSettings_PartialPatchDoesNotClobber(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	if _, err := GetOrCreateUser(ctx, db, Profile{TelegramID: 5}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	off := false
	s, err := UpdateUserSettings(ctx, db, 5, SettingsPatch{Notifications: &off}, "en")
	if err != nil {
		t.Fatalf("first patch (insert path): %v", err)
	}
	if s.Notifications || !s.Analytics || s.Language != "en" {
		t.Fatalf("insert path: %+v", s)
	}

	lang := "fr"
	s, err = UpdateUserSettings(ctx, db, 5, SettingsPatch{Language: &lang}, "en")
	if err != nil {
		t.Fatalf("second patch (update path): %v", err)
	}
	if s.Notifications || !s.Analytics || s.Language != "fr" {
		t.Fatalf("language patch clobbered other fields: %+v", s)
	}

	s, err = UpdateUserSettings(ctx, db, 5, SettingsPatch{Analytics: &off}, "en")
	if err != nil {
		t.Fatalf("third patch: %v", err)
	}
	if s.Notifications || s.Analytics || s.Language != "fr" {
		t.Fatalf("analytics patch clobbered other fields: %+v", s)
	}
}

func TestUpdateUserSettings_UnknownUser(t *testing.T) {
	db := newRepoDB(t)
	on := true
	if _, err := UpdateUserSettings(context.Background(), db, 404, SettingsPatch{Analytics: &on}, "en"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
