package services

import (
	"context"
	"errors"
	"strings"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
)

// SettingsRepo is the persistence contract SettingsService needs.
type SettingsRepo interface {
	GetUserSettings(ctx context.Context, telegramID int64) (domain.UserSettings, error)
	UpdateUserSettings(ctx context.Context, telegramID int64, patch repo.SettingsPatch) (domain.UserSettings, error)
}

// Languages reports which language codes have a dictionary.
type Languages interface {
	IsSupported(code string) bool
}

// Toggle names accepted by Toggle.
const (
	SettingNotifications = "notifications"
	SettingAnalytics     = "analytics"
)

// SettingsService applies settings changes one field at a time so that a
// toggle never overwrites a concurrent language change.
type SettingsService struct {
	Repo      SettingsRepo
	Languages Languages
}

// NewSettingsService returns a SettingsService.
func NewSettingsService(r SettingsRepo, langs Languages) *SettingsService {
	return &SettingsService{Repo: r, Languages: langs}
}

// Get returns the stored settings, or the defaults.
func (s *SettingsService) Get(ctx context.Context, telegramID int64) (domain.UserSettings, error) {
	return s.Repo.GetUserSettings(ctx, telegramID)
}

// Toggle sets one boolean setting.
func (s *SettingsService) Toggle(ctx context.Context, telegramID int64, name string, on bool) (domain.UserSettings, error) {
	var patch repo.SettingsPatch
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SettingNotifications:
		patch.Notifications = &on
	case SettingAnalytics:
		patch.Analytics = &on
	default:
		return domain.UserSettings{}, invalid("setting", "errors.invalid_setting", nil)
	}
	return s.update(ctx, telegramID, patch)
}

// SetLanguage stores the base language of code ("pt-BR" is stored as "pt")
// when a dictionary for it ships with the bot.
func (s *SettingsService) SetLanguage(ctx context.Context, telegramID int64, code string) (domain.UserSettings, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	code, _, _ = strings.Cut(strings.ReplaceAll(code, "_", "-"), "-")
	if code == "" || (s.Languages != nil && !s.Languages.IsSupported(code)) {
		return domain.UserSettings{}, invalid("language", "errors.unsupported_language", map[string]any{"code": code})
	}
	return s.update(ctx, telegramID, repo.SettingsPatch{Language: &code})
}

func (s *SettingsService) update(ctx context.Context, telegramID int64, patch repo.SettingsPatch) (domain.UserSettings, error) {
	out, err := s.Repo.UpdateUserSettings(ctx, telegramID, patch)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.UserSettings{}, ErrUserNotFound
	}
	return out, err
}
