package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// SettingsPatch lists the settings to change. Nil fields are left untouched,
// both on insert (where they take their defaults) and on update.
type SettingsPatch struct {
	Notifications *bool
	Analytics     *bool
	Language      *string
}

// DefaultSettings returns the settings a user has before changing anything.
func DefaultSettings(userID int64, lang string) domain.UserSettings {
	return domain.UserSettings{
		UserID:        userID,
		Notifications: true,
		Analytics:     true,
		Language:      lang,
	}
}

// GetUserSettings returns the stored settings for telegramID, or the
// defaults when either the user or the settings row is missing.
func GetUserSettings(ctx context.Context, db *gorm.DB, telegramID int64, defaultLang string) (domain.UserSettings, error) {
	id, found, err := userID(ctx, db, telegramID)
	if err != nil {
		return DefaultSettings(0, defaultLang), err
	}
	if !found {
		return DefaultSettings(0, defaultLang), nil
	}

	var s domain.UserSettings
	res := db.WithContext(ctx).Where("user_id = ?", id).Limit(1).Find(&s)
	if res.Error != nil {
		return DefaultSettings(id, defaultLang), storageErr("get_user_settings", res.Error)
	}
	if res.RowsAffected == 0 {
		return DefaultSettings(id, defaultLang), nil
	}
	return s, nil
}

// UpdateUserSettings inserts the settings row if absent, otherwise patches
// only the columns named in patch. Both paths are one statement
// (INSERT ... ON CONFLICT(user_id) DO UPDATE SET <patched columns>), so a
// concurrent update of another field is never overwritten with a stale
// value. Returns ErrNotFound when the user does not exist.
func UpdateUserSettings(ctx context.Context, db *gorm.DB, telegramID int64, patch SettingsPatch, defaultLang string) (domain.UserSettings, error) {
	id, found, err := userID(ctx, db, telegramID)
	if err != nil {
		return domain.UserSettings{}, err
	}
	if !found {
		return domain.UserSettings{}, ErrNotFound
	}

	row := DefaultSettings(id, defaultLang)
	row.UpdatedAt = time.Now().UTC()
	cols := []string{"updated_at"}
	if patch.Notifications != nil {
		row.Notifications = *patch.Notifications
		cols = append(cols, "notifications")
	}
	if patch.Analytics != nil {
		row.Analytics = *patch.Analytics
		cols = append(cols, "analytics")
	}
	if patch.Language != nil {
		row.Language = *patch.Language
		cols = append(cols, "language")
	}

	err = db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(&row).Error
	if err != nil {
		return domain.UserSettings{}, storageErr("update_user_settings", err)
	}
	return GetUserSettings(ctx, db, telegramID, defaultLang)
}
