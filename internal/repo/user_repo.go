// Package repo implements the persistence layer for the bot, backed by GORM.
// This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Functions:
//
//   - GetOrCreateUser(ctx, db, profile) -> *domain.User, error
//     Insert-on-conflict upsert keyed by Telegram id; concurrent first
//     contact leaves exactly one row.
//
//   - GetUser(ctx, db, telegramID) -> *domain.User, error
//     ErrNotFound when the user never talked to the bot.
//
//   - UpdateUserProfile(ctx, db, telegramID, patch) -> *domain.User, error
//     Applies only the non-nil fields of patch.
//
//   - RecentUsers(ctx, db, limit) / CountUsers(ctx, db)
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// Profile is the identity of a Telegram account as seen on an update.
type Profile struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// ProfilePatch lists the profile fields to change. Nil fields are left as is.
type ProfilePatch struct {
	Username  *string
	FirstName *string
	LastName  *string
	Email     *string
}

func (p ProfilePatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Username != nil {
		cols["username"] = *p.Username
	}
	if p.FirstName != nil {
		cols["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		cols["last_name"] = *p.LastName
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	return cols
}

// GetOrCreateUser returns the user for p.TelegramID, inserting it first when
// missing. The insert uses ON CONFLICT DO NOTHING, so two racing first
// contacts both end up reading the single surviving row. Existing rows are
// not refreshed from p.
func GetOrCreateUser(ctx context.Context, db *gorm.DB, p Profile) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		TelegramID: p.TelegramID,
		Username:   p.Username,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}},
			DoNothing: true,
		}).
		Create(u).Error
	if err != nil {
		return nil, storageErr("get_or_create_user", err)
	}
	return GetUser(ctx, db, p.TelegramID)
}

// GetUser fetches a user by Telegram id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, telegramID int64) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		First(&u).Error
	if err != nil {
		return nil, storageErr("get_user", err)
	}
	return &u, nil
}

// userID resolves a Telegram id to the internal id. found is false (with a
// nil error) when no user row exists.
func userID(ctx context.Context, db *gorm.DB, telegramID int64) (id int64, found bool, err error) {
	var row struct{ ID int64 }
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("id").
		Where("telegram_id = ?", telegramID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return 0, false, storageErr("resolve_user", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	return row.ID, true, nil
}

// UpdateUserProfile patches the profile of an existing user and returns the
// updated row. It returns ErrNotFound when the user does not exist.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, telegramID int64, patch ProfilePatch) (*domain.User, error) {
	cols := patch.columns()
	if len(cols) == 0 {
		return GetUser(ctx, db, telegramID)
	}
	cols["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("telegram_id = ?", telegramID).
		Updates(cols)
	if res.Error != nil {
		return nil, storageErr("update_user_profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetUser(ctx, db, telegramID)
}

// RecentUsers returns the most recently created users, newest first.
func RecentUsers(ctx context.Context, db *gorm.DB, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&out).Error
	return out, storageErr("recent_users", err)
}

// CountUsers returns the number of known users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, storageErr("count_users", err)
}
