package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// BanUser records a ban. Banning an already banned user refreshes the
// reason and the actor.
func BanUser(ctx context.Context, db *gorm.DB, telegramID int64, reason string, by int64) error {
	rec := &domain.BannedUser{
		TelegramID: telegramID,
		Reason:     reason,
		BannedBy:   by,
		CreatedAt:  time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reason", "banned_by"}),
		}).
		Create(rec).Error
	return storageErr("ban_user", err)
}

// UnbanUser lifts a ban. Returns ErrNotFound when the user was not banned.
func UnbanUser(ctx context.Context, db *gorm.DB, telegramID int64) error {
	res := db.WithContext(ctx).Delete(&domain.BannedUser{}, "telegram_id = ?", telegramID)
	if res.Error != nil {
		return storageErr("unban_user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsBanned reports whether telegramID is banned.
func IsBanned(ctx context.Context, db *gorm.DB, telegramID int64) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.BannedUser{}).
		Where("telegram_id = ?", telegramID).
		Count(&n).Error
	if err != nil {
		return false, storageErr("is_banned", err)
	}
	return n > 0, nil
}
