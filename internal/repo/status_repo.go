package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// GetBotStatus returns the authoritative bot status. A database that has
// never stored one reads as online.
func GetBotStatus(ctx context.Context, db *gorm.DB) (domain.BotStatusRecord, error) {
	var rec domain.BotStatusRecord
	res := db.WithContext(ctx).
		Where("id = ?", domain.BotStatusSingletonID).
		Limit(1).
		Find(&rec)
	if res.Error != nil {
		return domain.BotStatusRecord{Status: domain.StatusOnline}, storageErr("get_bot_status", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.BotStatusRecord{ID: domain.BotStatusSingletonID, Status: domain.StatusOnline}, nil
	}
	return rec, nil
}

// SetBotStatus replaces the current status in a single upsert on the
// constant singleton key, so concurrent writers never leave zero or two
// rows behind. The last writer wins.
func SetBotStatus(ctx context.Context, db *gorm.DB, status domain.BotStatus, actor int64) (domain.BotStatusRecord, error) {
	rec := domain.BotStatusRecord{
		ID:        domain.BotStatusSingletonID,
		Status:    status,
		SetBy:     actor,
		UpdatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "set_by", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return domain.BotStatusRecord{}, storageErr("set_bot_status", err)
	}
	return rec, nil
}
