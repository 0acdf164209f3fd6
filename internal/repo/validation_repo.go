package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// LogValidation appends a validation attempt for telegramID. Returns
// ErrNotFound when the user does not exist.
func LogValidation(ctx context.Context, db *gorm.DB, telegramID int64, licenseKey string, valid bool) error {
	id, found, err := userID(ctx, db, telegramID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	rec := &domain.ValidationLog{
		UserID:     id,
		LicenseKey: licenseKey,
		Valid:      valid,
		CreatedAt:  time.Now().UTC(),
	}
	return storageErr("log_validation", db.WithContext(ctx).Create(rec).Error)
}

// ValidationCount counts validation attempts, optionally restricted to one
// user (by Telegram id) and to attempts at or after since. An unknown user
// has zero validations.
func ValidationCount(ctx context.Context, db *gorm.DB, telegramID *int64, since *time.Time) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.ValidationLog{})
	if telegramID != nil {
		id, found, err := userID(ctx, db, *telegramID)
		if err != nil || !found {
			return 0, err
		}
		q = q.Where("user_id = ?", id)
	}
	if since != nil {
		q = q.Where("created_at >= ?", since.UTC())
	}
	var n int64
	err := q.Count(&n).Error
	return n, storageErr("validation_count", err)
}
