package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// MarkUpdateProcessed records updateID and reports whether this call was the
// first to do so. A false result means the update was already dispatched.
func MarkUpdateProcessed(ctx context.Context, db *gorm.DB, updateID int64) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.ProcessedUpdate{UpdateID: updateID, CreatedAt: time.Now().UTC()})
	if res.Error != nil {
		return false, storageErr("mark_update_processed", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// PruneProcessedUpdates deletes update ids recorded before cutoff and
// returns how many were removed.
func PruneProcessedUpdates(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("created_at < ?", cutoff.UTC()).
		Delete(&domain.ProcessedUpdate{})
	return res.RowsAffected, storageErr("prune_processed_updates", res.Error)
}
