package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// CommandActivity is one command log row joined with its user.
type CommandActivity struct {
	Command    string
	TelegramID int64
	Username   string
	CreatedAt  time.Time
}

// LogCommand appends a usage record for telegramID. Returns ErrNotFound when
// the user does not exist.
func LogCommand(ctx context.Context, db *gorm.DB, telegramID int64, command string) error {
	id, found, err := userID(ctx, db, telegramID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	rec := &domain.CommandLog{UserID: id, Command: command, CreatedAt: time.Now().UTC()}
	return storageErr("log_command", db.WithContext(ctx).Create(rec).Error)
}

// CountCommands counts logged commands, optionally since a point in time.
func CountCommands(ctx context.Context, db *gorm.DB, since *time.Time) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.CommandLog{})
	if since != nil {
		q = q.Where("created_at >= ?", since.UTC())
	}
	var n int64
	err := q.Count(&n).Error
	return n, storageErr("count_commands", err)
}

// RecentCommands returns the latest command log rows, newest first.
func RecentCommands(ctx context.Context, db *gorm.DB, limit int) ([]CommandActivity, error) {
	var out []CommandActivity
	err := db.WithContext(ctx).
		Table(domain.CommandLog{}.TableName() + " AS c").
		Select("c.command AS command, u.telegram_id AS telegram_id, u.username AS username, c.created_at AS created_at").
		Joins("JOIN " + domain.User{}.TableName() + " AS u ON u.id = c.user_id").
		Order("c.created_at desc, c.id desc").
		Limit(limit).
		Scan(&out).Error
	return out, storageErr("recent_commands", err)
}
