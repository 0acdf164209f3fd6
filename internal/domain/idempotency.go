package domain

import "time"

// ProcessedUpdate records a Telegram update id that has already been
// dispatched. Telegram re-delivers webhook updates it considers unanswered,
// and this table lets the bot drop the repeats. Rows older than the
// configured TTL are pruned by the scheduler.
type ProcessedUpdate struct {
	UpdateID  int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime;index"`
}

// TableName implements the GORM tabler interface.
func (ProcessedUpdate) TableName() string { return "tg_bot_processed_updates" }
