// Package domain defines the persistence models for bot users, their
// settings, support tickets, validation and command logs, and the bot's
// operating status. These types are mapped with GORM and form the core data
// layer of the bot.
package domain

import (
	"time"
)

// User represents one Telegram account known to the bot. Rows are created on
// first interaction and are never deleted.
//
// Fields:
//   - ID: internal auto-increment primary key, owned by the persistence layer.
//   - TelegramID: external platform id; unique and immutable.
//   - Username / FirstName / LastName: display fields, changed only by
//     profile updates.
//   - Email: optional address recorded by /updateprofile; used to match
//     licenses issued by email.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID         int64     `json:"id"          gorm:"primaryKey;autoIncrement"`
	TelegramID int64     `json:"telegram_id" gorm:"not null;uniqueIndex:ux_users_telegram_id"`
	Username   string    `json:"username"    gorm:"type:varchar(64)"`
	FirstName  string    `json:"first_name"  gorm:"type:varchar(128)"`
	LastName   string    `json:"last_name"   gorm:"type:varchar(128)"`
	Email      string    `json:"email"       gorm:"type:varchar(255)"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "tg_bot_users" }

// DisplayName returns the best human-readable label for the user.
func (u User) DisplayName() string {
	switch {
	case u.Username != "":
		return "@" + u.Username
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return "user"
	}
}

// UserSettings holds per-user preferences. UserID is the primary key, so a
// user can never have more than one settings row. Defaults are applied in
// code (see repo.DefaultSettings) rather than as column defaults, so that an
// explicit false survives an insert.
type UserSettings struct {
	UserID        int64     `json:"user_id"       gorm:"primaryKey;autoIncrement:false"`
	Notifications bool      `json:"notifications" gorm:"not null"`
	Analytics     bool      `json:"analytics"     gorm:"not null"`
	Language      string    `json:"language"      gorm:"type:varchar(16);not null"`
	UpdatedAt     time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for UserSettings.
func (UserSettings) TableName() string { return "tg_bot_user_settings" }

// Ticket is a support request raised by a user.
//
// Fields:
//   - ID: internal primary key.
//   - TicketID: human-typeable identifier (TKT-<millis>-<suffix>), unique.
//   - UserID: internal id of the creator.
//   - Subject / Description: free text supplied by the creator.
//   - Status: open, pending or closed.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Ticket struct {
	ID          int64        `json:"-"           gorm:"primaryKey;autoIncrement"`
	TicketID    string       `json:"ticket_id"   gorm:"type:varchar(40);not null;uniqueIndex:ux_tickets_ticket_id"`
	UserID      int64        `json:"user_id"     gorm:"not null;index:idx_tickets_user"`
	Subject     string       `json:"subject"     gorm:"type:varchar(255);not null"`
	Description string       `json:"description" gorm:"type:text;not null"`
	Status      TicketStatus `json:"status"      gorm:"type:varchar(16);not null;index"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Ticket.
func (Ticket) TableName() string { return "tg_bot_tickets" }

// ValidationLog is an append-only record of one license validation attempt.
type ValidationLog struct {
	ID         int64     `json:"id"          gorm:"primaryKey;autoIncrement"`
	UserID     int64     `json:"user_id"     gorm:"not null;index:idx_validations_user"`
	LicenseKey string    `json:"license_key" gorm:"type:varchar(128);not null"`
	Valid      bool      `json:"valid"       gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_validations_created"`
}

// TableName returns the database table name for ValidationLog.
func (ValidationLog) TableName() string { return "tg_bot_validations" }

// CommandLog is an append-only record of one executed command.
type CommandLog struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"user_id"    gorm:"not null;index"`
	Command   string    `json:"command"    gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for CommandLog.
func (CommandLog) TableName() string { return "tg_bot_commands" }

// BotStatusSingletonID is the fixed primary key of the only BotStatus row.
const BotStatusSingletonID = 1

// BotStatusRecord stores the authoritative operating status of the bot.
// There is exactly one row, keyed by BotStatusSingletonID.
type BotStatusRecord struct {
	ID        int       `json:"-"          gorm:"primaryKey;autoIncrement:false"`
	Status    BotStatus `json:"status"     gorm:"type:varchar(16);not null"`
	SetBy     int64     `json:"set_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for BotStatusRecord.
func (BotStatusRecord) TableName() string { return "tg_bot_status" }

// BannedUser marks a Telegram account that may no longer use the bot.
type BannedUser struct {
	TelegramID int64     `json:"telegram_id" gorm:"primaryKey;autoIncrement:false"`
	Reason     string    `json:"reason"      gorm:"type:varchar(255)"`
	BannedBy   int64     `json:"banned_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for BannedUser.
func (BannedUser) TableName() string { return "tg_bot_banned_users" }
