package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection so the foreign_keys PRAGMA applies to every statement.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		User{}.TableName():            "tg_bot_users",
		UserSettings{}.TableName():    "tg_bot_user_settings",
		Ticket{}.TableName():          "tg_bot_tickets",
		ValidationLog{}.TableName():   "tg_bot_validations",
		CommandLog{}.TableName():      "tg_bot_commands",
		BotStatusRecord{}.TableName(): "tg_bot_status",
		BannedUser{}.TableName():      "tg_bot_banned_users",
		ProcessedUpdate{}.TableName(): "tg_bot_processed_updates",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	models := []any{&User{}, &UserSettings{}, &Ticket{}, &ValidationLog{}, &CommandLog{}, &BotStatusRecord{}, &BannedUser{}, &ProcessedUpdate{}}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range models {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&User{}, "ux_users_telegram_id") {
		t.Fatalf("expected unique index ux_users_telegram_id")
	}
	if !m.HasIndex(&Ticket{}, "ux_tickets_ticket_id") {
		t.Fatalf("expected unique index ux_tickets_ticket_id")
	}

	now := time.Now().UTC()
	u := &User{TelegramID: 42, Username: "alice", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("expected auto-increment id")
	}

	// Unique external id.
	if err := db.Create(&User{TelegramID: 42}).Error; err == nil {
		t.Fatalf("expected unique violation on duplicate telegram_id")
	}

	// Settings keep an explicit false.
	s := &UserSettings{UserID: u.ID, Notifications: false, Analytics: true, Language: "en"}
	if err := db.Omit("User").Create(s).Error; err != nil {
		t.Fatalf("insert settings: %v", err)
	}
	var gotS UserSettings
	if err := db.First(&gotS, "user_id = ?", u.ID).Error; err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if gotS.Notifications || !gotS.Analytics {
		t.Fatalf("settings round-trip mismatch: %+v", gotS)
	}

	tk := &Ticket{TicketID: "TKT-1-ABC", UserID: u.ID, Subject: "s", Description: "d", Status: TicketOpen}
	if err := db.Omit("User").Create(tk).Error; err != nil {
		t.Fatalf("insert ticket: %v", err)
	}

	// CASCADE: deleting the user removes settings and tickets.
	if err := db.Delete(&User{}, u.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var cnt int64
	db.Model(&UserSettings{}).Where("user_id = ?", u.ID).Count(&cnt)
	if cnt != 0 {
		t.Fatalf("expected settings to cascade-delete, got %d", cnt)
	}
	db.Model(&Ticket{}).Where("user_id = ?", u.ID).Count(&cnt)
	if cnt != 0 {
		t.Fatalf("expected tickets to cascade-delete, got %d", cnt)
	}
}

func TestParseBotStatus(t *testing.T) {
	for _, in := range []string{"online", "OFFLINE", " Maintenance ", "restart"} {
		if _, ok := ParseBotStatus(in); !ok {
			t.Fatalf("ParseBotStatus(%q) should be accepted", in)
		}
	}
	if st, _ := ParseBotStatus("OFFLINE"); st != StatusOffline {
		t.Fatalf("want lowercased status, got %q", st)
	}
	if _, ok := ParseBotStatus("paused"); ok {
		t.Fatalf("unknown status must be rejected")
	}
}

func TestParseTicketStatus(t *testing.T) {
	if st, ok := ParseTicketStatus("Pending"); !ok || st != TicketPending {
		t.Fatalf("got %q %v", st, ok)
	}
	if _, ok := ParseTicketStatus("resolved"); ok {
		t.Fatalf("unknown status must be rejected")
	}
	if !TicketClosed.Terminal() || TicketOpen.Terminal() {
		t.Fatalf("only closed is terminal")
	}
}

func TestUser_DisplayName(t *testing.T) {
	cases := []struct {
		u    User
		want string
	}{
		{User{Username: "bob", FirstName: "Bob"}, "@bob"},
		{User{FirstName: "Ann", LastName: "Lee"}, "Ann Lee"},
		{User{FirstName: "Ann"}, "Ann"},
		{User{}, "user"},
	}
	for _, c := range cases {
		if got := c.u.DisplayName(); got != c.want {
			t.Fatalf("DisplayName(%+v) = %q; want %q", c.u, got, c.want)
		}
	}
}
