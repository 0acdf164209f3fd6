package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

func TestOpenSQLite_CreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "bot.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Exec("CREATE TABLE scratch (id INTEGER)").Error; err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestOpenSQLite_ParentIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if db, err := OpenSQLite(filepath.Join(blocker, "bot.db")); err == nil || db != nil {
		t.Fatalf("expected error, got db=%v err=%v", db, err)
	}
}

func TestOpenSQLite_PragmasAndPool(t *testing.T) {
	db := newRepoDB(t)

	pragmas := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	}
	for _, p := range pragmas {
		var got string
		if err := db.Raw("PRAGMA " + p.name).Row().Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", p.name, err)
		}
		if strings.ToLower(got) != p.want {
			t.Errorf("PRAGMA %s = %q, want %q", p.name, got, p.want)
		}
	}

	sqlDB, _ := db.DB()
	if n := sqlDB.Stats().MaxOpenConnections; n != 10 {
		t.Fatalf("MaxOpenConnections = %d", n)
	}
}

func TestAutoMigrate_BotTables(t *testing.T) {
	db := newRepoDB(t)

	for _, table := range []string{
		"tg_bot_users", "tg_bot_user_settings", "tg_bot_tickets", "tg_bot_validations",
		"tg_bot_commands", "tg_bot_status", "tg_bot_banned_users", "tg_bot_processed_updates",
	} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("missing table %s", table)
		}
	}
	// Running twice is how every restart behaves.
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}
}

func TestAutoMigrate_TicketForeignKey(t *testing.T) {
	db := newRepoDB(t)

	u := &domain.User{TelegramID: 7, Username: "ada"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	ok := &domain.Ticket{TicketID: "TKT-1-AAAAAAAAA", UserID: u.ID, Subject: "s", Description: "d", Status: domain.TicketOpen}
	if err := db.Omit("User").Create(ok).Error; err != nil {
		t.Fatalf("insert ticket: %v", err)
	}
	orphan := &domain.Ticket{TicketID: "TKT-2-BBBBBBBBB", UserID: 9999, Subject: "s", Description: "d", Status: domain.TicketOpen}
	if err := db.Omit("User").Create(orphan).Error; err == nil {
		t.Fatal("orphan ticket accepted; foreign_keys must be on for every connection")
	}
}

func TestWithPragmas(t *testing.T) {
	tests := []struct{ in, prefix string }{
		{"bot.db", "bot.db?_pragma=busy_timeout(5000)"},
		{"file:bot?mode=memory", "file:bot?mode=memory&_pragma=busy_timeout(5000)"},
	}
	for _, tt := range tests {
		got := withPragmas(tt.in)
		if !strings.HasPrefix(got, tt.prefix) || !strings.HasSuffix(got, "_pragma=synchronous(NORMAL)") {
			t.Errorf("withPragmas(%q) = %q", tt.in, got)
		}
	}
}
