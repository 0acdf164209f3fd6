// Package repo implements the persistence layer for the bot, backed by GORM
// over SQLite. This file contains database bootstrapping helpers and schema
// migrations.
package repo

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and its parent directory,
// applies PRAGMAs and installs the OpenTelemetry GORM plugin.
//
// busy_timeout and foreign_keys are passed through the DSN so that every
// pooled connection gets them, not just the first one.
func OpenSQLite(path string) (*gorm.DB, error) {
	// The default DB_PATH lives under data/, which a fresh checkout lacks.
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(withPragmas(path)), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
}

// AutoMigrate creates or updates every bot table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.UserSettings{},
		&domain.Ticket{},
		&domain.ValidationLog{},
		&domain.CommandLog{},
		&domain.BotStatusRecord{},
		&domain.BannedUser{},
		&domain.ProcessedUpdate{},
	)
}
