// Package repo implements the persistence layer for the bot. This file
// provides the small aggregate read used by dashboards, the /stats endpoint
// and the daily scheduler job.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// BotStats is a snapshot of bot-wide counters.
//
// Fields:
//   - TotalUsers:       users that ever talked to the bot
//   - TotalLicenses:    distinct license keys seen in validation attempts
//   - TotalCommands:    logged command executions
//   - TotalValidations: validation attempts
//   - OpenTickets:      tickets not yet closed
type BotStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalLicenses    int64 `json:"total_licenses"`
	TotalCommands    int64 `json:"total_commands"`
	TotalValidations int64 `json:"total_validations"`
	OpenTickets      int64 `json:"open_tickets"`
}

// GetBotStats runs a handful of independent COUNT queries. In WAL mode these
// reads never block writers. Open tickets are the open and pending ones.
func GetBotStats(ctx context.Context, db *gorm.DB) (BotStats, error) {
	var (
		s   BotStats
		err error
	)
	q := db.WithContext(ctx)

	if s.TotalUsers, err = CountUsers(ctx, db); err != nil {
		return BotStats{}, err
	}
	if err := q.Model(&domain.ValidationLog{}).Distinct("license_key").Count(&s.TotalLicenses).Error; err != nil {
		return BotStats{}, storageErr("bot_stats_licenses", err)
	}
	if s.TotalCommands, err = CountCommands(ctx, db, nil); err != nil {
		return BotStats{}, err
	}
	if err := q.Model(&domain.ValidationLog{}).Count(&s.TotalValidations).Error; err != nil {
		return BotStats{}, storageErr("bot_stats_validations", err)
	}
	for _, st := range []domain.TicketStatus{domain.TicketOpen, domain.TicketPending} {
		n, err := CountTicketsByStatus(ctx, db, st)
		if err != nil {
			return BotStats{}, err
		}
		s.OpenTickets += n
	}
	return s, nil
}
