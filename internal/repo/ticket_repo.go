package repo

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

const ticketSuffixLen = 9

var ticketIDPattern = regexp.MustCompile(`(?i)^TKT-\d+-[A-Z0-9]+$`)

// IsTicketID reports whether s looks like a ticket identifier.
func IsTicketID(s string) bool { return ticketIDPattern.MatchString(strings.TrimSpace(s)) }

// NormalizeTicketID uppercases and trims a user-typed ticket id.
func NormalizeTicketID(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// NewTicketID returns TKT-<unix millis>-<9 uppercase base36 chars>. The
// suffix comes from a random UUID, so ids created in the same millisecond
// still differ.
func NewTicketID(now time.Time) string {
	u := uuid.New()
	s := strings.ToUpper(new(big.Int).SetBytes(u[:]).Text(36))
	if len(s) < ticketSuffixLen {
		s = strings.Repeat("0", ticketSuffixLen-len(s)) + s
	}
	return fmt.Sprintf("TKT-%d-%s", now.UnixMilli(), s[len(s)-ticketSuffixLen:])
}

// CreateTicket opens a ticket owned by telegramID. A generated id that
// collides with an existing one is regenerated a few times before giving up.
// Returns ErrNotFound when the user does not exist.
func CreateTicket(ctx context.Context, db *gorm.DB, telegramID int64, subject, description string) (*domain.Ticket, error) {
	id, found, err := userID(ctx, db, telegramID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}

	for attempt := 0; attempt < 3; attempt++ {
		now := time.Now().UTC()
		t := &domain.Ticket{
			TicketID:    NewTicketID(now),
			UserID:      id,
			Subject:     subject,
			Description: description,
			Status:      domain.TicketOpen,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err = storageErr("create_ticket", db.WithContext(ctx).Omit(clause.Associations).Create(t).Error)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return nil, err
		}
	}
	return nil, err
}

// GetTicket fetches a ticket by its public id (case-insensitive), with the
// creator preloaded. Returns ErrNotFound if missing.
func GetTicket(ctx context.Context, db *gorm.DB, ticketID string) (*domain.Ticket, error) {
	var t domain.Ticket
	err := db.WithContext(ctx).
		Preload("User").
		Where("ticket_id = ?", NormalizeTicketID(ticketID)).
		First(&t).Error
	if err != nil {
		return nil, storageErr("get_ticket", err)
	}
	return &t, nil
}

// UpdateTicketStatus sets the status unconditionally. Writing the status a
// ticket already has succeeds, so closing twice is not an error. Returns
// ErrNotFound when no ticket has that id.
func UpdateTicketStatus(ctx context.Context, db *gorm.DB, ticketID string, status domain.TicketStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Ticket{}).
		Where("ticket_id = ?", NormalizeTicketID(ticketID)).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return storageErr("update_ticket_status", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTickets returns the tickets of one user, newest first. Unknown users
// have no tickets.
func GetTickets(ctx context.Context, db *gorm.DB, telegramID int64) ([]domain.Ticket, error) {
	id, found, err := userID(ctx, db, telegramID)
	if err != nil || !found {
		return nil, err
	}
	var out []domain.Ticket
	err = db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", id).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, storageErr("get_tickets", err)
}

// GetAllTickets returns every ticket, newest first.
func GetAllTickets(ctx context.Context, db *gorm.DB) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := db.WithContext(ctx).
		Preload("User").
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, storageErr("get_all_tickets", err)
}

// CountTicketsByStatus counts tickets in the given status.
func CountTicketsByStatus(ctx context.Context, db *gorm.DB, status domain.TicketStatus) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Ticket{}).Where("status = ?", status).Count(&n).Error
	return n, storageErr("count_tickets", err)
}
