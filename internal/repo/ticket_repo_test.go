package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

func TestNewTicketID_FormatAndUniqueness(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := NewTicketID(now)
		if !strings.HasPrefix(id, "TKT-1700000000123-") {
			t.Fatalf("unexpected prefix: %q", id)
		}
		if suffix := id[strings.LastIndex(id, "-")+1:]; len(suffix) != 9 || strings.ToUpper(suffix) != suffix {
			t.Fatalf("unexpected suffix: %q", id)
		}
		if !IsTicketID(id) {
			t.Fatalf("generated id does not match pattern: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id within one millisecond: %q", id)
		}
		seen[id] = true
	}
}

func TestIsTicketID(t *testing.T) {
	for _, ok := range []string{"TKT-1-A", "tkt-123-abc9", " TKT-9-Z "} {
		if !IsTicketID(ok) {
			t.Fatalf("%q should be a ticket id", ok)
		}
	}
	for _, bad := range []string{"TKT-", "TKT-x-ABC", "ticket", "TKT-1-"} {
		if IsTicketID(bad) {
			t.Fatalf("%q should not be a ticket id", bad)
		}
	}
}

func TestCreateTicket_ThenGetTicket(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	if _, err := GetOrCreateUser(ctx, db, Profile{TelegramID: 10, Username: "bob"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tk, err := CreateTicket(ctx, db, 10, "Login", "Cannot log in")
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	got, err := GetTicket(ctx, db, strings.ToLower(tk.TicketID))
	if err != nil {
		t.Fatalf("GetTicket: %v", err)
	}
	if got.Subject != "Login" || got.Description != "Cannot log in" || got.Status != domain.TicketOpen {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if got.User.TelegramID != 10 {
		t.Fatalf("expected creator preloaded, got %+v", got.User)
	}
}

func TestCreateTicket_UnknownUser(t *testing.T) {
	db := newRepoDB(t)
	if _, err := CreateTicket(context.Background(), db, 1, "s", "d"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTicketStatus_CloseTwiceIsNoop(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	GetOrCreateUser(ctx, db, Profile{TelegramID: 10})
	tk, err := CreateTicket(ctx, db, 10, "s", "d")
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := UpdateTicketStatus(ctx, db, tk.TicketID, domain.TicketClosed); err != nil {
			t.Fatalf("close #%d: %v", i+1, err)
		}
	}
	got, _ := GetTicket(ctx, db, tk.TicketID)
	if got.Status != domain.TicketClosed {
		t.Fatalf("expected closed, got %q", got.Status)
	}

	if err := UpdateTicketStatus(ctx, db, "TKT-1-NOPE", domain.TicketClosed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing ticket, got %v", err)
	}
}

func TestGetTickets_FiltersByOwner(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	GetOrCreateUser(ctx, db, Profile{TelegramID: 1})
	GetOrCreateUser(ctx, db, Profile{TelegramID: 2})
	CreateTicket(ctx, db, 1, "a", "a")
	CreateTicket(ctx, db, 1, "b", "b")
	CreateTicket(ctx, db, 2, "c", "c")

	mine, err := GetTickets(ctx, db, 1)
	if err != nil || len(mine) != 2 {
		t.Fatalf("GetTickets(1) = %d, %v", len(mine), err)
	}
	if mine[0].Subject != "b" {
		t.Fatalf("expected newest first, got %q", mine[0].Subject)
	}
	none, err := GetTickets(ctx, db, 99)
	if err != nil || len(none) != 0 {
		t.Fatalf("unknown user should have no tickets: %v %v", none, err)
	}
	all, err := GetAllTickets(ctx, db)
	if err != nil || len(all) != 3 {
		t.Fatalf("GetAllTickets = %d, %v", len(all), err)
	}
	open, err := CountTicketsByStatus(ctx, db, domain.TicketOpen)
	if err != nil || open != 3 {
		t.Fatalf("CountTicketsByStatus = %d, %v", open, err)
	}
}
