package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

func TestTicketService_CreateAndView(t *testing.T) {
	store := newStore(t)
	mustUser(t, store, 1, "alice")
	mustUser(t, store, 2, "bob")
	s := NewTicketService(store)
	ctx := context.Background()

	tk, err := s.Create(ctx, 1, `"Login broken"`, "<b>cannot</b> sign in")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tk.Subject != "Login broken" || tk.Description != "cannot sign in" || tk.Status != domain.TicketOpen {
		t.Fatalf("unexpected ticket %+v", tk)
	}

	got, err := s.View(ctx, 1, strings.ToLower(tk.TicketID), false)
	if err != nil || got.TicketID != tk.TicketID {
		t.Fatalf("View own = %+v, %v", got, err)
	}
	if _, err := s.View(ctx, 2, tk.TicketID, false); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("View other err = %v; want ErrTicketNotFound", err)
	}
	if _, err := s.View(ctx, 2, tk.TicketID, true); err != nil {
		t.Fatalf("admin View: %v", err)
	}
	if _, err := s.View(ctx, 1, "not-a-ticket", false); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad id err = %v; want ErrValidation", err)
	}
}

func TestTicketService_CreateValidation(t *testing.T) {
	store := newStore(t)
	mustUser(t, store, 1, "alice")
	s := NewTicketService(store)

	if _, err := s.Create(context.Background(), 1, "  ", "desc"); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty subject err = %v", err)
	}
	if _, err := s.Create(context.Background(), 1, strings.Repeat("s", 300), "desc"); !errors.Is(err, ErrValidation) {
		t.Fatalf("long subject err = %v", err)
	}
	if _, err := s.Create(context.Background(), 99, "subject", "desc"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user err = %v; want ErrUserNotFound", err)
	}
}

func TestTicketService_CloseIsIdempotent(t *testing.T) {
	store := newStore(t)
	mustUser(t, store, 1, "alice")
	s := NewTicketService(store)
	ctx := context.Background()

	tk, err := s.Create(ctx, 1, "subject", "description")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	closed, already, err := s.Close(ctx, tk.TicketID)
	if err != nil || already || closed.Status != domain.TicketClosed {
		t.Fatalf("first Close = %+v, %v, %v", closed, already, err)
	}
	if closed.User.TelegramID != 1 {
		t.Fatalf("creator not loaded: %+v", closed.User)
	}
	_, already, err = s.Close(ctx, tk.TicketID)
	if err != nil || !already {
		t.Fatalf("second Close = %v, %v; want already closed", already, err)
	}
	if _, _, err := s.Close(ctx, "TKT-1-MISSING"); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestTicketService_SetStatus(t *testing.T) {
	store := newStore(t)
	mustUser(t, store, 1, "alice")
	s := NewTicketService(store)
	ctx := context.Background()
	tk, _ := s.Create(ctx, 1, "subject", "description")

	got, err := s.SetStatus(ctx, tk.TicketID, "PENDING")
	if err != nil || got.Status != domain.TicketPending {
		t.Fatalf("SetStatus = %+v, %v", got, err)
	}
	if _, err := s.SetStatus(ctx, tk.TicketID, "resolved"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad status err = %v", err)
	}
}

func TestTicketService_ListPaginates(t *testing.T) {
	store := newStore(t)
	mustUser(t, store, 1, "alice")
	mustUser(t, store, 2, "bob")
	s := NewTicketService(store)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		if _, err := s.Create(ctx, 1, "subject", "description"); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := s.Create(ctx, 2, "other", "description"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, page, err := s.List(ctx, 1, false, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || page.Total != 12 || page.Pages != 2 {
		t.Fatalf("page 2 = %d items, %+v", len(items), page)
	}
	_, page, _ = s.List(ctx, 1, true, 1)
	if page.Total != 13 {
		t.Fatalf("admin total = %d; want 13", page.Total)
	}
	items, _, _ = s.List(ctx, 3, false, 1)
	if len(items) != 0 {
		t.Fatalf("unknown user has %d tickets", len(items))
	}
}
