// Package services – TicketService
//
// TicketService validates ticket input, hides other users' tickets from
// non-admins and keeps close idempotent. Status writes are unconditional
// and last-writer-wins.
package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/utils"
)

// TicketRepo is the persistence contract TicketService needs.
type TicketRepo interface {
	CreateTicket(ctx context.Context, telegramID int64, subject, description string) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	UpdateTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error
	GetTickets(ctx context.Context, telegramID int64) ([]domain.Ticket, error)
	GetAllTickets(ctx context.Context) ([]domain.Ticket, error)
}

const (
	MaxSubjectLen  = 255
	TicketsPerPage = 10
)

// TicketService coordinates ticket persistence.
type TicketService struct {
	Repo TicketRepo
}

// NewTicketService returns a TicketService over r.
func NewTicketService(r TicketRepo) *TicketService { return &TicketService{Repo: r} }

// Create opens a ticket for telegramID. Subject and description are
// sanitized; both must be non-empty after that.
func (s *TicketService) Create(ctx context.Context, telegramID int64, subject, description string) (*domain.Ticket, error) {
	ctx, span := otel.Tracer("services/TicketService").Start(ctx, "Create",
		trace.WithAttributes(attribute.Int64("user.id", telegramID)))
	defer span.End()

	subject = utils.Sanitize(utils.StripQuotes(subject))
	description = utils.Sanitize(utils.StripQuotes(description))
	if subject == "" || description == "" {
		return nil, invalid("ticket", "ticket.usage", nil)
	}
	if utf8.RuneCountInString(subject) > MaxSubjectLen {
		return nil, invalid("subject", "errors.subject_too_long", map[string]any{"max": MaxSubjectLen})
	}
	t, err := s.Repo.CreateTicket(ctx, telegramID, subject, description)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return t, err
}

func (s *TicketService) get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if !repo.IsTicketID(ticketID) {
		return nil, invalid("ticket_id", "errors.invalid_ticket_id", nil)
	}
	t, err := s.Repo.GetTicket(ctx, repo.NormalizeTicketID(ticketID))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// View returns ticketID when telegramID created it or admin is set.
// Tickets of other users look missing.
func (s *TicketService) View(ctx context.Context, telegramID int64, ticketID string, admin bool) (*domain.Ticket, error) {
	ctx, span := otel.Tracer("services/TicketService").Start(ctx, "View",
		trace.WithAttributes(attribute.String("ticket.id", ticketID)))
	defer span.End()

	t, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !admin && t.User.TelegramID != telegramID {
		return nil, ErrTicketNotFound
	}
	return t, nil
}

// List returns one page of tickets, newest first: the caller's own, or every
// ticket for admins.
func (s *TicketService) List(ctx context.Context, telegramID int64, admin bool, page int) ([]domain.Ticket, utils.Page, error) {
	var (
		all []domain.Ticket
		err error
	)
	if admin {
		all, err = s.Repo.GetAllTickets(ctx)
	} else {
		all, err = s.Repo.GetTickets(ctx, telegramID)
	}
	if err != nil {
		return nil, utils.Page{}, err
	}
	p := utils.Paginate(len(all), page, TicketsPerPage)
	return utils.Slice(all, p), p, nil
}

// SetStatus writes status unconditionally and returns the updated ticket.
func (s *TicketService) SetStatus(ctx context.Context, ticketID, status string) (*domain.Ticket, error) {
	ctx, span := otel.Tracer("services/TicketService").Start(ctx, "SetStatus",
		trace.WithAttributes(attribute.String("ticket.id", ticketID), attribute.String("ticket.status", status)))
	defer span.End()

	st, ok := domain.ParseTicketStatus(status)
	if !ok {
		return nil, invalid("status", "errors.invalid_ticket_status", nil)
	}
	t, err := s.get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateTicketStatus(ctx, t.TicketID, st); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	t.Status = st
	return t, nil
}

// Close closes ticketID. Closing a closed ticket succeeds with
// alreadyClosed set and writes nothing.
func (s *TicketService) Close(ctx context.Context, ticketID string) (t *domain.Ticket, alreadyClosed bool, err error) {
	t, err = s.get(ctx, ticketID)
	if err != nil {
		return nil, false, err
	}
	if t.Status.Terminal() {
		return t, true, nil
	}
	t, err = s.SetStatus(ctx, t.TicketID, string(domain.TicketClosed))
	return t, false, err
}
