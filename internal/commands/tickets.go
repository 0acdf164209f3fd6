package commands

import (
	"context"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/bot"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/utils"
)

func ticketPrompt(ctx context.Context, r *bot.Request, env *bot.Env) error {
	return r.Reply(ctx, r.T("ticket.usage", nil), nil)
}

// ticket creates a ticket from "<subject> <description>" or shows one when
// the first argument is a ticket id.
func ticket(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if len(r.Args) == 0 {
		return ticketPrompt(ctx, r, env)
	}
	if repo.IsTicketID(r.Arg(0)) {
		t, err := env.Tickets.View(ctx, r.UserID(), r.Arg(0), r.IsAdmin())
		if err != nil {
			return err
		}
		return renderTicket(ctx, r, t)
	}

	subject, description := splitQuoted(r.RawArgs)
	t, err := env.Tickets.Create(ctx, r.UserID(), subject, description)
	if err != nil {
		return err
	}
	env.Log.Info().Int64("user_id", r.UserID()).Str("ticket_id", t.TicketID).Msg("ticket created")
	kb := keyboard(telegram.Row(telegram.DataButton(r.T("buttons.tickets", nil), "list_tickets")))
	return r.Reply(ctx, r.T("ticket.created", locale.Params{
		"id":      code(t.TicketID),
		"subject": esc(t.Subject),
	}), opts(kb))
}

func renderTicket(ctx context.Context, r *bot.Request, t *domain.Ticket) error {
	text := r.T("ticket.view", locale.Params{
		"id":          code(t.TicketID),
		"subject":     esc(t.Subject),
		"description": esc(t.Description),
		"status":      string(t.Status),
		"user":        esc(t.User.DisplayName()),
		"created":     date(&t.CreatedAt),
		"updated":     date(&t.UpdatedAt),
	})
	row := telegram.Row(telegram.DataButton(r.T("buttons.tickets", nil), "list_tickets"))
	if r.IsAdmin() && !t.Status.Terminal() {
		row = append(row, telegram.DataButton(r.T("buttons.close_ticket", nil), "close_ticket_"+t.TicketID))
	}
	return r.Respond(ctx, text, opts(keyboard(row)))
}

func tickets(ctx context.Context, r *bot.Request, env *bot.Env) error {
	list, p, err := env.Tickets.List(ctx, r.UserID(), r.IsAdmin(), utils.AtoiDefault(r.Arg(0), 1))
	if err != nil {
		return err
	}
	actions := telegram.Row(
		telegram.DataButton(r.T("buttons.refresh", nil), "list_tickets"),
		telegram.DataButton(r.T("buttons.new_ticket", nil), "create_ticket"),
	)
	if p.Total == 0 {
		return r.Respond(ctx, r.T("tickets.empty", nil), opts(keyboard(actions)))
	}
	text := r.T("tickets.title", locale.Params{"count": p.Total, "page": p.Number, "pages": p.Pages})
	for _, t := range list {
		text += "\n" + r.T("tickets.item", locale.Params{
			"id":      code(t.TicketID),
			"subject": esc(utils.Truncate(t.Subject, 40)),
			"status":  string(t.Status),
			"created": date(&t.CreatedAt),
		})
	}
	return r.Respond(ctx, text, opts(keyboard(pager(r, p, "list_tickets"), actions)))
}

// closeTicket closes a ticket and tells its creator.
func closeTicket(ctx context.Context, r *bot.Request, env *bot.Env) error {
	id := r.Arg(0)
	if id == "" {
		return r.Reply(ctx, r.T("ticket.close_usage", nil), nil)
	}
	t, already, err := env.Tickets.Close(ctx, id)
	if err != nil {
		return err
	}
	if already {
		return r.Respond(ctx, r.T("ticket.already_closed", locale.Params{"id": code(t.TicketID)}), nil)
	}
	env.Log.Info().Int64("admin_id", r.UserID()).Str("ticket_id", t.TicketID).Msg("ticket closed")
	notifyCreator(ctx, r, env, t)
	return r.Respond(ctx, r.T("ticket.closed", locale.Params{"id": code(t.TicketID)}), nil)
}

// notifyCreator messages the ticket creator in their own language. The
// private chat with a user has the user's id.
func notifyCreator(ctx context.Context, r *bot.Request, env *bot.Env, t *domain.Ticket) {
	to := t.User.TelegramID
	if to == 0 || to == r.UserID() {
		return
	}
	lang := env.Locale.UserLanguage(ctx, to)
	text := env.Locale.T("ticket.closed_notice", lang, locale.Params{
		"id":      code(t.TicketID),
		"subject": esc(t.Subject),
	})
	if _, err := env.Messenger.Send(ctx, to, text, nil); err != nil {
		env.Log.Warn().Err(err).Int64("user_id", to).Str("ticket_id", t.TicketID).Msg("ticket close notice failed")
	}
}

func updateTicket(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if len(r.Args) < 2 {
		return r.Reply(ctx, r.T("update.usage_ticket", nil), nil)
	}
	t, err := env.Tickets.SetStatus(ctx, r.Arg(0), r.Arg(1))
	if err != nil {
		return err
	}
	if t.Status.Terminal() {
		notifyCreator(ctx, r, env, t)
	}
	return r.Reply(ctx, r.T("ticket.status_updated", locale.Params{"id": code(t.TicketID), "status": string(t.Status)}), nil)
}

// update edits a ticket status when the first argument is a ticket id and
// a license field otherwise.
func update(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if repo.IsTicketID(r.Arg(0)) {
		return updateTicket(ctx, r, env)
	}
	return updateLicense(ctx, r, env)
}
