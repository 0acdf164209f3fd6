package commands

import (
	"context"
	"strings"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/bot"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

func start(ctx context.Context, r *bot.Request, env *bot.Env) error {
	name := r.Update.From.FirstName
	if name == "" && r.User != nil {
		name = r.User.DisplayName()
	}
	kb := keyboard(
		telegram.Row(
			telegram.DataButton(r.T("buttons.validate", nil), "validate_license"),
			telegram.DataButton(r.T("buttons.analytics", nil), "show_analytics"),
		),
		telegram.Row(
			telegram.DataButton(r.T("buttons.profile", nil), "show_profile"),
			telegram.DataButton(r.T("buttons.settings", nil), "show_settings"),
		),
		telegram.Row(telegram.DataButton(r.T("buttons.help", nil), "show_help")),
	)
	return r.Reply(ctx, r.T("start.welcome", locale.Params{"name": esc(name)}), opts(kb))
}

func help(ctx context.Context, r *bot.Request, env *bot.Env) error {
	text := r.T("help.user", locale.Params{"version": env.Version})
	if r.IsAdmin() {
		text += "\n\n" + r.T("help.admin", nil)
	}
	kb := keyboard(telegram.Row(
		telegram.DataButton(r.T("buttons.validate", nil), "validate_license"),
		telegram.DataButton(r.T("buttons.tickets", nil), "list_tickets"),
	))
	return r.Respond(ctx, text, opts(kb))
}

// validatePrompt asks for a key, or validates the one attached to the button.
func validatePrompt(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if r.Arg(0) != "" {
		return validate(ctx, r, env)
	}
	return r.Reply(ctx, r.T("validate.prompt", nil), nil)
}

func analyticsPrompt(ctx context.Context, r *bot.Request, env *bot.Env) error {
	return r.Reply(ctx, r.T("analytics.usage", nil), nil)
}

// shortcut implements "/m <section>". Only "licenses" exists.
func shortcut(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if strings.EqualFold(r.Arg(0), "licenses") {
		return listLicenses(ctx, r.Redirect("list", r.Args[1:]...), env)
	}
	return r.Reply(ctx, r.T("m.usage", nil), nil)
}
