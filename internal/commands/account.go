package commands

import (
	"context"
	"strings"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/bot"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/permissions"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/services"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

func onOff(r *bot.Request, on bool) string {
	if on {
		return r.T("settings.enabled", nil)
	}
	return r.T("settings.disabled", nil)
}

func flag(on bool) string {
	if on {
		return "0"
	}
	return "1"
}

func settings(ctx context.Context, r *bot.Request, env *bot.Env) error {
	s, err := env.Settings.Get(ctx, r.UserID())
	if err != nil {
		return err
	}
	return renderSettings(ctx, r, env, s)
}

func renderSettings(ctx context.Context, r *bot.Request, env *bot.Env, s domain.UserSettings) error {
	text := r.T("settings.title", locale.Params{
		"notifications": onOff(r, s.Notifications),
		"analytics":     onOff(r, s.Analytics),
		"language":      env.Locale.LanguageName(s.Language),
	})
	notif, anal := "settings.notifications_off", "settings.analytics_off"
	if s.Notifications {
		notif = "settings.notifications_on"
	}
	if s.Analytics {
		anal = "settings.analytics_on"
	}
	kb := keyboard(
		telegram.Row(telegram.DataButton(r.T(notif, nil),
			bot.CallbackData("toggle_setting", services.SettingNotifications, flag(s.Notifications)))),
		telegram.Row(telegram.DataButton(r.T(anal, nil),
			bot.CallbackData("toggle_setting", services.SettingAnalytics, flag(s.Analytics)))),
		telegram.Row(telegram.DataButton(r.T("buttons.language", nil), "change_language")),
		telegram.Row(telegram.DataButton(r.T("buttons.refresh", nil), "show_settings")),
	)
	return r.Respond(ctx, text, opts(kb))
}

// toggleSetting handles toggle_setting:<name>:<0|1>.
func toggleSetting(ctx context.Context, r *bot.Request, env *bot.Env) error {
	s, err := env.Settings.Toggle(ctx, r.UserID(), r.Arg(0), r.Arg(1) == "1")
	if err != nil {
		return err
	}
	return renderSettings(ctx, r, env, s)
}

func languagePicker(ctx context.Context, r *bot.Request, env *bot.Env) error {
	var rows [][]telegram.Button
	var row []telegram.Button
	for _, code := range env.Locale.Supported() {
		row = append(row, telegram.DataButton(env.Locale.LanguageName(code), bot.CallbackData("set_language", code)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	rows = append(rows, row, telegram.Row(telegram.DataButton(r.T("buttons.back", nil), "show_settings")))
	return r.Respond(ctx, r.T("settings.choose_language", nil), opts(keyboard(rows...)))
}

func setLanguage(ctx context.Context, r *bot.Request, env *bot.Env) error {
	s, err := env.Settings.SetLanguage(ctx, r.UserID(), r.Arg(0))
	if err != nil {
		return err
	}
	r.Lang = s.Language
	kb := keyboard(telegram.Row(telegram.DataButton(r.T("buttons.back", nil), "show_settings")))
	return r.Respond(ctx, r.T("settings.language_changed", locale.Params{"name": env.Locale.LanguageName(s.Language)}), opts(kb))
}

func renderProfile(r *bot.Request, env *bot.Env, p *services.Profile, key string) string {
	u := p.User
	name := locale.Title(p.Settings.Language, strings.TrimSpace(u.FirstName+" "+u.LastName))
	params := locale.Params{
		"id":          u.TelegramID,
		"username":    esc(orDash(u.Username)),
		"name":        esc(orDash(name)),
		"email":       esc(orDash(u.Email)),
		"role":        p.Role.String(),
		"language":    env.Locale.LanguageName(p.Settings.Language),
		"validations": p.Validations,
		"tickets":     p.Tickets,
		"open":        p.OpenTickets,
		"joined":      date(&u.CreatedAt),
		"banned":      onOff(r, p.Banned),
	}
	return r.T(key, params)
}

func profile(ctx context.Context, r *bot.Request, env *bot.Env) error {
	p, err := env.Users.Profile(ctx, r.UserID())
	if err != nil {
		return err
	}
	kb := keyboard(
		telegram.Row(
			telegram.DataButton(r.T("buttons.edit_username", nil), bot.CallbackData("edit_profile", "username")),
			telegram.DataButton(r.T("buttons.edit_name", nil), bot.CallbackData("edit_profile", "name")),
		),
		telegram.Row(
			telegram.DataButton(r.T("buttons.edit_email", nil), bot.CallbackData("edit_profile", "email")),
			telegram.DataButton(r.T("buttons.settings", nil), "show_settings"),
		),
	)
	return r.Respond(ctx, renderProfile(r, env, p, "profile.view"), opts(kb))
}

func updateProfile(ctx context.Context, r *bot.Request, env *bot.Env) error {
	field, value := r.Arg(0), r.Rest(1)
	if field == "" || strings.TrimSpace(value) == "" {
		return r.Reply(ctx, r.T("profile.update_usage", locale.Params{"fields": strings.Join(services.ProfileFields, ", ")}), nil)
	}
	if _, err := env.Users.UpdateProfile(ctx, r.UserID(), field, value); err != nil {
		return err
	}
	return r.Reply(ctx, r.T("profile.updated", locale.Params{"field": esc(strings.ToLower(field))}), nil)
}

// editProfilePrompt handles edit_profile[:<field>].
func editProfilePrompt(ctx context.Context, r *bot.Request, env *bot.Env) error {
	field := strings.ToLower(r.Arg(0))
	for _, f := range services.ProfileFields {
		if f == field {
			return r.Reply(ctx, r.T("profile.edit_prompt", locale.Params{"field": field}), nil)
		}
	}
	return r.Reply(ctx, r.T("profile.update_usage", locale.Params{"fields": strings.Join(services.ProfileFields, ", ")}), nil)
}

// userInfo shows a profile by Telegram id. Only admins may look up others.
func userInfo(ctx context.Context, r *bot.Request, env *bot.Env) error {
	target := r.UserID()
	if raw := r.Arg(0); raw != "" {
		id, err := services.ParseUserID(raw)
		if err != nil {
			return err
		}
		target = id
	}
	if target != r.UserID() && !r.IsAdmin() {
		return &permissions.PermissionDenied{Actual: r.Role, Required: permissions.RoleAdmin}
	}
	p, err := env.Users.Profile(ctx, target)
	if err != nil {
		return err
	}
	key := "user.view"
	if r.IsAdmin() {
		key = "user.view_admin"
	}
	return r.Reply(ctx, renderProfile(r, env, p, key), nil)
}

func usage(ctx context.Context, r *bot.Request, env *bot.Env) error {
	u, err := env.Users.Usage(ctx, r.UserID(), r.Arg(0))
	if err != nil {
		return err
	}
	period := u.Period
	if period == "all" {
		period = r.T("usage.all_time", nil)
	}
	return r.Reply(ctx, r.T("usage.report", locale.Params{
		"period":      period,
		"validations": u.Validations,
		"total":       u.Total,
	}), nil)
}
