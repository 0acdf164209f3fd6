package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/bot"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/services"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/utils"
)

const (
	defaultListLimit = 10
	maxListLimit     = 50
)

func uptime(env *bot.Env) string {
	if env.StartedAt.IsZero() {
		return "-"
	}
	return time.Since(env.StartedAt).Truncate(time.Second).String()
}

func statsText(ctx context.Context, r *bot.Request, env *bot.Env) (string, error) {
	s, err := env.Store.GetBotStats(ctx)
	if err != nil {
		return "", err
	}
	text := r.T("stats.bot", locale.Params{
		"users":       s.TotalUsers,
		"licenses":    s.TotalLicenses,
		"commands":    s.TotalCommands,
		"validations": s.TotalValidations,
		"tickets":     s.OpenTickets,
	})
	api, err := env.Licenses.Stats(ctx)
	if err != nil {
		env.Log.Warn().Err(err).Msg("license stats unavailable")
		return text + "\n\n" + formatStats(r, nil), nil
	}
	return text + "\n\n" + formatStats(r, api), nil
}

func stats(ctx context.Context, r *bot.Request, env *bot.Env) error {
	text, err := statsText(ctx, r, env)
	if err != nil {
		return err
	}
	kb := keyboard(telegram.Row(telegram.DataButton(r.T("buttons.refresh", nil), bot.CallbackData("admin", "stats"))))
	return r.Respond(ctx, text, opts(kb))
}

// status reports the gate state, the license API health and the uptime. It
// keeps working while the bot is offline.
func status(ctx context.Context, r *bot.Request, env *bot.Env) error {
	api := r.T("status.api_down", nil)
	if h, err := env.Licenses.Health(ctx); err == nil {
		api = r.T("status.api_up", locale.Params{"status": esc(orDash(h.Status))})
	} else {
		env.Log.Warn().Err(err).Msg("license api health check failed")
	}
	return r.Reply(ctx, r.T("status.view", locale.Params{
		"status":  string(env.Gate.Current()),
		"mode":    env.Mode,
		"version": env.Version,
		"uptime":  uptime(env),
		"api":     api,
	}), nil)
}

func setStatus(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if r.Arg(0) == "" {
		return r.Reply(ctx, r.T("status.usage", locale.Params{"statuses": statusList()}), nil)
	}
	rec, err := env.Status.Set(ctx, r.Arg(0), r.UserID())
	if err != nil {
		return err
	}
	env.Log.Info().Int64("admin_id", r.UserID()).Str("status", string(rec.Status)).Msg("bot status changed")
	return r.Reply(ctx, r.T("status.updated", locale.Params{"status": string(rec.Status)}), nil)
}

func statusList() string {
	names := make([]string, len(domain.BotStatuses))
	for i, s := range domain.BotStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func adminPanel(ctx context.Context, r *bot.Request, env *bot.Env) error {
	section := func(label, name string) telegram.Button {
		return telegram.DataButton(r.T(label, nil), bot.CallbackData("admin", name))
	}
	kb := keyboard(
		telegram.Row(section("admin.btn_stats", "stats"), section("admin.btn_users", "users")),
		telegram.Row(section("admin.btn_licenses", "licenses"), section("admin.btn_settings", "settings")),
		telegram.Row(section("admin.btn_system", "system"), section("admin.btn_logs", "logs")),
	)
	return r.Respond(ctx, r.T("admin.panel", nil), opts(kb))
}

// adminSection handles admin:<section>.
func adminSection(ctx context.Context, r *bot.Request, env *bot.Env) error {
	switch r.Arg(0) {
	case "stats":
		return stats(ctx, r, env)
	case "users":
		return recentUsers(ctx, r, env)
	case "licenses":
		return listLicenses(ctx, r.Redirect("list_licenses"), env)
	case "settings":
		return r.Respond(ctx, r.T("admin.settings", locale.Params{
			"owner":     env.Perms.Owner(),
			"admins":    env.Perms.AdminCount(),
			"language":  env.Locale.Default(),
			"languages": strings.Join(env.Locale.Supported(), ", "),
			"mode":      env.Mode,
			"status":    string(env.Gate.Current()),
		}), nil)
	case "system":
		return performance(ctx, r, env)
	case "logs":
		return logs(ctx, r.Redirect("logs"), env)
	default:
		return r.Reply(ctx, r.T("errors.unknown_action", nil), nil)
	}
}

func recentUsers(ctx context.Context, r *bot.Request, env *bot.Env) error {
	users, err := env.Store.RecentUsers(ctx, defaultListLimit)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return r.Respond(ctx, r.T("admin.no_users", nil), nil)
	}
	var b strings.Builder
	b.WriteString(r.T("admin.users_title", locale.Params{"count": len(users)}))
	for _, u := range users {
		b.WriteString("\n" + r.T("admin.user_item", locale.Params{
			"id":     u.TelegramID,
			"name":   esc(u.DisplayName()),
			"joined": date(&u.CreatedAt),
		}))
	}
	return r.Respond(ctx, b.String(), nil)
}

func performance(ctx context.Context, r *bot.Request, env *bot.Env) error {
	h := env.Host.Collect()
	return r.Respond(ctx, r.T("system.view", locale.Params{
		"goroutines": h.Goroutines,
		"heap":       fmt.Sprintf("%.1f", h.HeapAllocMB),
		"cpu":        fmt.Sprintf("%.1f", h.CPUPercent),
		"mem_pct":    fmt.Sprintf("%.1f", h.MemoryPercent),
		"mem_used":   fmt.Sprintf("%.0f", h.MemoryUsedMB),
		"mem_total":  fmt.Sprintf("%.0f", h.MemoryTotalMB),
		"go":         h.GoVersion,
		"uptime":     uptime(env),
	}), nil)
}

// logs lists the most recent commands, newest first.
func logs(ctx context.Context, r *bot.Request, env *bot.Env) error {
	limit := utils.AtoiDefault(r.Arg(0), defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	entries, err := env.Store.RecentCommands(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return r.Respond(ctx, r.T("logs.empty", nil), nil)
	}
	var b strings.Builder
	b.WriteString(r.T("logs.title", locale.Params{"count": len(entries)}))
	for _, e := range entries {
		who := fmt.Sprint(e.TelegramID)
		if e.Username != "" {
			who = "@" + e.Username
		}
		b.WriteString("\n" + r.T("logs.item", locale.Params{
			"time":    e.CreatedAt.UTC().Format("01-02 15:04"),
			"user":    esc(who),
			"command": esc(e.Command),
		}))
	}
	return r.Respond(ctx, b.String(), nil)
}

func ban(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if r.Arg(0) == "" {
		return r.Reply(ctx, r.T("ban.usage", nil), nil)
	}
	id, err := services.ParseUserID(r.Arg(0))
	if err != nil {
		return err
	}
	reason := r.Rest(1)
	if err := env.Users.Ban(ctx, id, reason, r.UserID()); err != nil {
		return err
	}
	env.Log.Info().Int64("admin_id", r.UserID()).Int64("target_id", id).Msg("user banned")
	return r.Reply(ctx, r.T("ban.done", locale.Params{"id": id, "reason": esc(orDash(reason))}), nil)
}

func unban(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if r.Arg(0) == "" {
		return r.Reply(ctx, r.T("ban.unban_usage", nil), nil)
	}
	id, err := services.ParseUserID(r.Arg(0))
	if err != nil {
		return err
	}
	if err := env.Users.Unban(ctx, id); err != nil {
		return err
	}
	env.Log.Info().Int64("admin_id", r.UserID()).Int64("target_id", id).Msg("user unbanned")
	return r.Reply(ctx, r.T("ban.lifted", locale.Params{"id": id}), nil)
}
