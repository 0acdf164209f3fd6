// Package commands holds the handlers behind every chat command and button
// callback. Handlers are plain functions over *bot.Request and *bot.Env;
// Register wires them into a dispatcher with their role requirements.
package commands

import (
	"strings"
	"time"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/bot"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/utils"
)

// Register adds every command and callback action to d.
func Register(d *bot.Dispatcher) {
	h := func(f bot.HandlerFunc) bot.Handler { return f }
	admin := func(f bot.HandlerFunc) bot.Handler { return bot.AdminOnly(f) }

	// Everyone.
	d.Command("start", h(start))
	d.Command("help", h(help))
	d.Command("validate", h(validate))
	d.Command("info", h(info), "license")
	d.Command("analytics", h(analytics))
	d.Command("list", h(listLicenses), "licenses")
	d.Command("m", h(shortcut))
	d.Command("settings", h(settings))
	d.Command("profile", h(profile))
	d.Command("updateprofile", h(updateProfile))
	d.Command("user", h(userInfo))
	d.Command("usage", h(usage))
	d.Command("ticket", h(ticket))
	d.Command("tickets", h(tickets))

	// Admin.
	d.Command("create", admin(createLicense))
	d.Command("revoke", admin(revokeLicense))
	d.Command("extend", admin(extendLicense))
	d.Command("update", admin(update))
	d.Command("close", admin(closeTicket))
	d.Command("stats", admin(stats))
	d.Command("status", admin(status))
	d.Command("setstatus", admin(setStatus))
	d.Command("admin", admin(adminPanel))
	d.Command("ban", admin(ban))
	d.Command("unban", admin(unban))
	d.Command("performance", admin(performance))
	d.Command("logs", admin(logs))

	d.Callback("validate_license", h(validatePrompt))
	d.Callback("create_license", admin(createPrompt))
	d.Callback("list_licenses", h(listLicenses))
	d.Callback("show_help", h(help))
	d.Callback("show_settings", h(settings))
	d.Callback("show_profile", h(profile))
	d.Callback("show_analytics", h(analyticsPrompt))
	d.Callback("toggle_setting", h(toggleSetting))
	d.Callback("change_language", h(languagePicker))
	d.Callback("set_language", h(setLanguage))
	d.Callback("edit_profile", h(editProfilePrompt))
	d.Callback("create_ticket", h(ticketPrompt))
	d.Callback("list_tickets", h(tickets))
	d.Callback("close_ticket", admin(closeTicket))
	d.Callback("license_info", h(info))
	d.Callback("license_analytics", h(analytics))
	d.Callback("extend_license", admin(extendPrompt))
	d.Callback("admin", admin(adminSection))
}

// keyboard builds rows from buttons, skipping buttons whose data is too long
// and rows that end up empty.
func keyboard(rows ...[]telegram.Button) *telegram.Keyboard {
	kb := &telegram.Keyboard{}
	for _, row := range rows {
		var kept []telegram.Button
		for _, b := range row {
			if b.URL != "" || telegram.FitsCallback(b.Data) {
				kept = append(kept, b)
			}
		}
		if len(kept) > 0 {
			kb.Rows = append(kb.Rows, kept)
		}
	}
	if len(kb.Rows) == 0 {
		return nil
	}
	return kb
}

func opts(kb *telegram.Keyboard) *telegram.SendOptions {
	if kb == nil {
		return nil
	}
	return telegram.WithKeyboard(kb)
}

// esc prepares user-supplied text for a Markdown reply.
func esc(s string) string { return utils.EscapeMarkdown(utils.Sanitize(s)) }

// code wraps s in a Markdown code span.
func code(s string) string { return "`" + strings.ReplaceAll(s, "`", "'") + "`" }

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// splitQuoted returns the first argument of raw, honouring double quotes,
// and the rest of the line.
func splitQuoted(raw string) (first, rest string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if raw[0] == '"' {
		if end := strings.IndexByte(raw[1:], '"'); end >= 0 {
			return raw[1 : end+1], strings.TrimSpace(raw[end+2:])
		}
	}
	first, rest, _ = strings.Cut(raw, " ")
	return first, strings.TrimSpace(rest)
}
