package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/bot"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/licenseapi"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/services"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/sysutil"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/utils"
)

// LicensesPerPage bounds one page of /list.
const LicensesPerPage = 10

// caller returns the stored user of r, or one built from the update.
func caller(r *bot.Request) domain.User {
	if r.User != nil {
		return *r.User
	}
	f := r.Update.From
	return domain.User{TelegramID: f.ID, Username: f.Username, FirstName: f.FirstName, LastName: f.LastName}
}

func validate(ctx context.Context, r *bot.Request, env *bot.Env) error {
	key := strings.TrimSpace(r.Arg(0))
	if key == "" {
		return r.Reply(ctx, r.T("validate.usage", nil), nil)
	}
	v, err := env.Licenses.Validate(ctx, r.UserID(), key)
	if err != nil {
		return err
	}

	if !v.Valid {
		msgKey := "validate.invalid"
		if v.Expired() {
			msgKey = "validate.expired"
		}
		text := r.T(msgKey, locale.Params{
			"key":     code(key),
			"message": esc(orDash(v.Message)),
			"expires": date(v.ExpiresAt),
		})
		kb := keyboard(telegram.Row(
			telegram.DataButton(r.T("buttons.try_again", nil), "validate_license"),
			telegram.DataButton(r.T("buttons.help", nil), "show_help"),
		))
		return r.Respond(ctx, text, opts(kb))
	}

	var b strings.Builder
	b.WriteString(r.T("validate.valid", locale.Params{
		"key":     code(key),
		"message": esc(orDash(v.Message)),
		"expires": date(v.ExpiresAt),
	}))
	if v.Plan != "" {
		b.WriteString("\n" + r.T("license.plan_line", locale.Params{"plan": esc(v.Plan)}))
	}
	if len(v.Features) > 0 {
		b.WriteString("\n" + r.T("validate.features", locale.Params{"features": esc(strings.Join(v.Features, ", "))}))
	}
	if v.Usage != nil {
		b.WriteString("\n\n" + r.T("validate.usage_stats", locale.Params{
			"total": v.Usage.TotalValidations,
			"last":  date(v.Usage.LastValidated),
		}))
	}
	kb := keyboard(
		telegram.Row(
			telegram.DataButton(r.T("buttons.details", nil), "license_info_"+key),
			telegram.DataButton(r.T("buttons.analytics", nil), "license_analytics_"+key),
		),
		telegram.Row(telegram.DataButton(r.T("buttons.validate_again", nil), "validate_license")),
	)
	return r.Respond(ctx, b.String(), opts(kb))
}

func info(ctx context.Context, r *bot.Request, env *bot.Env) error {
	key := strings.TrimSpace(r.Arg(0))
	if key == "" {
		return r.Reply(ctx, r.T("license.info_usage", nil), nil)
	}
	v, err := env.Licenses.Lookup(ctx, key)
	if err != nil {
		return err
	}
	status := v.Status
	if status == "" {
		status = "INVALID"
		if v.Valid {
			status = "ACTIVE"
		}
	}
	text := r.T("license.details", locale.Params{
		"key":       code(key),
		"id":        esc(orDash(v.LicenseRef(""))),
		"status":    esc(status),
		"plan":      esc(orDash(v.Plan)),
		"issued_to": esc(orDash(v.IssuedTo)),
		"email":     esc(orDash(sysutil.FirstNonEmpty(v.IssuedEmail, v.Email))),
		"expires":   date(v.ExpiresAt),
		"created":   date(v.CreatedAt),
	})
	rows := [][]telegram.Button{telegram.Row(
		telegram.DataButton(r.T("buttons.analytics", nil), "license_analytics_"+key),
		telegram.DataButton(r.T("buttons.validate_again", nil), "validate_license:"+key),
	)}
	if r.IsAdmin() {
		rows = append(rows, telegram.Row(telegram.DataButton(r.T("buttons.extend", nil), "extend_license_"+key)))
	}
	return r.Respond(ctx, text, opts(keyboard(rows...)))
}

func analytics(ctx context.Context, r *bot.Request, env *bot.Env) error {
	key := strings.TrimSpace(r.Arg(0))
	if key == "" {
		return r.Reply(ctx, r.T("analytics.usage", nil), nil)
	}
	a, err := env.Licenses.Analytics(ctx, key, r.Arg(1))
	if err != nil {
		return err
	}
	period := a.Period
	if period == "" {
		period = strings.ToLower(r.Arg(1))
		if period == "" {
			period = "30d"
		}
	}
	text := r.T("analytics.report", locale.Params{
		"key":         code(key),
		"period":      esc(period),
		"validations": a.TotalValidations,
		"devices":     a.UniqueDevices,
		"last":        date(a.LastValidated),
	})
	kb := keyboard(telegram.Row(
		telegram.DataButton(r.T("buttons.details", nil), "license_info_"+key),
	))
	return r.Respond(ctx, text, opts(kb))
}

func listLicenses(ctx context.Context, r *bot.Request, env *bot.Env) error {
	all, err := env.Licenses.ListFor(ctx, caller(r), r.IsAdmin())
	if err != nil {
		return err
	}
	refresh := telegram.Row(
		telegram.DataButton(r.T("buttons.refresh", nil), "list_licenses"),
		telegram.DataButton(r.T("buttons.analytics", nil), "show_analytics"),
	)
	if len(all) == 0 {
		return r.Respond(ctx, r.T("licenses.empty", nil), opts(keyboard(refresh)))
	}

	p := utils.Paginate(len(all), utils.AtoiDefault(r.Arg(0), 1), LicensesPerPage)
	var b strings.Builder
	b.WriteString(r.T("licenses.title", locale.Params{"count": p.Total, "page": p.Number, "pages": p.Pages}))
	for _, l := range utils.Slice(all, p) {
		b.WriteString("\n" + r.T("licenses.item", locale.Params{
			"key":     code(l.KeyValue()),
			"plan":    esc(orDash(l.Plan)),
			"status":  esc(orDash(l.Status)),
			"expires": date(l.ExpiresAt),
		}))
	}
	return r.Respond(ctx, b.String(), opts(keyboard(pager(r, p, "list_licenses"), refresh)))
}

// pager builds the previous/next row for a paginated listing.
func pager(r *bot.Request, p utils.Page, action string) []telegram.Button {
	var row []telegram.Button
	if p.HasPrev() {
		row = append(row, telegram.DataButton(r.T("buttons.prev", nil), bot.CallbackData(action, strconv.Itoa(p.Number-1))))
	}
	if p.HasNext() {
		row = append(row, telegram.DataButton(r.T("buttons.next", nil), bot.CallbackData(action, strconv.Itoa(p.Number+1))))
	}
	return row
}

func createPrompt(ctx context.Context, r *bot.Request, env *bot.Env) error {
	return r.Reply(ctx, r.T("license.create_usage", locale.Params{"plans": strings.Join(services.Plans, ", ")}), nil)
}

func createLicense(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if len(r.Args) < 3 {
		return createPrompt(ctx, r, env)
	}
	lic, err := env.Licenses.Create(ctx, services.CreateInput{
		Identifier: r.Arg(0),
		Plan:       r.Arg(1),
		Expiry:     r.Arg(2),
		CreatedBy:  r.UserID(),
	})
	if err != nil {
		return err
	}
	env.Log.Info().Int64("admin_id", r.UserID()).Str("license_id", lic.ID).Str("plan", lic.Plan).Msg("license created")
	key := lic.KeyValue()
	text := r.T("license.created", locale.Params{
		"key":       code(orDash(key)),
		"plan":      esc(lic.Plan),
		"issued_to": esc(orDash(sysutil.FirstNonEmpty(lic.IssuedTo, lic.IssuedEmail))),
		"expires":   date(lic.ExpiresAt),
	})
	var kb *telegram.Keyboard
	if key != "" {
		kb = keyboard(telegram.Row(telegram.DataButton(r.T("buttons.details", nil), "license_info_"+key)))
	}
	return r.Reply(ctx, text, opts(kb))
}

func revokeLicense(ctx context.Context, r *bot.Request, env *bot.Env) error {
	key := r.Arg(0)
	if key == "" {
		return r.Reply(ctx, r.T("license.revoke_usage", nil), nil)
	}
	reason := r.Rest(1)
	if err := env.Licenses.Revoke(ctx, key, reason); err != nil {
		return err
	}
	env.Log.Info().Int64("admin_id", r.UserID()).Str("license", utils.MaskKey(key)).Str("reason", reason).Msg("license revoked")
	return r.Reply(ctx, r.T("license.revoked", locale.Params{"key": code(key), "reason": esc(orDash(reason))}), nil)
}

func extendPrompt(ctx context.Context, r *bot.Request, env *bot.Env) error {
	return r.Reply(ctx, r.T("license.extend_prompt", locale.Params{"key": code(r.Arg(0))}), nil)
}

func extendLicense(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if len(r.Args) < 2 {
		return r.Reply(ctx, r.T("license.extend_usage", nil), nil)
	}
	key := r.Arg(0)
	next, err := env.Licenses.Extend(ctx, key, r.Arg(1))
	if err != nil {
		return err
	}
	text := r.T("license.extended", locale.Params{
		"key":     code(key),
		"days":    r.Arg(1),
		"expires": date(&next),
	})
	kb := keyboard(telegram.Row(telegram.DataButton(r.T("buttons.extend_again", nil), "extend_license_"+key)))
	return r.Reply(ctx, text, opts(kb))
}

func updateLicense(ctx context.Context, r *bot.Request, env *bot.Env) error {
	if len(r.Args) < 3 {
		return r.Reply(ctx, r.T("update.usage", locale.Params{"fields": strings.Join(services.UpdateFields, ", ")}), nil)
	}
	key, field, value := r.Arg(0), r.Arg(1), r.Rest(2)
	lic, err := env.Licenses.UpdateField(ctx, key, field, value)
	if err != nil {
		return err
	}
	env.Log.Info().Int64("admin_id", r.UserID()).Str("license", utils.MaskKey(key)).Str("field", field).Msg("license updated")
	return r.Reply(ctx, r.T("license.updated", locale.Params{
		"key":    code(key),
		"field":  esc(strings.ToLower(field)),
		"value":  esc(value),
		"status": esc(orDash(licenseStatus(lic))),
	}), nil)
}

func licenseStatus(l *licenseapi.License) string {
	if l == nil {
		return ""
	}
	return l.Status
}

// formatStats renders license API counters for admin views.
func formatStats(r *bot.Request, s *licenseapi.Stats) string {
	if s == nil {
		return r.T("stats.api_unavailable", nil)
	}
	return r.T("stats.api", locale.Params{
		"total":   s.Total,
		"active":  s.Active,
		"expired": s.Expired,
		"revoked": s.Revoked,
	})
}
