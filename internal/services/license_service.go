package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/licenseapi"
)

// LicenseAPI is the part of the remote license client the service uses.
type LicenseAPI interface {
	Validate(ctx context.Context, key string) (*licenseapi.Validation, error)
	Create(ctx context.Context, appID string, req licenseapi.CreateRequest) (*licenseapi.License, error)
	Update(ctx context.Context, id string, patch licenseapi.Patch) (*licenseapi.License, error)
	Revoke(ctx context.Context, id string) error
	ListForApp(ctx context.Context, appID string) ([]licenseapi.License, error)
	AppByName(ctx context.Context, name string) (*licenseapi.App, error)
	Analytics(ctx context.Context, id, period string) (*licenseapi.Analytics, error)
	Stats(ctx context.Context) (*licenseapi.Stats, error)
	HealthCheck(ctx context.Context) (*licenseapi.Health, error)
}

// ValidationLogger records validation attempts.
type ValidationLogger interface {
	LogValidation(ctx context.Context, telegramID int64, licenseKey string, valid bool) error
}

// ExpiredReason is the API reason for a key that is valid except for its
// expiry. Such keys can still be revoked and extended.
const ExpiredReason = "License has expired"

// LicenseService wraps the license API with input validation, app id
// resolution and the chat-identity ownership rule.
type LicenseService struct {
	API     LicenseAPI
	Log     ValidationLogger
	AppName string
	Logger  zerolog.Logger
	Now     func() time.Time

	appMu sync.Mutex
	appID string
}

// NewLicenseService returns a LicenseService for the configured app name.
func NewLicenseService(api LicenseAPI, log ValidationLogger, appName string, logger zerolog.Logger) *LicenseService {
	return &LicenseService{
		API:     api,
		Log:     log,
		AppName: appName,
		Logger:  logger.With().Str("component", "license_service").Logger(),
		Now:     time.Now,
	}
}

func (s *LicenseService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func tracer() trace.Tracer { return otel.Tracer("services/LicenseService") }

// Validate checks key and records the attempt for actor. An invalid key is
// returned as a result, not an error.
func (s *LicenseService) Validate(ctx context.Context, actor int64, key string) (*licenseapi.Validation, error) {
	ctx, span := tracer().Start(ctx, "Validate", trace.WithAttributes(attribute.Int64("user.id", actor)))
	defer span.End()

	key, err := ValidateLicenseKey(key)
	if err != nil {
		return nil, err
	}
	v, err := s.API.Validate(ctx, key)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("license.valid", v.Valid))
	if s.Log != nil {
		if err := s.Log.LogValidation(ctx, actor, key, v.Valid); err != nil {
			s.Logger.Warn().Err(err).Int64("user_id", actor).Msg("log validation failed")
		}
	}
	return v, nil
}

// Lookup validates key without recording it and maps an unknown key to
// ErrLicenseNotFound.
func (s *LicenseService) Lookup(ctx context.Context, key string) (*licenseapi.Validation, error) {
	ctx, span := tracer().Start(ctx, "Lookup")
	defer span.End()

	key, err := ValidateLicenseKey(key)
	if err != nil {
		return nil, err
	}
	v, err := s.API.Validate(ctx, key)
	if err != nil {
		var apiErr *licenseapi.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return nil, ErrLicenseNotFound
		}
		return nil, err
	}
	if !v.Valid && v.Status == "" && !v.Expired() && v.ID == "" && v.LicenseID == "" {
		return nil, ErrLicenseNotFound
	}
	return v, nil
}

// AppID resolves the configured app name to its id once. When the API has
// no app of that name the name itself is used as the id.
func (s *LicenseService) AppID(ctx context.Context) (string, error) {
	s.appMu.Lock()
	defer s.appMu.Unlock()
	if s.appID != "" {
		return s.appID, nil
	}
	if s.AppName == "" {
		return "", invalid("app", "errors.app_not_configured", nil)
	}
	app, err := s.API.AppByName(ctx, s.AppName)
	if err != nil {
		return "", err
	}
	if app != nil && app.ID != "" {
		s.appID = app.ID
	} else {
		s.appID = s.AppName
	}
	return s.appID, nil
}

// CreateInput is the raw argument list of the create command.
type CreateInput struct {
	Identifier string
	Plan       string
	Expiry     string
	CreatedBy  int64
}

// Create issues a license. Identifiers that look like an email go to
// issuedEmail; anything else goes to issuedTo.
func (s *LicenseService) Create(ctx context.Context, in CreateInput) (*licenseapi.License, error) {
	ctx, span := tracer().Start(ctx, "Create", trace.WithAttributes(attribute.Int64("user.id", in.CreatedBy)))
	defer span.End()

	ident := strings.TrimSpace(in.Identifier)
	if ident == "" {
		return nil, invalid("identifier", "errors.identifier_required", nil)
	}
	plan, err := ParsePlan(in.Plan)
	if err != nil {
		return nil, err
	}
	expires, err := ParseExpiry(in.Expiry, s.now())
	if err != nil {
		return nil, err
	}
	appID, err := s.AppID(ctx)
	if err != nil {
		return nil, err
	}

	req := licenseapi.CreateRequest{
		Plan:      plan,
		ExpiresAt: expires,
		Metadata: map[string]any{
			"source":    "telegram",
			"createdBy": strconv.FormatInt(in.CreatedBy, 10),
		},
	}
	if IsEmail(ident) {
		req.IssuedEmail = strings.ToLower(ident)
	} else {
		req.IssuedTo = ident
	}
	span.SetAttributes(attribute.String("license.plan", plan))
	lic, err := s.API.Create(ctx, appID, req)
	if err != nil {
		return nil, err
	}
	if lic.ExpiresAt == nil {
		lic.ExpiresAt = &expires
	}
	if lic.Plan == "" {
		lic.Plan = plan
	}
	return lic, nil
}

// requireRevocable looks key up and refuses keys the API considers invalid
// for any reason other than expiry.
func (s *LicenseService) requireRevocable(ctx context.Context, key string) (*licenseapi.Validation, string, error) {
	v, err := s.Lookup(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if !v.Valid && !v.Expired() {
		return nil, "", ErrLicenseNotFound
	}
	return v, v.LicenseRef(key), nil
}

// Revoke revokes key. When the delete endpoint fails the license is patched
// to status REVOKED instead.
func (s *LicenseService) Revoke(ctx context.Context, key, reason string) error {
	ctx, span := tracer().Start(ctx, "Revoke")
	defer span.End()

	_, id, err := s.requireRevocable(ctx, key)
	if err != nil {
		return err
	}
	err = s.API.Revoke(ctx, id)
	if err == nil {
		return nil
	}
	s.Logger.Warn().Err(err).Str("license_id", id).Str("reason", reason).Msg("revoke failed, falling back to status update")
	status := "REVOKED"
	_, err = s.API.Update(ctx, id, licenseapi.Patch{Status: &status})
	return err
}

// Extend pushes the expiry of key by days, counting from now when the
// license already expired.
func (s *LicenseService) Extend(ctx context.Context, key, days string) (time.Time, error) {
	ctx, span := tracer().Start(ctx, "Extend")
	defer span.End()

	n, err := ParseDays(days)
	if err != nil {
		return time.Time{}, err
	}
	v, id, err := s.requireRevocable(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	base := s.now().UTC()
	if v.ExpiresAt != nil && v.ExpiresAt.After(base) {
		base = v.ExpiresAt.UTC()
	}
	next := base.AddDate(0, 0, n)
	if _, err := s.API.Update(ctx, id, licenseapi.Patch{ExpiresAt: &next}); err != nil {
		return time.Time{}, err
	}
	return next, nil
}

// UpdateFields lists the license fields "update" accepts.
var UpdateFields = []string{"status", "plan", "expires", "issuedto", "email"}

// UpdateField sets one field of key. field is case-insensitive.
func (s *LicenseService) UpdateField(ctx context.Context, key, field, value string) (*licenseapi.License, error) {
	ctx, span := tracer().Start(ctx, "UpdateField", trace.WithAttributes(attribute.String("license.field", field)))
	defer span.End()

	var patch licenseapi.Patch
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "status":
		st := strings.ToUpper(strings.TrimSpace(value))
		ok := false
		for _, v := range LicenseStatuses {
			ok = ok || v == st
		}
		if !ok {
			return nil, invalid("status", "errors.invalid_license_status", map[string]any{"statuses": strings.Join(LicenseStatuses, ", ")})
		}
		patch.Status = &st
	case "plan":
		plan, err := ParsePlan(value)
		if err != nil {
			return nil, err
		}
		patch.Plan = &plan
	case "expires", "expiry", "expiresat":
		t, err := ParseExpiry(value, s.now())
		if err != nil {
			return nil, err
		}
		patch.ExpiresAt = &t
	case "issuedto":
		v := strings.TrimSpace(value)
		if v == "" {
			return nil, invalid("issuedTo", "errors.identifier_required", nil)
		}
		patch.IssuedTo = &v
	case "email":
		e, err := ValidateEmail(value)
		if err != nil {
			return nil, err
		}
		patch.IssuedEmail = &e
	default:
		return nil, invalid("field", "errors.invalid_field", map[string]any{"fields": strings.Join(UpdateFields, ", ")})
	}

	v, err := s.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.API.Update(ctx, v.LicenseRef(key), patch)
}

// Analytics returns usage of key over period (default 30d).
func (s *LicenseService) Analytics(ctx context.Context, key, period string) (*licenseapi.Analytics, error) {
	ctx, span := tracer().Start(ctx, "Analytics")
	defer span.End()

	p, _, err := ParsePeriod(period, "30d", false)
	if err != nil {
		return nil, err
	}
	v, err := s.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.API.Analytics(ctx, v.LicenseRef(key), p)
}

// ListFor returns the licenses of the configured app that belong to u.
// Admins get every license.
func (s *LicenseService) ListFor(ctx context.Context, u domain.User, admin bool) ([]licenseapi.License, error) {
	ctx, span := tracer().Start(ctx, "ListFor", trace.WithAttributes(
		attribute.Int64("user.id", u.TelegramID),
		attribute.Bool("user.admin", admin),
	))
	defer span.End()

	appID, err := s.AppID(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.API.ListForApp(ctx, appID)
	if err != nil {
		return nil, err
	}
	if admin {
		return all, nil
	}
	out := make([]licenseapi.License, 0, len(all))
	for _, l := range all {
		if Owns(u, l.IssuedTo, l.IssuedEmail) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Stats returns account-wide license counters.
func (s *LicenseService) Stats(ctx context.Context) (*licenseapi.Stats, error) {
	return s.API.Stats(ctx)
}

// Health pings the license API.
func (s *LicenseService) Health(ctx context.Context) (*licenseapi.Health, error) {
	return s.API.HealthCheck(ctx)
}

// Owns applies the chat-identity rule: a license belongs to u when issuedTo
// is u's Telegram id or username (with or without "@", any case), or when
// issuedEmail equals u's recorded email (any case).
func Owns(u domain.User, issuedTo, issuedEmail string) bool {
	to := strings.TrimSpace(issuedTo)
	if to != "" {
		if to == strconv.FormatInt(u.TelegramID, 10) {
			return true
		}
		if u.Username != "" && strings.EqualFold(strings.TrimPrefix(to, "@"), strings.TrimPrefix(u.Username, "@")) {
			return true
		}
	}
	email := strings.TrimSpace(issuedEmail)
	return email != "" && u.Email != "" && strings.EqualFold(email, strings.TrimSpace(u.Email))
}
