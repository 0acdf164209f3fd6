package bot

import (
	"errors"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/locale"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/permissions"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/services"
)

// errorMessage maps a handler error onto the reply the user sees.
func errorMessage(r *Request, err error) string {
	var (
		ve *services.ValidationError
		pd *permissions.PermissionDenied
	)
	switch {
	case errors.As(err, &ve):
		return "❌ " + r.T(ve.Key, ve.Params)
	case errors.As(err, &pd):
		return r.T("errors.permission_denied", locale.Params{
			"required": pd.Required.String(),
			"role":     pd.Actual.String(),
		})
	case errors.Is(err, services.ErrUserNotFound):
		return r.T("errors.user_not_found", nil)
	case errors.Is(err, services.ErrTicketNotFound):
		return r.T("errors.ticket_not_found", nil)
	case errors.Is(err, services.ErrLicenseNotFound):
		return r.T("errors.license_not_found", nil)
	case errors.Is(err, services.ErrNotFound):
		return r.T("errors.not_found", nil)
	case errors.Is(err, services.ErrProtectedUser):
		return r.T("ban.protected", nil)
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return r.T("errors.upstream_unavailable", nil)
	case errors.Is(err, services.ErrStorageUnavailable):
		return r.T("errors.storage_unavailable", nil)
	default:
		return r.T("errors.generic", nil)
	}
}

// errorClass names the taxonomy member of err for logs and metrics.
func errorClass(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "validation"
	case errors.Is(err, permissions.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrProtectedUser):
		return "not_found"
	case errors.Is(err, services.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, services.ErrStorageUnavailable):
		return "storage_unavailable"
	default:
		return "internal"
	}
}
