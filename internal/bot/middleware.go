package bot

import (
	"context"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/permissions"
)

// RequireRole wraps h so it only runs for callers the resolver grants at
// least min. Others get *permissions.PermissionDenied before h does any
// work; the dispatcher turns it into the localized refusal.
func RequireRole(min permissions.Role, h Handler) Handler {
	return HandlerFunc(func(ctx context.Context, r *Request, env *Env) error {
		if err := env.Perms.RequirePermission(r.UserID(), min); err != nil {
			return err
		}
		return h.Handle(ctx, r, env)
	})
}

// AdminOnly is RequireRole(permissions.RoleAdmin, h).
func AdminOnly(h Handler) Handler { return RequireRole(permissions.RoleAdmin, h) }
