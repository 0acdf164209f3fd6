// Package permissions resolves a Telegram user id to a role from static
// configuration. Roles form a total order: owner > admin > user.
package permissions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Role is a permission tier.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	case RoleUser:
		return "user"
	default:
		return "unknown"
	}
}

// Satisfies reports whether r is at least min.
func (r Role) Satisfies(min Role) bool { return r >= min }

// ErrPermissionDenied is matched by every *PermissionDenied.
var ErrPermissionDenied = errors.New("permission denied")

// PermissionDenied reports a caller whose role is below the requirement.
type PermissionDenied struct {
	Actual   Role
	Required Role
}

func (e *PermissionDenied) Error() string {
	return fmt.Sprintf("Insufficient permissions. Required: %s, Your role: %s", e.Required, e.Actual)
}

// Is makes errors.Is(err, ErrPermissionDenied) true.
func (e *PermissionDenied) Is(target error) bool { return target == ErrPermissionDenied }

// Resolver maps ids to roles. It is immutable after construction and safe
// for concurrent use.
type Resolver struct {
	owner  int64
	admins map[int64]struct{}
}

// NewResolver builds a Resolver. owner may be 0 for "no owner".
func NewResolver(owner int64, admins []int64) *Resolver {
	r := &Resolver{owner: owner, admins: make(map[int64]struct{}, len(admins))}
	for _, id := range admins {
		if id != 0 {
			r.admins[id] = struct{}{}
		}
	}
	return r
}

// ParseIDs converts a list of decimal strings to ids, skipping blanks and
// rejecting anything that is not an integer.
func ParseIDs(values []string) ([]int64, error) {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", v, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// Role returns the role of id.
func (r *Resolver) Role(id int64) Role {
	switch {
	case r.owner != 0 && id == r.owner:
		return RoleOwner
	case r.isAdmin(id):
		return RoleAdmin
	default:
		return RoleUser
	}
}

func (r *Resolver) isAdmin(id int64) bool {
	_, ok := r.admins[id]
	return ok
}

// IsAdmin reports whether id is an admin or the owner.
func (r *Resolver) IsAdmin(id int64) bool { return r.Role(id).Satisfies(RoleAdmin) }

// RequirePermission returns *PermissionDenied when id's role is below min.
func (r *Resolver) RequirePermission(id int64, min Role) error {
	if actual := r.Role(id); !actual.Satisfies(min) {
		return &PermissionDenied{Actual: actual, Required: min}
	}
	return nil
}

// Owner returns the configured owner id (0 when unset).
func (r *Resolver) Owner() int64 { return r.owner }

// AdminCount returns how many distinct admin ids are configured, excluding
// the owner.
func (r *Resolver) AdminCount() int {
	n := len(r.admins)
	if _, ok := r.admins[r.owner]; ok {
		n--
	}
	return n
}
