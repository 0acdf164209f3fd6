package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/permissions"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/utils"
)

// UserRepo is the persistence contract UserService needs.
type UserRepo interface {
	GetUser(ctx context.Context, telegramID int64) (*domain.User, error)
	UpdateUserProfile(ctx context.Context, telegramID int64, patch repo.ProfilePatch) (*domain.User, error)
	GetUserSettings(ctx context.Context, telegramID int64) (domain.UserSettings, error)
	ValidationCount(ctx context.Context, telegramID *int64, since *time.Time) (int64, error)
	GetTickets(ctx context.Context, telegramID int64) ([]domain.Ticket, error)
	BanUser(ctx context.Context, telegramID int64, reason string, by int64) error
	UnbanUser(ctx context.Context, telegramID int64) error
	IsBanned(ctx context.Context, telegramID int64) (bool, error)
}

// Profile is everything the profile and user views show.
type Profile struct {
	User        domain.User
	Settings    domain.UserSettings
	Role        permissions.Role
	Validations int64
	Tickets     int
	OpenTickets int
	Banned      bool
}

// UsageReport is the personal usage summary of one period.
type UsageReport struct {
	Period      string
	Validations int64
	Total       int64
}

// ProfileFields lists the fields updateprofile accepts.
var ProfileFields = []string{"username", "name", "email"}

// UserService reads and edits user profiles and handles bans.
type UserService struct {
	Repo  UserRepo
	Perms *permissions.Resolver
	Now   func() time.Time
}

// NewUserService returns a UserService.
func NewUserService(r UserRepo, perms *permissions.Resolver) *UserService {
	return &UserService{Repo: r, Perms: perms, Now: time.Now}
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Profile assembles the profile of telegramID.
func (s *UserService) Profile(ctx context.Context, telegramID int64) (*Profile, error) {
	u, err := s.Repo.GetUser(ctx, telegramID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	p := &Profile{User: *u}
	if s.Perms != nil {
		p.Role = s.Perms.Role(telegramID)
	}
	if p.Settings, err = s.Repo.GetUserSettings(ctx, telegramID); err != nil {
		return nil, err
	}
	if p.Validations, err = s.Repo.ValidationCount(ctx, &telegramID, nil); err != nil {
		return nil, err
	}
	tickets, err := s.Repo.GetTickets(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	p.Tickets = len(tickets)
	for _, t := range tickets {
		if !t.Status.Terminal() {
			p.OpenTickets++
		}
	}
	if p.Banned, err = s.Repo.IsBanned(ctx, telegramID); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProfile changes one profile field. "name" splits into first and
// last name on the first space.
func (s *UserService) UpdateProfile(ctx context.Context, telegramID int64, field, value string) (*domain.User, error) {
	value = utils.Sanitize(value)
	var patch repo.ProfilePatch
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "username":
		if !usernameRE.MatchString(value) {
			return nil, invalid("username", "errors.invalid_username", nil)
		}
		v := strings.TrimPrefix(value, "@")
		patch.Username = &v
	case "name":
		if value == "" {
			return nil, invalid("name", "errors.invalid_name", nil)
		}
		first, last, _ := strings.Cut(value, " ")
		last = strings.TrimSpace(last)
		patch.FirstName, patch.LastName = &first, &last
	case "email":
		e, err := ValidateEmail(value)
		if err != nil {
			return nil, err
		}
		patch.Email = &e
	default:
		return nil, invalid("field", "errors.invalid_profile_field", map[string]any{"fields": strings.Join(ProfileFields, ", ")})
	}
	u, err := s.Repo.UpdateUserProfile(ctx, telegramID, patch)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Usage counts the validations of telegramID within period ("all" for no
// window) next to the all-time total.
func (s *UserService) Usage(ctx context.Context, telegramID int64, period string) (*UsageReport, error) {
	p, days, err := ParsePeriod(period, "30d", true)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo.ValidationCount(ctx, &telegramID, nil)
	if err != nil {
		return nil, err
	}
	out := &UsageReport{Period: p, Total: total, Validations: total}
	if days > 0 {
		since := s.now().UTC().AddDate(0, 0, -days)
		if out.Validations, err = s.Repo.ValidationCount(ctx, &telegramID, &since); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Ban blocks target. The owner and admins cannot be banned.
func (s *UserService) Ban(ctx context.Context, target int64, reason string, by int64) error {
	if s.Perms != nil && s.Perms.IsAdmin(target) {
		return ErrProtectedUser
	}
	reason = utils.Truncate(utils.Sanitize(reason), 255)
	return s.Repo.BanUser(ctx, target, reason, by)
}

// Unban lifts a ban. It returns ErrUserNotFound when target was not banned.
func (s *UserService) Unban(ctx context.Context, target int64) error {
	err := s.Repo.UnbanUser(ctx, target)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// IsBanned reports whether telegramID is banned.
func (s *UserService) IsBanned(ctx context.Context, telegramID int64) (bool, error) {
	return s.Repo.IsBanned(ctx, telegramID)
}
