package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Plans accepted by the create and update commands.
var Plans = []string{"FREE", "PRO", "BUSINESS", "ENTERPRISE"}

// Periods accepted by analytics and usage, mapped to their length. "all" is
// only valid for usage and has no window.
var periodDays = map[string]int{"7d": 7, "30d": 30, "90d": 90, "1y": 365}

// LicenseStatuses accepted by "update <key> status <value>".
var LicenseStatuses = []string{"ACTIVE", "SUSPENDED", "REVOKED", "EXPIRED"}

const (
	MinDays = 1
	MaxDays = 36500
)

var (
	licenseKeyRE = regexp.MustCompile(`^[A-Za-z0-9_-]{10,100}$`)
	emailRE      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	userIDRE     = regexp.MustCompile(`^\d{1,12}$`)
	usernameRE   = regexp.MustCompile(`^@?[A-Za-z0-9_]{3,32}$`)
)

// ValidateLicenseKey rejects keys outside [A-Za-z0-9_-]{10,100}.
func ValidateLicenseKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", invalid("key", "errors.license_key_required", nil)
	}
	if !licenseKeyRE.MatchString(key) {
		return "", invalid("key", "errors.invalid_license_key", nil)
	}
	return key, nil
}

// ParsePlan upper-cases s and checks it against Plans.
func ParsePlan(s string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(s))
	for _, v := range Plans {
		if p == v {
			return p, nil
		}
	}
	return "", invalid("plan", "errors.invalid_plan", map[string]any{"plans": strings.Join(Plans, ", ")})
}

// ParseDays parses a day count in [MinDays, MaxDays].
func ParseDays(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < MinDays || n > MaxDays {
		return 0, invalid("days", "errors.invalid_days", map[string]any{"min": MinDays, "max": MaxDays})
	}
	return n, nil
}

// ParseExpiry accepts either a day count or a YYYY-MM-DD date in the future
// and returns the resulting instant in UTC.
func ParseExpiry(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse("2006-01-02", s); err == nil {
		if !d.After(now) {
			return time.Time{}, invalid("expiry", "errors.expiry_in_past", nil)
		}
		return d.UTC(), nil
	}
	days, err := ParseDays(s)
	if err != nil {
		return time.Time{}, invalid("expiry", "errors.invalid_expiry", nil)
	}
	return now.UTC().AddDate(0, 0, days), nil
}

// ParsePeriod accepts 7d, 30d, 90d and 1y (case-insensitive). Empty means
// def. allowAll additionally accepts "all", returned with zero days.
func ParsePeriod(s, def string, allowAll bool) (string, int, error) {
	p := strings.ToLower(strings.TrimSpace(s))
	if p == "" {
		p = def
	}
	if allowAll && p == "all" {
		return p, 0, nil
	}
	if d, ok := periodDays[p]; ok {
		return p, d, nil
	}
	return "", 0, invalid("period", "errors.invalid_period", nil)
}

// ValidateEmail checks the loose address shape used everywhere in the bot.
func ValidateEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !emailRE.MatchString(s) {
		return "", invalid("email", "errors.invalid_email", nil)
	}
	return strings.ToLower(s), nil
}

// ParseUserID parses a Telegram user id of 1 to 12 digits.
func ParseUserID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if !userIDRE.MatchString(s) {
		return 0, invalid("user_id", "errors.invalid_user_id", nil)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("user_id", "errors.invalid_user_id", nil)
	}
	return id, nil
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool { return emailRE.MatchString(strings.TrimSpace(s)) }
