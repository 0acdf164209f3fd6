// Package services holds the bot's business rules: license operations over
// the remote API, tickets, settings, profiles and the bot status. Handlers
// call services; services call the persistence layer and the license client.
//
// This file centralizes the error taxonomy. Every error a service returns
// matches one of the sentinels below (or permissions.ErrPermissionDenied),
// and the dispatcher maps each to a localized reply.
package services

import (
	"errors"
	"fmt"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/licenseapi"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is the parent of the per-entity not-found errors.
	ErrNotFound = errors.New("not found")

	// ErrUserNotFound is returned when a Telegram id never talked to the bot.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrTicketNotFound is returned for unknown tickets and for tickets the
	// caller may not see.
	ErrTicketNotFound = fmt.Errorf("ticket %w", ErrNotFound)

	// ErrLicenseNotFound is returned when the license API does not know a key.
	ErrLicenseNotFound = fmt.Errorf("license %w", ErrNotFound)

	// ErrUpstreamUnavailable covers every failed call to the license API.
	ErrUpstreamUnavailable = licenseapi.ErrUnavailable

	// ErrStorageUnavailable covers every database failure.
	ErrStorageUnavailable = repo.ErrStorageUnavailable

	// ErrProtectedUser is returned when banning the owner or an admin.
	ErrProtectedUser = errors.New("user cannot be banned")
)

// ValidationError is malformed user input. Key names the locale string that
// explains the problem; Params fill its placeholders.
type ValidationError struct {
	Field  string
	Key    string
	Params map[string]any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Key
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Key)
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, key string, params map[string]any) error {
	return &ValidationError{Field: field, Key: key, Params: params}
}
