package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// Store binds the repository functions to a single database handle and the
// configured default language. It is the persistence handle handed to
// services, the dispatcher and command handlers; nothing else holds the
// *gorm.DB.
type Store struct {
	db          *gorm.DB
	defaultLang string
}

// NewStore returns a Store over db. defaultLang is used for settings of
// users who never chose a language.
func NewStore(db *gorm.DB, defaultLang string) *Store {
	return &Store{db: db, defaultLang: defaultLang}
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageErr("ping", err)
	}
	return storageErr("ping", sqlDB.PingContext(ctx))
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetOrCreateUser upserts the Telegram profile and returns the stored user.
func (s *Store) GetOrCreateUser(ctx context.Context, p Profile) (*domain.User, error) {
	return GetOrCreateUser(ctx, s.db, p)
}

// GetUser returns the user with telegramID or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	return GetUser(ctx, s.db, telegramID)
}

// UpdateUserProfile applies the non-nil fields of patch.
func (s *Store) UpdateUserProfile(ctx context.Context, telegramID int64, patch ProfilePatch) (*domain.User, error) {
	return UpdateUserProfile(ctx, s.db, telegramID, patch)
}

// RecentUsers lists the most recently created users, newest first.
func (s *Store) RecentUsers(ctx context.Context, limit int) ([]domain.User, error) {
	return RecentUsers(ctx, s.db, limit)
}

// GetUserSettings returns the stored settings or the defaults.
func (s *Store) GetUserSettings(ctx context.Context, telegramID int64) (domain.UserSettings, error) {
	return GetUserSettings(ctx, s.db, telegramID, s.defaultLang)
}

// UpdateUserSettings applies patch and returns the resulting settings.
func (s *Store) UpdateUserSettings(ctx context.Context, telegramID int64, patch SettingsPatch) (domain.UserSettings, error) {
	return UpdateUserSettings(ctx, s.db, telegramID, patch, s.defaultLang)
}

// CreateTicket opens a ticket for telegramID.
func (s *Store) CreateTicket(ctx context.Context, telegramID int64, subject, description string) (*domain.Ticket, error) {
	return CreateTicket(ctx, s.db, telegramID, subject, description)
}

// GetTicket returns the ticket with its owner preloaded.
func (s *Store) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return GetTicket(ctx, s.db, ticketID)
}

// UpdateTicketStatus moves a ticket to status.
func (s *Store) UpdateTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error {
	return UpdateTicketStatus(ctx, s.db, ticketID, status)
}

// GetTickets lists the tickets of one user, newest first.
func (s *Store) GetTickets(ctx context.Context, telegramID int64) ([]domain.Ticket, error) {
	return GetTickets(ctx, s.db, telegramID)
}

// GetAllTickets lists every ticket, newest first.
func (s *Store) GetAllTickets(ctx context.Context) ([]domain.Ticket, error) {
	return GetAllTickets(ctx, s.db)
}

// LogValidation records one validation attempt.
func (s *Store) LogValidation(ctx context.Context, telegramID int64, licenseKey string, valid bool) error {
	return LogValidation(ctx, s.db, telegramID, licenseKey, valid)
}

// ValidationCount counts validations, optionally per user and since a time.
func (s *Store) ValidationCount(ctx context.Context, telegramID *int64, since *time.Time) (int64, error) {
	return ValidationCount(ctx, s.db, telegramID, since)
}

// LogCommand records one command invocation.
func (s *Store) LogCommand(ctx context.Context, telegramID int64, command string) error {
	return LogCommand(ctx, s.db, telegramID, command)
}

// RecentCommands lists the latest command invocations.
func (s *Store) RecentCommands(ctx context.Context, limit int) ([]CommandActivity, error) {
	return RecentCommands(ctx, s.db, limit)
}

// GetBotStatus returns the persisted operator status.
func (s *Store) GetBotStatus(ctx context.Context) (domain.BotStatusRecord, error) {
	return GetBotStatus(ctx, s.db)
}

// SetBotStatus persists status on behalf of actor.
func (s *Store) SetBotStatus(ctx context.Context, status domain.BotStatus, actor int64) (domain.BotStatusRecord, error) {
	return SetBotStatus(ctx, s.db, status, actor)
}

// GetBotStats computes the bot aggregates.
func (s *Store) GetBotStats(ctx context.Context) (BotStats, error) {
	return GetBotStats(ctx, s.db)
}

// BanUser bans telegramID.
func (s *Store) BanUser(ctx context.Context, telegramID int64, reason string, by int64) error {
	return BanUser(ctx, s.db, telegramID, reason, by)
}

// UnbanUser lifts a ban.
func (s *Store) UnbanUser(ctx context.Context, telegramID int64) error {
	return UnbanUser(ctx, s.db, telegramID)
}

// IsBanned reports whether telegramID is banned.
func (s *Store) IsBanned(ctx context.Context, telegramID int64) (bool, error) {
	return IsBanned(ctx, s.db, telegramID)
}

// MarkUpdateProcessed records updateID; false means it was already seen.
func (s *Store) MarkUpdateProcessed(ctx context.Context, updateID int64) (bool, error) {
	return MarkUpdateProcessed(ctx, s.db, updateID)
}

// PruneProcessedUpdates deletes markers older than cutoff.
func (s *Store) PruneProcessedUpdates(ctx context.Context, cutoff time.Time) (int64, error) {
	return PruneProcessedUpdates(ctx, s.db, cutoff)
}
