// Package handlers implements the bot's HTTP endpoints: the Telegram webhook
// receiver and the health and stats endpoints.
//
// Handlers are transport-thin. The webhook hands normalized updates to the
// runner queue and never dispatches inline, so Telegram gets its answer as
// soon as the update is queued.
package handlers

import (
	"context"
	"time"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/sysutil"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

// Submitter queues an update for processing. It reports false when the
// queue is full or closed.
type Submitter interface {
	Submit(u telegram.Update) bool
}

// StatusReader reports the operator-set bot status.
type StatusReader interface {
	Current() domain.BotStatus
}

// StatsReader reads the stored bot aggregates.
type StatsReader interface {
	GetBotStats(ctx context.Context) (repo.BotStats, error)
}

// Pinger checks that the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IdentityReader asks Telegram who the bot is.
type IdentityReader interface {
	GetMe(ctx context.Context) (telegram.Identity, error)
}

// HostReader reads process and host figures.
type HostReader interface {
	Collect() sysutil.HostStats
}

// Deps are the collaborators and static facts the handlers report on.
type Deps struct {
	Updates  Submitter
	Status   StatusReader
	Stats    StatsReader
	DB       Pinger
	Identity IdentityReader
	Host     HostReader

	// WebhookSecret, when set, must match the Telegram secret header.
	WebhookSecret string
	Mode          string
	Version       string
	StartedAt     time.Time
}

// Handlers holds the endpoint implementations.
type Handlers struct {
	deps Deps
	now  func() time.Time
}

// New returns Handlers bound to deps. A zero StartedAt means "now".
func New(deps Deps) *Handlers {
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}
	return &Handlers{deps: deps, now: time.Now}
}
