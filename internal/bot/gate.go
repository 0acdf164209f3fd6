package bot

import (
	"sync/atomic"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// StatusGate holds the bot status in memory so the availability check on
// every update does no I/O. StatusService writes through to it.
type StatusGate struct {
	v atomic.Value // domain.BotStatus
}

// NewStatusGate starts at initial.
func NewStatusGate(initial domain.BotStatus) *StatusGate {
	g := &StatusGate{}
	g.Set(initial)
	return g
}

// Set replaces the current status. Empty means online.
func (g *StatusGate) Set(s domain.BotStatus) {
	if s == "" {
		s = domain.StatusOnline
	}
	g.v.Store(s)
	statusGauge(s)
}

// Current returns the status last set.
func (g *StatusGate) Current() domain.BotStatus {
	if s, ok := g.v.Load().(domain.BotStatus); ok {
		return s
	}
	return domain.StatusOnline
}

// bypassGate lists the commands that work while the bot is offline.
var bypassGate = map[string]bool{"status": true, "setstatus": true}

// Blocks reports whether command must be refused with the offline notice.
// An empty command stands for a callback action, which is never exempt.
func (g *StatusGate) Blocks(command string) bool {
	return g.Current() == domain.StatusOffline && !bypassGate[command]
}
