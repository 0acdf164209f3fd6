package domain

import "strings"

// BotStatus is the global operating mode of the bot.
type BotStatus string

const (
	StatusOnline      BotStatus = "online"
	StatusOffline     BotStatus = "offline"
	StatusMaintenance BotStatus = "maintenance"
	StatusRestart     BotStatus = "restart"
)

// BotStatuses lists every accepted status in display order.
var BotStatuses = []BotStatus{StatusOnline, StatusOffline, StatusMaintenance, StatusRestart}

// ParseBotStatus lowercases s and reports whether it names a known status.
func ParseBotStatus(s string) (BotStatus, bool) {
	v := BotStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range BotStatuses {
		if v == st {
			return v, true
		}
	}
	return "", false
}

// TicketStatus is the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketOpen    TicketStatus = "open"
	TicketPending TicketStatus = "pending"
	TicketClosed  TicketStatus = "closed"
)

// ParseTicketStatus lowercases s and reports whether it names a known status.
func ParseTicketStatus(s string) (TicketStatus, bool) {
	switch v := TicketStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case TicketOpen, TicketPending, TicketClosed:
		return v, true
	}
	return "", false
}

// Terminal reports whether no further transitions are expected.
func (s TicketStatus) Terminal() bool { return s == TicketClosed }
