package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/http/middleware"
)

// healthPingTimeout bounds the database check of /health.
const healthPingTimeout = 2 * time.Second

// HealthResponse reports liveness plus the operator-set bot status.
type HealthResponse struct {
	// Status is "healthy", or "degraded" when the database does not answer.
	Status string `json:"status" example:"healthy"`
	// Database is "ok" or "unavailable"; omitted when no database is wired.
	Database string `json:"database,omitempty" example:"ok"`
	// Bot is the operator-set status: online, offline, maintenance or restart.
	Bot  string `json:"bot" example:"online"`
	Mode string `json:"mode" example:"webhook"`
	// Uptime is in seconds.
	Uptime    float64 `json:"uptime" example:"3600.5"`
	Timestamp string  `json:"timestamp" example:"2024-05-01T12:00:00Z"`
	Version   string  `json:"version" example:"1.0.0"`
}

// BotIdentity is the bot account as Telegram reports it.
type BotIdentity struct {
	ID        int64  `json:"id" example:"123456789"`
	Username  string `json:"username" example:"LicenseChainBot"`
	FirstName string `json:"first_name" example:"LicenseChain"`
}

// MemoryStats are process and host memory figures in MiB.
type MemoryStats struct {
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	HostUsedMB  float64 `json:"host_used_mb"`
	HostTotalMB float64 `json:"host_total_mb"`
	HostUsedPct float64 `json:"host_used_percent"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Bot         BotIdentity `json:"bot"`
	Users       int64       `json:"users" example:"42"`
	Licenses    int64       `json:"licenses" example:"17"`
	Commands    int64       `json:"commands" example:"1024"`
	Validations int64       `json:"validations" example:"256"`
	OpenTickets int64       `json:"open_tickets" example:"3"`
	Uptime      float64     `json:"uptime" example:"3600.5"`
	Goroutines  int         `json:"goroutines" example:"24"`
	Memory      MemoryStats `json:"memory"`
}

// Health godoc
// @ID          health
// @Summary     Liveness check
// @Description Always 200 while the process serves HTTP. The bot field carries the operator-set status; status turns "degraded" when the database does not answer.
// @Tags        Health
// @Produce     json
// @Success     200  {object} handlers.HealthResponse
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	now := h.now()
	status := "online"
	if h.deps.Status != nil {
		status = string(h.deps.Status.Current())
	}
	resp := HealthResponse{
		Status:    "healthy",
		Bot:       status,
		Mode:      h.deps.Mode,
		Uptime:    h.uptime(now),
		Timestamp: now.UTC().Format(time.RFC3339),
		Version:   h.deps.Version,
	}
	if h.deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		resp.Database = "ok"
		if err := h.deps.DB.Ping(ctx); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health: database ping failed")
			resp.Status = "degraded"
			resp.Database = "unavailable"
		}
	}
	ok(c, http.StatusOK, resp)
}

// Stats godoc
// @ID          stats
// @Summary     Bot statistics
// @Description Bot identity from Telegram, stored usage aggregates and process figures.
// @Tags        Health
// @Produce     json
// @Success     200  {object} handlers.StatsResponse
// @Failure     429  {object} handlers.ErrorResponse "Rate limited"
// @Failure     500  {object} handlers.ErrorResponse "Stats unavailable"
// @Router      /stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	me, err := h.deps.Identity.GetMe(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, "failed to get stats")
		return
	}
	st, err := h.deps.Stats.GetBotStats(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, "failed to get stats")
		return
	}

	resp := StatsResponse{
		Bot:         BotIdentity{ID: me.ID, Username: me.Username, FirstName: me.FirstName},
		Users:       st.TotalUsers,
		Licenses:    st.TotalLicenses,
		Commands:    st.TotalCommands,
		Validations: st.TotalValidations,
		OpenTickets: st.OpenTickets,
		Uptime:      h.uptime(h.now()),
	}
	if h.deps.Host != nil {
		hs := h.deps.Host.Collect()
		resp.Goroutines = hs.Goroutines
		resp.Memory = MemoryStats{
			HeapAllocMB: hs.HeapAllocMB,
			HostUsedMB:  hs.MemoryUsedMB,
			HostTotalMB: hs.MemoryTotalMB,
			HostUsedPct: hs.MemoryPercent,
		}
	}
	ok(c, http.StatusOK, resp)
}

func (h *Handlers) uptime(now time.Time) float64 {
	return now.Sub(h.deps.StartedAt).Seconds()
}
