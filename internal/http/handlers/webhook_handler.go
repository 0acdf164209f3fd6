package handlers

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/http/middleware"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

var webhookUpdates = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bot_webhook_updates_total",
		Help: "Webhook deliveries by outcome (queued, ignored, rejected, invalid, forbidden).",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(webhookUpdates)
}

// WebhookAck is the body Telegram receives once an update is accepted.
type WebhookAck struct {
	OK bool `json:"ok" example:"true"`
}

// Webhook godoc
// @ID          receiveUpdate
// @Summary     Receive a Telegram update
// @Description Accepts one update pushed by Telegram and queues it for processing. Updates the bot does not handle are acknowledged and dropped. A full queue answers 503 so Telegram redelivers.
// @Tags        Webhook
// @Accept      json
// @Produce     json
//
// @Param       X-Telegram-Bot-Api-Secret-Token  header  string  false  "Secret configured with setWebhook"
// @Param       body  body  object  true  "Telegram Update object"
//
// @Success     200  {object} handlers.WebhookAck
// @Failure     400  {object} handlers.ErrorResponse "Body is not a JSON object"
// @Failure     403  {object} handlers.ErrorResponse "Secret token mismatch"
// @Failure     405  {object} handlers.ErrorResponse "Method not allowed"
// @Failure     413  {object} handlers.ErrorResponse "Body too large"
// @Failure     503  {object} handlers.ErrorResponse "Update queue is full"
// @Router      /webhook [post]
func (h *Handlers) Webhook(c *gin.Context) {
	if secret := h.deps.WebhookSecret; secret != "" {
		got := c.GetHeader(middleware.HeaderTelegramSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			webhookUpdates.WithLabelValues("forbidden").Inc()
			fail(c, http.StatusForbidden, ErrCodeForbidden, "invalid secret token")
			return
		}
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}
	body = bytes.TrimSpace(body)
	var raw tgbotapi.Update
	if len(body) == 0 || body[0] != '{' || json.Unmarshal(body, &raw) != nil {
		webhookUpdates.WithLabelValues("invalid").Inc()
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON object")
		return
	}

	u, handled := telegram.Normalize(raw)
	if !handled {
		webhookUpdates.WithLabelValues("ignored").Inc()
		ok(c, http.StatusOK, WebhookAck{OK: true})
		return
	}
	if !h.deps.Updates.Submit(u) {
		webhookUpdates.WithLabelValues("rejected").Inc()
		middleware.LoggerFrom(c).Warn().Int64("update_id", u.ID).Msg("update queue full")
		fail(c, http.StatusServiceUnavailable, ErrCodeQueueFull, "update queue is full")
		return
	}
	webhookUpdates.WithLabelValues("queued").Inc()
	ok(c, http.StatusOK, WebhookAck{OK: true})
}
