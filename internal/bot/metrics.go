package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

var (
	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Updates received, by kind and outcome.",
	}, []string{"kind", "outcome"})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_commands_total",
		Help: "Handler invocations, by command or callback action and result.",
	}, []string{"name", "result"})

	handlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bot_handler_duration_seconds",
		Help:    "Handler run time in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	callbackAckSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_callback_ack_seconds",
		Help:    "Time from dispatch to callback acknowledgement.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	queueDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bot_queue_dropped_total",
		Help: "Updates rejected because the worker queue was full.",
	})

	botStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bot_status",
		Help: "1 for the current bot status, 0 for the others.",
	}, []string{"status"})

	// TransportUp is set by the liveness job: 1 when getMe succeeded.
	TransportUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bot_transport_up",
		Help: "Whether the last Telegram getMe call succeeded.",
	})

	// StatsGauge mirrors the daily aggregate read.
	StatsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bot_stats",
		Help: "Daily bot aggregates (users, licenses, commands, validations, open_tickets).",
	}, []string{"metric"})
)

func statusGauge(current domain.BotStatus) {
	for _, s := range domain.BotStatuses {
		v := 0.0
		if s == current {
			v = 1
		}
		botStatus.WithLabelValues(string(s)).Set(v)
	}
}
