// Package scheduler runs the bot's periodic jobs on a seconds-resolution
// cron in UTC.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/bot"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/repo"
	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/telegram"
)

const (
	specDailyStats = "0 0 0 * * *"
	specLiveness   = "0 0 * * * *"
	specPrune      = "0 30 * * * *"

	defaultJobTimeout = 2 * time.Minute
)

// StatsReader reads the bot aggregates.
type StatsReader interface {
	GetBotStats(ctx context.Context) (repo.BotStats, error)
}

// IdentityChecker checks that the Telegram transport answers.
type IdentityChecker interface {
	GetMe(ctx context.Context) (telegram.Identity, error)
}

// Pruner deletes old de-duplication markers.
type Pruner interface {
	PruneProcessedUpdates(ctx context.Context, cutoff time.Time) (int64, error)
}

// Deps are the collaborators of the jobs. A nil collaborator disables its
// job.
type Deps struct {
	Stats     StatsReader
	Transport IdentityChecker
	Pruner    Pruner
	// DedupeTTL is how long processed update ids are kept.
	DedupeTTL  time.Duration
	JobTimeout time.Duration
}

// Scheduler owns the cron and its jobs.
type Scheduler struct {
	cron *cron.Cron
	deps Deps
	log  zerolog.Logger
	now  func() time.Time
}

// New registers every job whose collaborator is set. It does not start the
// cron.
func New(deps Deps, log zerolog.Logger) (*Scheduler, error) {
	if deps.JobTimeout <= 0 {
		deps.JobTimeout = defaultJobTimeout
	}
	s := &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		deps: deps,
		log:  log.With().Str("component", "scheduler").Logger(),
		now:  time.Now,
	}
	jobs := []struct {
		spec, name string
		enabled    bool
		fn         func(context.Context)
	}{
		{specDailyStats, "stats.daily", deps.Stats != nil, s.dailyStats},
		{specLiveness, "transport.liveness", deps.Transport != nil, s.liveness},
		{specPrune, "updates.prune", deps.Pruner != nil && deps.DedupeTTL > 0, s.prune},
	}
	for _, j := range jobs {
		if !j.enabled {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.fn)); err != nil {
			return nil, err
		}
		s.log.Debug().Str("job", j.name).Str("spec", j.spec).Msg("job registered")
	}
	return s, nil
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

// Start runs the cron in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", s.Jobs()).Msg("scheduler started")
}

// Stop stops scheduling and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wrap gives a job its own deadline and keeps a panic from killing the
// cron goroutine.
func (s *Scheduler) wrap(name string, fn func(context.Context)) func() {
	return func() {
		defer func() {
			if p := recover(); p != nil {
				s.log.Error().Str("job", name).Interface("panic", p).Msg("scheduler job panic recovered")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.deps.JobTimeout)
		defer cancel()
		start := time.Now()
		fn(ctx)
		s.log.Debug().Str("job", name).Dur("cost", time.Since(start)).Msg("scheduler job finished")
	}
}

func (s *Scheduler) dailyStats(ctx context.Context) {
	st, err := s.deps.Stats.GetBotStats(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("daily stats failed")
		return
	}
	bot.StatsGauge.WithLabelValues("users").Set(float64(st.TotalUsers))
	bot.StatsGauge.WithLabelValues("licenses").Set(float64(st.TotalLicenses))
	bot.StatsGauge.WithLabelValues("commands").Set(float64(st.TotalCommands))
	bot.StatsGauge.WithLabelValues("validations").Set(float64(st.TotalValidations))
	bot.StatsGauge.WithLabelValues("open_tickets").Set(float64(st.OpenTickets))
	s.log.Info().
		Int64("users", st.TotalUsers).
		Int64("licenses", st.TotalLicenses).
		Int64("commands", st.TotalCommands).
		Int64("validations", st.TotalValidations).
		Int64("open_tickets", st.OpenTickets).
		Msg("daily stats")
}

func (s *Scheduler) liveness(ctx context.Context) {
	me, err := s.deps.Transport.GetMe(ctx)
	if err != nil {
		bot.TransportUp.Set(0)
		s.log.Error().Err(err).Msg("telegram liveness check failed")
		return
	}
	bot.TransportUp.Set(1)
	s.log.Debug().Str("bot", me.Username).Msg("telegram liveness ok")
}

func (s *Scheduler) prune(ctx context.Context) {
	cutoff := s.now().Add(-s.deps.DedupeTTL)
	n, err := s.deps.Pruner.PruneProcessedUpdates(ctx, cutoff)
	if err != nil {
		s.log.Warn().Err(err).Msg("prune processed updates failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("processed updates pruned")
	}
}
