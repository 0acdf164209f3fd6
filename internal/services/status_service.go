package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/domain"
)

// StatusRepo is the persistence contract StatusService needs.
type StatusRepo interface {
	GetBotStatus(ctx context.Context) (domain.BotStatusRecord, error)
	SetBotStatus(ctx context.Context, status domain.BotStatus, actor int64) (domain.BotStatusRecord, error)
}

// StatusSink receives every status the service loads or stores. The
// dispatcher's availability gate implements it.
type StatusSink interface {
	Set(domain.BotStatus)
}

// StatusService owns the bot's operating status. Storage is authoritative;
// the sink is refreshed after each successful write.
type StatusService struct {
	Repo StatusRepo
	Sink StatusSink
}

// NewStatusService returns a StatusService.
func NewStatusService(r StatusRepo, sink StatusSink) *StatusService {
	return &StatusService{Repo: r, Sink: sink}
}

// Load reads the stored status and pushes it to the sink.
func (s *StatusService) Load(ctx context.Context) (domain.BotStatusRecord, error) {
	rec, err := s.Repo.GetBotStatus(ctx)
	if err != nil {
		return rec, err
	}
	if s.Sink != nil {
		s.Sink.Set(rec.Status)
	}
	return rec, nil
}

// Current returns the stored status record.
func (s *StatusService) Current(ctx context.Context) (domain.BotStatusRecord, error) {
	return s.Repo.GetBotStatus(ctx)
}

// Set validates raw, stores it as one atomic upsert and updates the sink.
func (s *StatusService) Set(ctx context.Context, raw string, actor int64) (domain.BotStatusRecord, error) {
	ctx, span := otel.Tracer("services/StatusService").Start(ctx, "Set",
		trace.WithAttributes(attribute.String("bot.status", raw), attribute.Int64("user.id", actor)))
	defer span.End()

	st, ok := domain.ParseBotStatus(raw)
	if !ok {
		return domain.BotStatusRecord{}, invalid("status", "status.invalid", nil)
	}
	rec, err := s.Repo.SetBotStatus(ctx, st, actor)
	if err != nil {
		return rec, err
	}
	if s.Sink != nil {
		s.Sink.Set(rec.Status)
	}
	return rec, nil
}
