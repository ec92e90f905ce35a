package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gesledger/internal/domain"
	"github.com/iho/gesledger/internal/infrastructure/metrics"
	"github.com/iho/gesledger/internal/usecase"
)

// EventPublisher relays outbox events written by settlements to an external
// Publisher. Delivery is at least once: an event is marked only after the
// Publisher accepts it.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	batchSize  int
	interval   time.Duration
	retention  time.Duration
	now        func() time.Time
}

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	Retention  time.Duration // How long published events are kept, 0 keeps them forever
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With().Str("component", "outbox").Logger(),
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		now:        time.Now,
	}
}

// Start begins the event publishing worker.
// It runs continuously until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	if err := ep.processEvents(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("error processing events on start")
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.processEvents(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("error processing events")
			}
			ep.cleanup(ctx)
		}
	}
}

// processEvents fetches and publishes a batch of unpublished events.
func (ep *EventPublisher) processEvents(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing events")

	for _, event := range events {
		if err := ep.publisher.Publish(ctx, event); err != nil {
			ep.record("failed")
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			// later events still go out; this one is retried next tick
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now().UTC()); err != nil {
			ep.record("unmarked")
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event as published")
			continue
		}

		ep.record("published")
		ep.logger.Debug().
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Str("aggregate_id", event.AggregateID).
			Msg("event published")
	}

	return nil
}

func (ep *EventPublisher) cleanup(ctx context.Context) {
	if ep.retention <= 0 {
		return
	}
	if err := ep.outboxRepo.DeletePublished(ctx, ep.now().UTC().Add(-ep.retention)); err != nil {
		ep.logger.Warn().Err(err).Msg("failed to delete published events")
	}
}

func (ep *EventPublisher) record(result string) {
	if ep.metrics != nil {
		ep.metrics.EventsPublished.WithLabelValues(result).Inc()
	}
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
