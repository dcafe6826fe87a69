package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/stream"
	"gorm.io/gorm"
)

// RelayConfig sizes the outbox relay loop.
type RelayConfig struct {
	BatchSize    int
	PollInterval time.Duration
	SkipLocked   bool
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	return c
}

// Relay drains the transactional outbox into the stream sink. Rows are
// claimed with a skip-locked select inside a transaction and only marked
// published after the sink confirms delivery; a crash in between leaves
// them pending, so delivery is at-least-once and consumers deduplicate
// on event_id.
type Relay struct {
	db     *gorm.DB
	log    *logger.Logger
	outbox repos.OutboxRepo
	sink   stream.Sink
	cfg    RelayConfig
}

func NewRelay(db *gorm.DB, baseLog *logger.Logger, outboxRepo repos.OutboxRepo, sink stream.Sink, cfg RelayConfig) *Relay {
	return &Relay{
		db:     db,
		log:    baseLog.With("component", "relay"),
		outbox: outboxRepo,
		sink:   sink,
		cfg:    cfg.withDefaults(),
	}
}

// Start blocks until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	r.log.Info("relay started",
		"batch_size", r.cfg.BatchSize, "poll_interval", r.cfg.PollInterval)
	for {
		published, failed, err := r.RelayOnce(ctx)
		if err != nil {
			r.log.Error("relay pass failed", "error", err)
		} else if published > 0 || failed > 0 {
			r.log.Info("relayed events", "published", published, "failed", failed)
		}
		if published == r.cfg.BatchSize && failed == 0 && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RelayOnce claims up to one batch of pending events and publishes them.
// Each event is marked published in the claiming transaction only after
// the sink accepted it; failed events stay pending for the next pass.
func (r *Relay) RelayOnce(ctx context.Context) (published, failed int, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		events, err := r.outbox.ClaimPending(dbc, r.cfg.BatchSize, r.cfg.SkipLocked)
		if err != nil {
			return err
		}
		for _, ev := range events {
			var payload map[string]any
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				// Unparseable payloads would wedge the queue; publish the
				// envelope with the raw payload instead.
				payload = map[string]any{"raw": string(ev.Payload)}
			}
			payload["event_id"] = ev.EventID.String()
			payload["project_id"] = ev.ProjectID.String()
			payload["occurred_at"] = ev.CreatedAt.UTC().Format(time.RFC3339Nano)

			if err := r.sink.Publish(ctx, ev.Topic, payload); err != nil {
				failed++
				r.log.Warn("sink publish failed",
					"event_id", ev.EventID, "topic", ev.Topic, "error", err)
				continue
			}
			if err := r.outbox.MarkPublished(dbc, ev.ID); err != nil {
				return fmt.Errorf("mark published %s: %w", ev.EventID, err)
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return published, failed, nil
}
