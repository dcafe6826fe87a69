package services

import (
	"context"
	"time"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/robfig/cron/v3"
)

// JanitorConfig controls the background maintenance schedules.
type JanitorConfig struct {
	StaleClaim      time.Duration
	OutboxRetention time.Duration
	MaxAttempts     int
	ClaimSchedule   string
	PruneSchedule   string
}

func (c JanitorConfig) withDefaults() JanitorConfig {
	if c.StaleClaim <= 0 {
		c.StaleClaim = 5 * time.Minute
	}
	if c.OutboxRetention <= 0 {
		c.OutboxRetention = 30 * 24 * time.Hour
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.ClaimSchedule == "" {
		c.ClaimSchedule = "*/5 * * * *"
	}
	if c.PruneSchedule == "" {
		c.PruneSchedule = "30 3 * * *"
	}
	return c
}

// Janitor runs the scheduled maintenance: releasing stale worker claims
// left by crashed workers and pruning published outbox rows past the
// retention window.
type Janitor struct {
	log      *logger.Logger
	headRepo repos.HeadRepo
	outbox   repos.OutboxRepo
	cfg      JanitorConfig
	cron     *cron.Cron
}

func NewJanitor(baseLog *logger.Logger, headRepo repos.HeadRepo, outboxRepo repos.OutboxRepo, cfg JanitorConfig) *Janitor {
	return &Janitor{
		log:      baseLog.With("component", "janitor"),
		headRepo: headRepo,
		outbox:   outboxRepo,
		cfg:      cfg.withDefaults(),
	}
}

// Start schedules the jobs and returns; Stop tears them down.
func (j *Janitor) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(j.cfg.ClaimSchedule, func() { j.releaseStale(ctx) }); err != nil {
		return err
	}
	if _, err := c.AddFunc(j.cfg.PruneSchedule, func() { j.pruneOutbox(ctx) }); err != nil {
		return err
	}
	c.Start()
	j.cron = c
	j.log.Info("janitor started",
		"claim_schedule", j.cfg.ClaimSchedule,
		"prune_schedule", j.cfg.PruneSchedule)
	return nil
}

func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

func (j *Janitor) releaseStale(ctx context.Context) {
	n, err := j.headRepo.ReleaseStaleClaims(dbctx.New(ctx), j.cfg.StaleClaim)
	if err != nil {
		j.log.Error("stale claim release failed", "error", err)
		return
	}
	if n > 0 {
		j.log.Warn("released stale claims", "count", n, "older_than", j.cfg.StaleClaim)
	}
	stuck, err := j.headRepo.CountExhaustedDrafts(dbctx.New(ctx), j.cfg.MaxAttempts)
	if err != nil {
		j.log.Error("exhausted draft count failed", "error", err)
		return
	}
	if stuck > 0 {
		j.log.Warn("draft heads exceeding attempt budget", "count", stuck, "max_attempts", j.cfg.MaxAttempts)
	}
}

func (j *Janitor) pruneOutbox(ctx context.Context) {
	cutoff := time.Now().Add(-j.cfg.OutboxRetention)
	n, err := j.outbox.PrunePublishedBefore(dbctx.New(ctx), cutoff)
	if err != nil {
		j.log.Error("outbox prune failed", "error", err)
		return
	}
	if n > 0 {
		j.log.Info("pruned published outbox rows", "count", n, "cutoff", cutoff)
	}
}
