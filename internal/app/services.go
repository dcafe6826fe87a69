package app

import (
	"gorm.io/gorm"

	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/services"
)

type Services struct {
	Project  services.ProjectService
	Content  services.ContentService
	Revision services.RevisionService
	Resolver services.Resolver

	Processor services.BatchProcessor
	Worker    *services.Worker
	Relay     *services.Relay
	Janitor   *services.Janitor
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, clients Clients, skipLocked bool) (Services, error) {
	log.Info("Wiring services...")

	seed, err := LoadFallbackSeed(cfg.FallbackSeedFile)
	if err != nil {
		return Services{}, err
	}

	processor := services.NewBatchProcessor(db, log, r.Head, r.Revision, r.TM, r.Outbox)

	var worker *services.Worker
	if cfg.WorkerEnabled {
		worker = services.NewWorker(log, r.Head, r.Content, processor, clients.Engine, clients.Wake, services.WorkerConfig{
			Concurrency:  cfg.WorkerConcurrency,
			BatchSize:    cfg.WorkerBatchSize,
			PollInterval: cfg.WorkerPollInterval,
			StaleClaim:   cfg.WorkerStaleClaim,
			SkipLocked:   skipLocked,
		})
	}

	var relay *services.Relay
	if cfg.RelayEnabled && clients.Sink != nil {
		relay = services.NewRelay(db, log, r.Outbox, clients.Sink, services.RelayConfig{
			BatchSize:    cfg.RelayBatchSize,
			PollInterval: cfg.RelayPollInterval,
			SkipLocked:   skipLocked,
		})
	}

	var janitor *services.Janitor
	if cfg.JanitorEnabled {
		janitor = services.NewJanitor(log, r.Head, r.Outbox, services.JanitorConfig{
			StaleClaim:      cfg.WorkerStaleClaim,
			OutboxRetention: cfg.OutboxRetention,
			MaxAttempts:     cfg.MaxAttempts,
		})
	}

	return Services{
		Project:   services.NewProjectService(db, log, r.Project, seed),
		Content:   services.NewContentService(db, log, r.Project, r.Content, r.Head, r.Revision, clients.Wake),
		Revision:  services.NewRevisionService(db, log, r.Revision, r.Outbox, clients.Cache),
		Resolver:  services.NewResolver(log, r.Project, r.Head, r.Revision, clients.Cache),
		Processor: processor,
		Worker:    worker,
		Relay:     relay,
		Janitor:   janitor,
	}, nil
}
