package services

import (
	"context"
	"fmt"
	"time"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos"
	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/engine"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/stream"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// WorkerConfig sizes the draft-translation worker pool.
type WorkerConfig struct {
	Concurrency  int
	BatchSize    int
	PollInterval time.Duration
	StaleClaim   time.Duration
	SkipLocked   bool
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 25
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.StaleClaim <= 0 {
		c.StaleClaim = 5 * time.Minute
	}
	return c
}

// Worker runs the translation loop: claim draft heads, hydrate their
// content, group by language pair and hand each group to the batch
// processor. Claims are skip-locked stamps, so multiple workers (and
// multiple replicas) partition the backlog without double work.
type Worker struct {
	log         *logger.Logger
	headRepo    repos.HeadRepo
	contentRepo repos.ContentRepo
	processor   BatchProcessor
	engine      engine.TranslationEngine
	wake        stream.WakeBus
	cfg         WorkerConfig
}

func NewWorker(
	baseLog *logger.Logger,
	headRepo repos.HeadRepo,
	contentRepo repos.ContentRepo,
	processor BatchProcessor,
	eng engine.TranslationEngine,
	wake stream.WakeBus,
	cfg WorkerConfig,
) *Worker {
	return &Worker{
		log:         baseLog.With("component", "worker"),
		headRepo:    headRepo,
		contentRepo: contentRepo,
		processor:   processor,
		engine:      eng,
		wake:        wake,
		cfg:         cfg.withDefaults(),
	}
}

// Start blocks until ctx is cancelled, running the configured number of
// loop goroutines.
func (w *Worker) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Concurrency; i++ {
		id := i
		g.Go(func() error { return w.runLoop(ctx, id) })
	}
	w.log.Info("worker started",
		"concurrency", w.cfg.Concurrency,
		"batch_size", w.cfg.BatchSize,
		"poll_interval", w.cfg.PollInterval)
	return g.Wait()
}

func (w *Worker) runLoop(ctx context.Context, id int) error {
	log := w.log.With("loop", id)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := w.ProcessOnce(ctx)
		if err != nil {
			log.Error("pass failed", "error", err)
		}
		if n > 0 && err == nil {
			// Backlog likely remains; go straight into another pass.
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-w.wake.Wake():
		}
	}
}

// ProcessOnce runs a single claim-hydrate-translate pass and reports how
// many heads it claimed.
func (w *Worker) ProcessOnce(ctx context.Context) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker pass panicked: %v", r)
		}
	}()

	dbc := dbctx.New(ctx)
	heads, err := w.headRepo.ClaimDrafts(dbc, w.cfg.BatchSize, w.cfg.StaleClaim, w.cfg.SkipLocked)
	if err != nil {
		return 0, err
	}
	if len(heads) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(heads))
	for _, h := range heads {
		ids = append(ids, h.ContentID)
	}
	contents, err := w.contentRepo.GetByIDs(dbc, ids)
	if err != nil {
		w.releaseAll(ctx, heads...)
		return len(heads), err
	}
	byID := make(map[uuid.UUID]*types.Content, len(contents))
	for _, c := range contents {
		byID[c.ID] = c
	}

	groups := map[string][]*ContentItem{}
	for _, h := range heads {
		c, ok := byID[h.ContentID]
		if !ok {
			// Content deleted between claim and hydrate.
			w.releaseAll(ctx, h)
			continue
		}
		pair := h.TargetLang + "\x00" + c.SourceLang
		groups[pair] = append(groups[pair], &ContentItem{Head: h, Content: c})
	}

	for _, items := range groups {
		if err := w.processor.ProcessBatch(ctx, items, w.engine); err != nil {
			w.log.Error("batch failed",
				"target_lang", items[0].Head.TargetLang,
				"source_lang", items[0].Content.SourceLang,
				"items", len(items),
				"error", err)
			failed := make([]*types.Head, 0, len(items))
			for _, it := range items {
				failed = append(failed, it.Head)
			}
			w.releaseAll(ctx, failed...)
		}
	}
	return len(heads), nil
}

func (w *Worker) releaseAll(ctx context.Context, heads ...*types.Head) {
	if len(heads) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(heads))
	for _, h := range heads {
		ids = append(ids, h.ID)
	}
	if err := w.headRepo.ReleaseClaims(dbctx.New(ctx), ids); err != nil {
		w.log.Error("claim release failed", "heads", len(ids), "error", err)
	}
}
