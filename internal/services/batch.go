package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos"
	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/engine"
	"github.com/glotbridge/glotbridge-backend/internal/normalize"
	"github.com/glotbridge/glotbridge-backend/internal/platform/apperrors"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// textField is the translatable field of a payload; every other field is
// carried over unchanged into the translated payload.
const textField = "text"

// ContentItem pairs a claimed head with its content row for one pass.
type ContentItem struct {
	Head    *types.Head
	Content *types.Content
}

// BatchProcessor turns a group of claimed draft heads sharing one
// (targetLang, sourceLang) pair into reviewed revisions. Translation
// memory is consulted first; only misses reach the engine, in a single
// call. A malformed engine response fails the whole group with zero
// writes, while a per-item engine error only skips that item.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, items []*ContentItem, eng engine.TranslationEngine) error
}

type batchProcessor struct {
	db       *gorm.DB
	log      *logger.Logger
	headRepo repos.HeadRepo
	revRepo  repos.RevisionRepo
	tmRepo   repos.TMRepo
	outbox   repos.OutboxRepo
}

func NewBatchProcessor(
	db *gorm.DB,
	baseLog *logger.Logger,
	headRepo repos.HeadRepo,
	revRepo repos.RevisionRepo,
	tmRepo repos.TMRepo,
	outboxRepo repos.OutboxRepo,
) BatchProcessor {
	return &batchProcessor{
		db:       db,
		log:      baseLog.With("component", "batch"),
		headRepo: headRepo,
		revRepo:  revRepo,
		tmRepo:   tmRepo,
		outbox:   outboxRepo,
	}
}

type batchItem struct {
	item     *ContentItem
	srcText  string
	reuseKey []byte
}

func (p *batchProcessor) ProcessBatch(ctx context.Context, items []*ContentItem, eng engine.TranslationEngine) error {
	if len(items) == 0 {
		return nil
	}
	tgtLang := items[0].Head.TargetLang
	srcLang := items[0].Content.SourceLang
	for _, it := range items {
		if it.Head.TargetLang != tgtLang || it.Content.SourceLang != srcLang {
			return fmt.Errorf("mixed language pairs in one batch: %w", apperrors.ErrInvalidArgument)
		}
	}

	prepared := make([]*batchItem, 0, len(items))
	for _, it := range items {
		bi, err := p.prepare(ctx, it)
		if err != nil {
			p.log.Warn("skipping malformed item",
				"head_id", it.Head.ID, "error", err)
			p.release(ctx, it.Head.ID)
			continue
		}
		prepared = append(prepared, bi)
	}
	if len(prepared) == 0 {
		return nil
	}

	// Split into TM hits and engine misses before any write, so an
	// engine contract violation can still abort with nothing committed.
	var hits []*batchItem
	var hitUnits []*types.TMUnit
	var misses []*batchItem
	dbc := dbctx.New(ctx)
	for _, bi := range prepared {
		unit, err := p.tmRepo.Find(dbc, bi.item.Content.ProjectID, bi.item.Content.Namespace, bi.reuseKey, repos.TMFilters{
			SrcLang:    srcLang,
			TgtLang:    tgtLang,
			VariantKey: bi.item.Head.VariantKey,
		})
		if err != nil {
			return err
		}
		if unit != nil {
			hits = append(hits, bi)
			hitUnits = append(hitUnits, unit)
		} else {
			misses = append(misses, bi)
		}
	}

	var results []engine.Result
	if len(misses) > 0 {
		texts := make([]string, len(misses))
		for i, bi := range misses {
			texts[i] = bi.srcText
		}
		var err error
		results, err = eng.TranslateBatch(ctx, texts, tgtLang, srcLang)
		if err != nil {
			return fmt.Errorf("engine %s: %w", eng.Name(), err)
		}
		if len(results) != len(texts) {
			return fmt.Errorf("engine %s returned %d results for %d texts: %w",
				eng.Name(), len(results), len(texts), apperrors.ErrEngineContract)
		}
	}

	for i, bi := range hits {
		unit := hitUnits[i]
		tgtText, err := payloadText(unit.TgtPayload)
		if err != nil {
			p.log.Warn("tm entry unusable", "tm_unit_id", unit.ID, "error", err)
			p.release(ctx, bi.item.Head.ID)
			continue
		}
		meta := repos.EngineMeta{Name: "tm", Version: unit.ID.String()}
		if err := p.commitItem(ctx, bi, tgtText, tgtLang, srcLang, meta); err != nil {
			p.log.Error("tm reuse commit failed",
				"head_id", bi.item.Head.ID, "error", err)
			p.release(ctx, bi.item.Head.ID)
		}
	}

	meta := repos.EngineMeta{Name: eng.Name(), Version: eng.Version()}
	for i, bi := range misses {
		res := results[i]
		if !res.OK() {
			p.log.Warn("engine item failed",
				"head_id", bi.item.Head.ID, "retryable", res.Retryable, "error", res.Err)
			p.release(ctx, bi.item.Head.ID)
			continue
		}
		if err := p.commitItem(ctx, bi, res.Text, tgtLang, srcLang, meta); err != nil {
			p.log.Error("item commit failed",
				"head_id", bi.item.Head.ID, "error", err)
			p.release(ctx, bi.item.Head.ID)
		}
	}
	return nil
}

// prepare extracts the source text and reuse key for one item.
func (p *batchProcessor) prepare(_ context.Context, it *ContentItem) (*batchItem, error) {
	var payload map[string]any
	if err := json.Unmarshal(it.Content.SourcePayload, &payload); err != nil {
		return nil, fmt.Errorf("source payload: %w", err)
	}
	text, err := sourceText(payload)
	if err != nil {
		return nil, err
	}
	key := normalize.ReuseKeyForPayload(it.Content.Namespace, nil, map[string]string{textField: text})
	return &batchItem{item: it, srcText: text, reuseKey: key}, nil
}

// commitItem writes one item's revision, TM entry, link and outbox event
// in a single transaction. The new revision clears the head's claim.
func (p *batchProcessor) commitItem(ctx context.Context, bi *batchItem, tgtText, tgtLang, srcLang string, meta repos.EngineMeta) error {
	content := bi.item.Content
	head := bi.item.Head

	translated, err := translatedPayload(content.SourcePayload, tgtText)
	if err != nil {
		return err
	}
	srcPayload, err := json.Marshal(map[string]any{textField: bi.srcText})
	if err != nil {
		return err
	}
	tgtPayload, err := json.Marshal(map[string]any{textField: tgtText})
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		rev, err := p.revRepo.CreateRevision(dbc, head.ID, types.RevisionStatusReviewed, translated, meta)
		if err != nil {
			return err
		}
		unit, err := p.tmRepo.Upsert(dbc, &types.TMUnit{
			ProjectID:  content.ProjectID,
			Namespace:  content.Namespace,
			SrcHash:    bi.reuseKey,
			SrcLang:    srcLang,
			TgtLang:    tgtLang,
			VariantKey: head.VariantKey,
			SrcPayload: srcPayload,
			TgtPayload: tgtPayload,
			Approved:   true,
		})
		if err != nil {
			return err
		}
		if err := p.tmRepo.Link(dbc, rev.ID, unit.ID, content.ProjectID); err != nil {
			return err
		}
		_, err = p.outbox.Append(dbc, content.ProjectID, types.TopicRevisionTranslated, map[string]any{
			"revision_id": rev.ID.String(),
			"head_id":     head.ID.String(),
			"content_id":  content.ID.String(),
			"target_lang": tgtLang,
			"variant_key": head.VariantKey,
			"revision_no": rev.RevisionNo,
			"engine":      meta.Name,
		})
		return err
	})
}

func (p *batchProcessor) release(ctx context.Context, headID uuid.UUID) {
	if err := p.headRepo.ReleaseClaims(dbctx.New(ctx), []uuid.UUID{headID}); err != nil {
		p.log.Error("claim release failed", "head_id", headID, "error", err)
	}
}

// sourceText pulls the translatable field out of a decoded payload.
func sourceText(payload map[string]any) (string, error) {
	raw, ok := payload[textField]
	if !ok {
		return "", fmt.Errorf("payload missing %q field: %w", textField, apperrors.ErrInvalidArgument)
	}
	text, ok := raw.(string)
	if !ok || text == "" {
		return "", fmt.Errorf("payload %q must be a non-empty string: %w", textField, apperrors.ErrInvalidArgument)
	}
	return text, nil
}

// payloadText does the same for a stored JSON payload.
func payloadText(raw []byte) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", err
	}
	return sourceText(payload)
}

// translatedPayload copies the source payload and swaps in the translated
// text, preserving any passthrough fields.
func translatedPayload(src []byte, tgtText string) ([]byte, error) {
	var payload map[string]any
	if err := json.Unmarshal(src, &payload); err != nil {
		return nil, err
	}
	payload[textField] = tgtText
	return json.Marshal(payload)
}
