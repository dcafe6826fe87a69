package revision

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

type HeadRepo interface {
	GetOrCreateHead(dbc dbctx.Context, content *types.Content, targetLang, variantKey string) (*types.Head, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Head, error)
	GetByTuple(dbc dbctx.Context, projectID, contentID uuid.UUID, targetLang, variantKey string) (*types.Head, error)
	ClaimDrafts(dbc dbctx.Context, limit int, staleClaim time.Duration, skipLocked bool) ([]*types.Head, error)
	ReleaseClaims(dbc dbctx.Context, ids []uuid.UUID) error
	ReleaseStaleClaims(dbc dbctx.Context, olderThan time.Duration) (int64, error)
	CountExhaustedDrafts(dbc dbctx.Context, maxAttempts int) (int64, error)
}

type headRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHeadRepo(db *gorm.DB, baseLog *logger.Logger) HeadRepo {
	return &headRepo{
		db:  db,
		log: baseLog.With("repo", "HeadRepo"),
	}
}

// GetOrCreateHead is the atomic first-creation path: conditional insert of
// revision 0 (draft, payload copied from the source), conditional insert
// of the head pointing at it, then a read-back of each. Concurrent callers
// all land on the same row pair; there is no read-then-write window.
func (r *headRepo) GetOrCreateHead(dbc dbctx.Context, content *types.Content, targetLang, variantKey string) (*types.Head, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if content == nil || content.ID == uuid.Nil || targetLang == "" {
		return nil, gorm.ErrInvalidData
	}
	if variantKey == "" {
		variantKey = types.DefaultVariant
	}
	now := time.Now().UTC()

	rev := &types.Revision{
		ID:                uuid.New(),
		ProjectID:         content.ProjectID,
		ContentID:         content.ID,
		TargetLang:        targetLang,
		VariantKey:        variantKey,
		RevisionNo:        0,
		Status:            types.RevisionStatusDraft,
		TranslatedPayload: content.SourcePayload,
		CreatedAt:         now,
	}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rev).Error; err != nil {
		return nil, err
	}

	var rev0 types.Revision
	if err := t.WithContext(dbc.Ctx).
		Where("content_id = ? AND target_lang = ? AND variant_key = ? AND revision_no = 0",
			content.ID, targetLang, variantKey).
		Take(&rev0).Error; err != nil {
		return nil, err
	}

	head := &types.Head{
		ID:            uuid.New(),
		ProjectID:     content.ProjectID,
		ContentID:     content.ID,
		TargetLang:    targetLang,
		VariantKey:    variantKey,
		CurrentRevID:  rev0.ID,
		CurrentStatus: rev0.Status,
		CurrentNo:     0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(head).Error; err != nil {
		return nil, err
	}

	return r.GetByTuple(dbc, content.ProjectID, content.ID, targetLang, variantKey)
}

func (r *headRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Head, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Head
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *headRepo) GetByTuple(dbc dbctx.Context, projectID, contentID uuid.UUID, targetLang, variantKey string) (*types.Head, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if projectID == uuid.Nil || contentID == uuid.Nil || targetLang == "" {
		return nil, nil
	}
	if variantKey == "" {
		variantKey = types.DefaultVariant
	}
	var row types.Head
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ? AND content_id = ? AND target_lang = ? AND variant_key = ?",
			projectID, contentID, targetLang, variantKey).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// ClaimDrafts dequeues up to limit draft heads for one worker pass. With
// skipLocked, rows locked by a concurrent worker are skipped instead of
// waited on, so workers partition the backlog. The claim itself is a
// claimed_at stamp: the head stays draft and the claim expires after
// staleClaim, which is also the retry path for items whose engine call
// failed without the worker releasing them.
func (r *headRepo) ClaimDrafts(dbc dbctx.Context, limit int, staleClaim time.Duration, skipLocked bool) ([]*types.Head, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	staleCutoff := now.Add(-staleClaim)

	var claimed []*types.Head
	err := t.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		q := txx
		if skipLocked {
			q = forUpdate(txx, "SKIP LOCKED")
		}
		var heads []*types.Head
		if err := q.
			Where("current_status = ? AND (claimed_at IS NULL OR claimed_at < ?)",
				types.RevisionStatusDraft, staleCutoff).
			Order("updated_at ASC").
			Limit(limit).
			Find(&heads).Error; err != nil {
			return err
		}
		if len(heads) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(heads))
		for _, h := range heads {
			ids = append(ids, h.ID)
		}
		if err := txx.Model(&types.Head{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"claimed_at": now,
				"attempts":   gorm.Expr("attempts + 1"),
			}).Error; err != nil {
			return err
		}
		for _, h := range heads {
			h.ClaimedAt = &now
			h.Attempts++
		}
		claimed = heads
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// ReleaseClaims clears claimed_at so a failed item is eligible on the
// next pass instead of waiting for the stale-claim window.
func (r *headRepo) ReleaseClaims(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Head{}).
		Where("id IN ?", ids).
		Update("claimed_at", nil).Error
}

func (r *headRepo) ReleaseStaleClaims(dbc dbctx.Context, olderThan time.Duration) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	res := t.WithContext(dbc.Ctx).
		Model(&types.Head{}).
		Where("claimed_at IS NOT NULL AND claimed_at < ?", cutoff).
		Update("claimed_at", nil)
	return res.RowsAffected, res.Error
}

// CountExhaustedDrafts counts draft heads that have been claimed more
// than maxAttempts times without leaving draft.
func (r *headRepo) CountExhaustedDrafts(dbc dbctx.Context, maxAttempts int) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&types.Head{}).
		Where("current_status = ? AND attempts > ?", types.RevisionStatusDraft, maxAttempts).
		Count(&n).Error
	return n, err
}
