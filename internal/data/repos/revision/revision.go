package revision

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

// EngineMeta identifies which engine produced a revision's payload.
type EngineMeta struct {
	Name    string
	Version string
}

type RevisionRepo interface {
	CreateRevision(dbc dbctx.Context, headID uuid.UUID, status string, payload datatypes.JSON, meta EngineMeta) (*types.Revision, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Revision, error)
	ListByHead(dbc dbctx.Context, headID uuid.UUID) ([]*types.Revision, error)
	Publish(dbc dbctx.Context, revisionID uuid.UUID) (bool, *types.Head, error)
	Unpublish(dbc dbctx.Context, revisionID uuid.UUID) (bool, *types.Head, error)
	Reject(dbc dbctx.Context, revisionID uuid.UUID) (bool, *types.Head, error)
}

type revisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRevisionRepo(db *gorm.DB, baseLog *logger.Logger) RevisionRepo {
	return &revisionRepo{
		db:  db,
		log: baseLog.With("repo", "RevisionRepo"),
	}
}

// CreateRevision inserts the next revision for a head and moves the head
// pointer to it, in one transaction. The head row is locked before
// current_no is read, so concurrent creators serialize and revision
// numbers stay gapless per head.
func (r *revisionRepo) CreateRevision(dbc dbctx.Context, headID uuid.UUID, status string, payload datatypes.JSON, meta EngineMeta) (*types.Revision, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if headID == uuid.Nil {
		return nil, gorm.ErrInvalidData
	}
	now := time.Now().UTC()

	var created *types.Revision
	err := t.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var head types.Head
		if err := forUpdate(txx, "").
			Where("id = ?", headID).
			Take(&head).Error; err != nil {
			return err
		}

		rev := &types.Revision{
			ID:                uuid.New(),
			ProjectID:         head.ProjectID,
			ContentID:         head.ContentID,
			TargetLang:        head.TargetLang,
			VariantKey:        head.VariantKey,
			RevisionNo:        head.CurrentNo + 1,
			Status:            status,
			TranslatedPayload: payload,
			EngineName:        meta.Name,
			EngineVersion:     meta.Version,
			CreatedAt:         now,
		}
		if err := txx.Create(rev).Error; err != nil {
			return err
		}

		if err := txx.Model(&types.Head{}).
			Where("id = ?", head.ID).
			Updates(map[string]interface{}{
				"current_rev_id": rev.ID,
				"current_status": rev.Status,
				"current_no":     rev.RevisionNo,
				"claimed_at":     nil,
				"updated_at":     now,
			}).Error; err != nil {
			return err
		}
		created = rev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *revisionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Revision, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Revision
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

func (r *revisionRepo) ListByHead(dbc dbctx.Context, headID uuid.UUID) ([]*types.Revision, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var head types.Head
	if err := t.WithContext(dbc.Ctx).Where("id = ?", headID).Limit(1).Find(&head).Error; err != nil {
		return nil, err
	}
	if head.ID == uuid.Nil {
		return nil, nil
	}
	var out []*types.Revision
	if err := t.WithContext(dbc.Ctx).
		Where("content_id = ? AND target_lang = ? AND variant_key = ?",
			head.ContentID, head.TargetLang, head.VariantKey).
		Order("revision_no ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Publish moves a reviewed revision to published and points the owning
// head's publish pointer at it. A previously published revision of the
// same head is demoted back to reviewed in the same transaction, so at
// most one revision per head ever carries the published status. Returns
// false with no mutation when the revision is missing or not reviewed.
func (r *revisionRepo) Publish(dbc dbctx.Context, revisionID uuid.UUID) (bool, *types.Head, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if revisionID == uuid.Nil {
		return false, nil, nil
	}
	now := time.Now().UTC()

	var (
		ok   bool
		head *types.Head
	)
	err := t.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		rev, h, err := r.lockPair(txx, revisionID)
		if err != nil || rev == nil || h == nil {
			return err
		}
		if rev.Status != types.RevisionStatusReviewed {
			return nil
		}

		if h.PublishedRevID != nil && *h.PublishedRevID != rev.ID {
			if err := txx.Model(&types.Revision{}).
				Where("id = ? AND status = ?", *h.PublishedRevID, types.RevisionStatusPublished).
				Update("status", types.RevisionStatusReviewed).Error; err != nil {
				return err
			}
		}

		res := txx.Model(&types.Revision{}).
			Where("id = ? AND status = ?", rev.ID, types.RevisionStatusReviewed).
			Update("status", types.RevisionStatusPublished)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		updates := map[string]interface{}{
			"published_rev_id": rev.ID,
			"published_no":     rev.RevisionNo,
			"published_at":     now,
			"updated_at":       now,
		}
		if h.CurrentRevID == rev.ID {
			updates["current_status"] = types.RevisionStatusPublished
			h.CurrentStatus = types.RevisionStatusPublished
		}
		if err := txx.Model(&types.Head{}).
			Where("id = ?", h.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		h.PublishedRevID = &rev.ID
		h.PublishedNo = &rev.RevisionNo
		h.PublishedAt = &now
		h.UpdatedAt = now
		ok = true
		head = h
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return ok, head, nil
}

// Unpublish reverts a published revision to reviewed and clears the
// head's publish pointer. False when the revision is missing or not
// published.
func (r *revisionRepo) Unpublish(dbc dbctx.Context, revisionID uuid.UUID) (bool, *types.Head, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if revisionID == uuid.Nil {
		return false, nil, nil
	}
	now := time.Now().UTC()

	var (
		ok   bool
		head *types.Head
	)
	err := t.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		rev, h, err := r.lockPair(txx, revisionID)
		if err != nil || rev == nil || h == nil {
			return err
		}

		res := txx.Model(&types.Revision{}).
			Where("id = ? AND status = ?", rev.ID, types.RevisionStatusPublished).
			Update("status", types.RevisionStatusReviewed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		updates := map[string]interface{}{
			"published_rev_id": nil,
			"published_no":     nil,
			"published_at":     nil,
			"updated_at":       now,
		}
		if h.CurrentRevID == rev.ID {
			updates["current_status"] = types.RevisionStatusReviewed
			h.CurrentStatus = types.RevisionStatusReviewed
		}
		if err := txx.Model(&types.Head{}).
			Where("id = ?", h.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		h.PublishedRevID = nil
		h.PublishedNo = nil
		h.PublishedAt = nil
		h.UpdatedAt = now
		ok = true
		head = h
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return ok, head, nil
}

// Reject is terminal for the revision. When the rejected revision is the
// head's current one, current_status follows; when it is the published
// one, the publish pointer is cleared so it never references a
// non-published revision. An already-rejected revision returns false.
func (r *revisionRepo) Reject(dbc dbctx.Context, revisionID uuid.UUID) (bool, *types.Head, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if revisionID == uuid.Nil {
		return false, nil, nil
	}
	now := time.Now().UTC()

	var (
		ok   bool
		head *types.Head
	)
	err := t.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		rev, h, err := r.lockPair(txx, revisionID)
		if err != nil || rev == nil || h == nil {
			return err
		}

		res := txx.Model(&types.Revision{}).
			Where("id = ? AND status <> ?", rev.ID, types.RevisionStatusRejected).
			Update("status", types.RevisionStatusRejected)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		updates := map[string]interface{}{"updated_at": now}
		if h.CurrentRevID == rev.ID {
			updates["current_status"] = types.RevisionStatusRejected
			h.CurrentStatus = types.RevisionStatusRejected
		}
		if h.PublishedRevID != nil && *h.PublishedRevID == rev.ID {
			updates["published_rev_id"] = nil
			updates["published_no"] = nil
			updates["published_at"] = nil
			h.PublishedRevID = nil
			h.PublishedNo = nil
			h.PublishedAt = nil
		}
		if err := txx.Model(&types.Head{}).
			Where("id = ?", h.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		h.UpdatedAt = now
		ok = true
		head = h
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return ok, head, nil
}

// lockPair loads the revision and locks its owning head for the duration
// of the enclosing transaction. Either pointer may come back nil when the
// rows do not exist.
func (r *revisionRepo) lockPair(txx *gorm.DB, revisionID uuid.UUID) (*types.Revision, *types.Head, error) {
	var rev types.Revision
	if err := txx.Where("id = ?", revisionID).Limit(1).Find(&rev).Error; err != nil {
		return nil, nil, err
	}
	if rev.ID == uuid.Nil {
		return nil, nil, nil
	}
	var head types.Head
	if err := forUpdate(txx, "").
		Where("project_id = ? AND content_id = ? AND target_lang = ? AND variant_key = ?",
			rev.ProjectID, rev.ContentID, rev.TargetLang, rev.VariantKey).
		Limit(1).
		Find(&head).Error; err != nil {
		return nil, nil, err
	}
	if head.ID == uuid.Nil {
		return &rev, nil, nil
	}
	return &rev, &head, nil
}
