package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

type ContentRepo interface {
	Upsert(dbc dbctx.Context, row *types.Content) (*types.Content, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Content, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Content, error)
	GetByIdentity(dbc dbctx.Context, projectID uuid.UUID, namespace string, keysHash []byte) (*types.Content, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type contentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return &contentRepo{
		db:  db,
		log: baseLog.With("repo", "ContentRepo"),
	}
}

// Upsert is the race-safe identity write: concurrent first submissions of
// the same (project, namespace, keys_hash) converge on one row, later
// submissions update the payload in place. The read-back returns the
// surviving row whichever way the conflict went.
func (r *contentRepo) Upsert(dbc dbctx.Context, row *types.Content) (*types.Content, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ProjectID == uuid.Nil || row.Namespace == "" || len(row.KeysHash) == 0 {
		return nil, gorm.ErrInvalidData
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	row.UpdatedAt = now

	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project_id"}, {Name: "namespace"}, {Name: "keys_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"source_lang",
				"source_payload",
				"keys",
				"updated_at",
			}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByIdentity(dbc, row.ProjectID, row.Namespace, row.KeysHash)
}

func (r *contentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Content, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Content
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

func (r *contentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Content, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Content
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepo) GetByIdentity(dbc dbctx.Context, projectID uuid.UUID, namespace string, keysHash []byte) (*types.Content, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if projectID == uuid.Nil || namespace == "" || len(keysHash) == 0 {
		return nil, nil
	}
	var row types.Content
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ? AND namespace = ? AND keys_hash = ?", projectID, namespace, keysHash).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// Delete removes a content row and cascades to its heads, revisions and
// TM links. TM units survive; they belong to the project, not the content.
func (r *contentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.
			Where("revision_id IN (?)", txx.Session(&gorm.Session{NewDB: true}).
				Model(&types.Revision{}).Select("id").Where("content_id = ?", id)).
			Delete(&types.TMLink{}).Error; err != nil {
			return err
		}
		if err := txx.Where("content_id = ?", id).Delete(&types.Head{}).Error; err != nil {
			return err
		}
		if err := txx.Where("content_id = ?", id).Delete(&types.Revision{}).Error; err != nil {
			return err
		}
		return txx.Where("id = ?", id).Delete(&types.Content{}).Error
	})
}
