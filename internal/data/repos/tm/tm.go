package tm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

// Filters narrows a TM lookup beyond the reuse key.
type Filters struct {
	SrcLang    string
	TgtLang    string
	VariantKey string
}

type TMRepo interface {
	Find(dbc dbctx.Context, projectID uuid.UUID, namespace string, reuseKey []byte, f Filters) (*types.TMUnit, error)
	Upsert(dbc dbctx.Context, row *types.TMUnit) (*types.TMUnit, error)
	Link(dbc dbctx.Context, revisionID, tmUnitID, projectID uuid.UUID) error
	LinksByRevision(dbc dbctx.Context, revisionID uuid.UUID) ([]*types.TMLink, error)
}

type tmRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTMRepo(db *gorm.DB, baseLog *logger.Logger) TMRepo {
	return &tmRepo{
		db:  db,
		log: baseLog.With("repo", "TMRepo"),
	}
}

// Find returns the most recently updated approved entry matching the
// reuse key and filters, or nil on miss.
func (r *tmRepo) Find(dbc dbctx.Context, projectID uuid.UUID, namespace string, reuseKey []byte, f Filters) (*types.TMUnit, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if projectID == uuid.Nil || namespace == "" || len(reuseKey) == 0 {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("project_id = ? AND namespace = ? AND src_hash = ? AND approved = ?",
			projectID, namespace, reuseKey, true)
	if f.SrcLang != "" {
		q = q.Where("src_lang = ?", f.SrcLang)
	}
	if f.TgtLang != "" {
		q = q.Where("tgt_lang = ?", f.TgtLang)
	}
	if f.VariantKey != "" {
		q = q.Where("variant_key = ?", f.VariantKey)
	}
	var row types.TMUnit
	if err := q.Order("updated_at DESC").Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// Upsert is idempotent on (project, namespace, src_hash, tgt_lang,
// variant); a conflict refreshes the target payload, approval flag and
// updated_at.
func (r *tmRepo) Upsert(dbc dbctx.Context, row *types.TMUnit) (*types.TMUnit, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ProjectID == uuid.Nil || row.Namespace == "" || len(row.SrcHash) == 0 || row.TgtLang == "" {
		return nil, gorm.ErrInvalidData
	}
	if row.VariantKey == "" {
		row.VariantKey = types.DefaultVariant
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()

	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "project_id"}, {Name: "namespace"}, {Name: "src_hash"},
				{Name: "tgt_lang"}, {Name: "variant_key"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"tgt_payload",
				"approved",
				"updated_at",
			}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	var out types.TMUnit
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ? AND namespace = ? AND src_hash = ? AND tgt_lang = ? AND variant_key = ?",
			row.ProjectID, row.Namespace, row.SrcHash, row.TgtLang, row.VariantKey).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// Link records that a revision consumed a TM entry; duplicates are
// ignored.
func (r *tmRepo) Link(dbc dbctx.Context, revisionID, tmUnitID, projectID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if revisionID == uuid.Nil || tmUnitID == uuid.Nil {
		return gorm.ErrInvalidData
	}
	link := &types.TMLink{
		RevisionID: revisionID,
		TMUnitID:   tmUnitID,
		ProjectID:  projectID,
		CreatedAt:  time.Now().UTC(),
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error
}

func (r *tmRepo) LinksByRevision(dbc dbctx.Context, revisionID uuid.UUID) ([]*types.TMLink, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.TMLink
	if revisionID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("revision_id = ?", revisionID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
