package project

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, displayName string) (*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
	SetFallbackChain(dbc dbctx.Context, projectID uuid.UUID, locale string, chain []string) error
	GetFallbackChain(dbc dbctx.Context, projectID uuid.UUID, locale string) ([]string, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{
		db:  db,
		log: baseLog.With("repo", "ProjectRepo"),
	}
}

func (r *projectRepo) Create(dbc dbctx.Context, displayName string) (*types.Project, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if displayName == "" {
		return nil, gorm.ErrInvalidData
	}
	now := time.Now().UTC()
	row := &types.Project{
		ID:          uuid.New(),
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Project
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

func (r *projectRepo) SetFallbackChain(dbc dbctx.Context, projectID uuid.UUID, locale string, chain []string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if projectID == uuid.Nil || locale == "" {
		return gorm.ErrInvalidData
	}
	raw, err := json.Marshal(chain)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	row := &types.FallbackOrder{
		ID:        uuid.New(),
		ProjectID: projectID,
		Locale:    locale,
		Chain:     datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "locale"}},
			DoUpdates: clause.AssignmentColumns([]string{"chain", "updated_at"}),
		}).
		Create(row).Error
}

// GetFallbackChain returns the configured fallback locales for a
// requested locale, empty (not an error) when none are configured.
func (r *projectRepo) GetFallbackChain(dbc dbctx.Context, projectID uuid.UUID, locale string) ([]string, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if projectID == uuid.Nil || locale == "" {
		return nil, nil
	}
	var row types.FallbackOrder
	if err := t.WithContext(dbc.Ctx).
		Where("project_id = ? AND locale = ?", projectID, locale).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	var chain []string
	if err := json.Unmarshal(row.Chain, &chain); err != nil {
		return nil, err
	}
	return chain, nil
}
