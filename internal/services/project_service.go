package services

import (
	"context"
	"fmt"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos"
	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/platform/apperrors"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectService interface {
	Create(ctx context.Context, displayName string) (*types.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Project, error)
	SetFallbacks(ctx context.Context, projectID uuid.UUID, chains map[string][]string) error
	FallbackChain(ctx context.Context, projectID uuid.UUID, locale string) ([]string, error)
}

type projectService struct {
	db          *gorm.DB
	log         *logger.Logger
	projectRepo repos.ProjectRepo
	seedChains  map[string][]string
}

// NewProjectService applies seedChains (usually loaded from the fallback
// seed file) to every newly created project.
func NewProjectService(db *gorm.DB, baseLog *logger.Logger, projectRepo repos.ProjectRepo, seedChains map[string][]string) ProjectService {
	return &projectService{
		db:          db,
		log:         baseLog.With("service", "project"),
		projectRepo: projectRepo,
		seedChains:  seedChains,
	}
}

func (s *projectService) Create(ctx context.Context, displayName string) (*types.Project, error) {
	if displayName == "" {
		return nil, fmt.Errorf("display name required: %w", apperrors.ErrInvalidArgument)
	}
	var proj *types.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		p, err := s.projectRepo.Create(dbc, displayName)
		if err != nil {
			return err
		}
		proj = p
		for locale, chain := range s.seedChains {
			locale, chain, err := canonicalChain(locale, chain)
			if err != nil {
				return err
			}
			if err := s.projectRepo.SetFallbackChain(dbc, p.ID, locale, chain); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("project created", "project_id", proj.ID, "display_name", displayName)
	return proj, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	row, err := s.projectRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("project %s: %w", id, apperrors.ErrNotFound)
	}
	return row, nil
}

func (s *projectService) SetFallbacks(ctx context.Context, projectID uuid.UUID, chains map[string][]string) error {
	if _, err := s.Get(ctx, projectID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		for locale, chain := range chains {
			locale, chain, err := canonicalChain(locale, chain)
			if err != nil {
				return err
			}
			if err := s.projectRepo.SetFallbackChain(dbc, projectID, locale, chain); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *projectService) FallbackChain(ctx context.Context, projectID uuid.UUID, locale string) ([]string, error) {
	locale, err := CanonicalLocale(locale)
	if err != nil {
		return nil, err
	}
	return s.projectRepo.GetFallbackChain(dbctx.New(ctx), projectID, locale)
}

func canonicalChain(locale string, chain []string) (string, []string, error) {
	locale, err := CanonicalLocale(locale)
	if err != nil {
		return "", nil, err
	}
	out := make([]string, 0, len(chain))
	for _, l := range chain {
		cl, err := CanonicalLocale(l)
		if err != nil {
			return "", nil, err
		}
		if cl == locale {
			continue
		}
		out = append(out, cl)
	}
	return locale, out, nil
}
