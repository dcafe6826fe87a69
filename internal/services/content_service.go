package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos"
	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/identity"
	"github.com/glotbridge/glotbridge-backend/internal/platform/apperrors"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/stream"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmitTarget names one translation target for a submission.
type SubmitTarget struct {
	Lang       string `json:"lang"`
	VariantKey string `json:"variant_key"`
}

// SubmitInput is one source unit plus the targets to fan out to.
type SubmitInput struct {
	ProjectID  uuid.UUID      `json:"project_id"`
	Namespace  string         `json:"namespace"`
	Keys       map[string]any `json:"keys"`
	SourceLang string         `json:"source_lang"`
	Payload    map[string]any `json:"payload"`
	Targets    []SubmitTarget `json:"targets"`
}

// SubmitResult reports the content row and the heads touched by one
// submission. Re-submitting the same identity returns the same content ID.
type SubmitResult struct {
	Content *types.Content `json:"content"`
	Heads   []*types.Head  `json:"heads"`
}

type ContentService interface {
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Content, error)
	Lookup(ctx context.Context, projectID uuid.UUID, namespace string, keys map[string]any) (*types.Content, error)
	Revisions(ctx context.Context, headID uuid.UUID) ([]*types.Revision, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type contentService struct {
	db          *gorm.DB
	log         *logger.Logger
	projectRepo repos.ProjectRepo
	contentRepo repos.ContentRepo
	headRepo    repos.HeadRepo
	revRepo     repos.RevisionRepo
	wake        stream.WakeBus
}

func NewContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	projectRepo repos.ProjectRepo,
	contentRepo repos.ContentRepo,
	headRepo repos.HeadRepo,
	revRepo repos.RevisionRepo,
	wake stream.WakeBus,
) ContentService {
	return &contentService{
		db:          db,
		log:         baseLog.With("service", "content"),
		projectRepo: projectRepo,
		contentRepo: contentRepo,
		headRepo:    headRepo,
		revRepo:     revRepo,
		wake:        wake,
	}
}

// Submit upserts the content row by its key-set identity and ensures a
// head (with revision 0) exists for every requested target, all in one
// transaction. New draft heads wake the worker pool after commit.
func (s *contentService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if in.Namespace == "" {
		return nil, fmt.Errorf("namespace required: %w", apperrors.ErrInvalidArgument)
	}
	if len(in.Targets) == 0 {
		return nil, fmt.Errorf("at least one target required: %w", apperrors.ErrInvalidArgument)
	}
	srcLang, err := CanonicalLocale(in.SourceLang)
	if err != nil {
		return nil, err
	}
	targets := make([]SubmitTarget, 0, len(in.Targets))
	for _, t := range in.Targets {
		lang, err := CanonicalLocale(t.Lang)
		if err != nil {
			return nil, err
		}
		if lang == srcLang {
			return nil, fmt.Errorf("target %q equals source language: %w", lang, apperrors.ErrInvalidArgument)
		}
		vk := t.VariantKey
		if vk == "" {
			vk = types.DefaultVariant
		}
		targets = append(targets, SubmitTarget{Lang: lang, VariantKey: vk})
	}

	if _, err := sourceText(in.Payload); err != nil {
		return nil, err
	}
	keysHash, err := identity.KeysHash(in.Keys)
	if err != nil {
		return nil, fmt.Errorf("keys: %v: %w", err, apperrors.ErrInvalidArgument)
	}
	keysJSON, err := json.Marshal(in.Keys)
	if err != nil {
		return nil, fmt.Errorf("keys: %v: %w", err, apperrors.ErrInvalidArgument)
	}
	payloadJSON, err := json.Marshal(in.Payload)
	if err != nil {
		return nil, fmt.Errorf("payload: %v: %w", err, apperrors.ErrInvalidArgument)
	}

	res := &SubmitResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		proj, err := s.projectRepo.GetByID(dbc, in.ProjectID)
		if err != nil {
			return err
		}
		if proj == nil {
			return fmt.Errorf("project %s: %w", in.ProjectID, apperrors.ErrNotFound)
		}
		content, err := s.contentRepo.Upsert(dbc, &types.Content{
			ProjectID:     in.ProjectID,
			Namespace:     in.Namespace,
			Keys:          keysJSON,
			KeysHash:      keysHash,
			SourceLang:    srcLang,
			SourcePayload: payloadJSON,
		})
		if err != nil {
			return err
		}
		res.Content = content
		for _, t := range targets {
			head, err := s.headRepo.GetOrCreateHead(dbc, content, t.Lang, t.VariantKey)
			if err != nil {
				return err
			}
			res.Heads = append(res.Heads, head)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, h := range res.Heads {
		if h.CurrentStatus == types.RevisionStatusDraft {
			if err := s.wake.Notify(ctx); err != nil {
				s.log.Warn("worker wake failed", "error", err)
			}
			break
		}
	}
	return res, nil
}

func (s *contentService) Get(ctx context.Context, id uuid.UUID) (*types.Content, error) {
	row, err := s.contentRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("content %s: %w", id, apperrors.ErrNotFound)
	}
	return row, nil
}

// Lookup finds content by its key-set identity instead of its ID.
func (s *contentService) Lookup(ctx context.Context, projectID uuid.UUID, namespace string, keys map[string]any) (*types.Content, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace is required: %w", apperrors.ErrInvalidArgument)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("keys are required: %w", apperrors.ErrInvalidArgument)
	}
	hash, err := identity.KeysHash(keys)
	if err != nil {
		return nil, fmt.Errorf("hash keys: %w", err)
	}
	row, err := s.contentRepo.GetByIdentity(dbctx.New(ctx), projectID, namespace, hash)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("content %s/%s: %w", projectID, namespace, apperrors.ErrNotFound)
	}
	return row, nil
}

func (s *contentService) Revisions(ctx context.Context, headID uuid.UUID) ([]*types.Revision, error) {
	dbc := dbctx.New(ctx)
	head, err := s.headRepo.GetByID(dbc, headID)
	if err != nil {
		return nil, err
	}
	if head == nil {
		return nil, fmt.Errorf("head %s: %w", headID, apperrors.ErrNotFound)
	}
	return s.revRepo.ListByHead(dbc, headID)
}

func (s *contentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.contentRepo.Delete(dbctx.New(ctx), id)
}
