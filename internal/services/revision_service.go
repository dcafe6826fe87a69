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

// RevisionService drives the review state machine. Every successful
// transition appends its outbox event in the same transaction, so an
// acknowledged transition always has a pending event to relay.
type RevisionService interface {
	Publish(ctx context.Context, revisionID uuid.UUID) (*types.Head, error)
	Unpublish(ctx context.Context, revisionID uuid.UUID) (*types.Head, error)
	Reject(ctx context.Context, revisionID uuid.UUID) (*types.Head, error)
}

type revisionService struct {
	db      *gorm.DB
	log     *logger.Logger
	revRepo repos.RevisionRepo
	outbox  repos.OutboxRepo
	cache   ResolveCache
}

func NewRevisionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	revRepo repos.RevisionRepo,
	outboxRepo repos.OutboxRepo,
	cache ResolveCache,
) RevisionService {
	return &revisionService{
		db:      db,
		log:     baseLog.With("service", "revision"),
		revRepo: revRepo,
		outbox:  outboxRepo,
		cache:   cache,
	}
}

func (s *revisionService) Publish(ctx context.Context, revisionID uuid.UUID) (*types.Head, error) {
	return s.transition(ctx, revisionID, "publish", types.TopicRevisionPublished, s.revRepo.Publish)
}

func (s *revisionService) Unpublish(ctx context.Context, revisionID uuid.UUID) (*types.Head, error) {
	return s.transition(ctx, revisionID, "unpublish", types.TopicRevisionUnpublished, s.revRepo.Unpublish)
}

func (s *revisionService) Reject(ctx context.Context, revisionID uuid.UUID) (*types.Head, error) {
	return s.transition(ctx, revisionID, "reject", "", s.revRepo.Reject)
}

type transitionFn func(dbc dbctx.Context, revisionID uuid.UUID) (bool, *types.Head, error)

func (s *revisionService) transition(ctx context.Context, revisionID uuid.UUID, action, topic string, fn transitionFn) (*types.Head, error) {
	var head *types.Head
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		rev, err := s.revRepo.GetByID(dbc, revisionID)
		if err != nil {
			return err
		}
		if rev == nil {
			return fmt.Errorf("revision %s: %w", revisionID, apperrors.ErrNotFound)
		}
		ok, h, err := fn(dbc, revisionID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s revision %s in status %s: %w",
				action, revisionID, rev.Status, apperrors.ErrPreconditionFailed)
		}
		head = h
		if topic != "" {
			_, err = s.outbox.Append(dbc, h.ProjectID, topic, map[string]any{
				"revision_id": revisionID.String(),
				"head_id":     h.ID.String(),
				"content_id":  h.ContentID.String(),
				"target_lang": h.TargetLang,
				"variant_key": h.VariantKey,
				"revision_no": rev.RevisionNo,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The tuple's published answer changed (or may have, for reject), so
	// drop the memoized exact hit.
	s.cache.Delete(ctx, CacheKey(head.ContentID, head.TargetLang, head.VariantKey))
	s.log.Info("revision transition",
		"action", action, "revision_id", revisionID, "head_id", head.ID)
	return head, nil
}
