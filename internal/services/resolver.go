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
)

// Resolver serves published payloads with deterministic fallback:
// exact (lang, variant), then (lang, default variant), then the
// project's configured fallback chain for the language, default variant
// only. Only published revisions are ever returned.
type Resolver interface {
	Resolve(ctx context.Context, projectID, contentID uuid.UUID, lang, variantKey string) (*ResolveResult, error)
}

type resolver struct {
	log         *logger.Logger
	projectRepo repos.ProjectRepo
	headRepo    repos.HeadRepo
	revRepo     repos.RevisionRepo
	cache       ResolveCache
}

func NewResolver(
	baseLog *logger.Logger,
	projectRepo repos.ProjectRepo,
	headRepo repos.HeadRepo,
	revRepo repos.RevisionRepo,
	cache ResolveCache,
) Resolver {
	return &resolver{
		log:         baseLog.With("service", "resolver"),
		projectRepo: projectRepo,
		headRepo:    headRepo,
		revRepo:     revRepo,
		cache:       cache,
	}
}

func (r *resolver) Resolve(ctx context.Context, projectID, contentID uuid.UUID, lang, variantKey string) (*ResolveResult, error) {
	lang, err := CanonicalLocale(lang)
	if err != nil {
		return nil, err
	}
	if variantKey == "" {
		variantKey = types.DefaultVariant
	}

	key := CacheKey(contentID, lang, variantKey)
	if res, ok := r.cache.Get(ctx, key); ok {
		return res, nil
	}

	dbc := dbctx.New(ctx)
	res, err := r.lookup(dbc, projectID, contentID, lang, variantKey)
	if err != nil {
		return nil, err
	}
	if res != nil {
		// Exact hits only; fallback answers would need every dependent
		// tuple invalidated when any chain member changes.
		r.cache.Set(ctx, key, res)
		return res, nil
	}

	if variantKey != types.DefaultVariant {
		res, err = r.lookup(dbc, projectID, contentID, lang, types.DefaultVariant)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}

	chain, err := r.projectRepo.GetFallbackChain(dbc, projectID, lang)
	if err != nil {
		return nil, err
	}
	for _, fbLang := range chain {
		if fbLang == lang {
			continue
		}
		res, err = r.lookup(dbc, projectID, contentID, fbLang, types.DefaultVariant)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}

	return nil, fmt.Errorf("no published translation for content %s lang %s variant %s: %w",
		contentID, lang, variantKey, apperrors.ErrNotFound)
}

// lookup returns the published result for one exact tuple, or nil when
// the tuple is absent or has nothing published.
func (r *resolver) lookup(dbc dbctx.Context, projectID, contentID uuid.UUID, lang, variantKey string) (*ResolveResult, error) {
	head, err := r.headRepo.GetByTuple(dbc, projectID, contentID, lang, variantKey)
	if err != nil {
		return nil, err
	}
	if head == nil || head.PublishedRevID == nil {
		return nil, nil
	}
	rev, err := r.revRepo.GetByID(dbc, *head.PublishedRevID)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, fmt.Errorf("head %s references missing revision %s", head.ID, *head.PublishedRevID)
	}
	return &ResolveResult{
		RevisionID: rev.ID,
		ContentID:  contentID,
		Lang:       rev.TargetLang,
		VariantKey: rev.VariantKey,
		RevisionNo: rev.RevisionNo,
		Payload:    rev.TranslatedPayload,
	}, nil
}
