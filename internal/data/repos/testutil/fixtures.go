package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/identity"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Project {
	tb.Helper()
	now := time.Now().UTC()
	p := &types.Project{
		ID:          uuid.New(),
		DisplayName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

// SeedContent inserts a content row for the given keys, hashing them the
// same way the submit path does.
func SeedContent(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, namespace string, keys map[string]any, payload map[string]any) *types.Content {
	tb.Helper()
	hash, err := identity.KeysHash(keys)
	if err != nil {
		tb.Fatalf("seed content keys hash: %v", err)
	}
	rawKeys, err := json.Marshal(keys)
	if err != nil {
		tb.Fatalf("seed content keys: %v", err)
	}
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		tb.Fatalf("seed content payload: %v", err)
	}
	now := time.Now().UTC()
	c := &types.Content{
		ID:            uuid.New(),
		ProjectID:     projectID,
		Namespace:     namespace,
		KeysHash:      hash,
		Keys:          datatypes.JSON(rawKeys),
		SourceLang:    "en",
		SourcePayload: datatypes.JSON(rawPayload),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed content: %v", err)
	}
	return c
}

func SeedFallbackChain(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, locale string, chain []string) {
	tb.Helper()
	raw, err := json.Marshal(chain)
	if err != nil {
		tb.Fatalf("seed fallback chain: %v", err)
	}
	now := time.Now().UTC()
	fo := &types.FallbackOrder{
		ID:        uuid.New(),
		ProjectID: projectID,
		Locale:    locale,
		Chain:     datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(fo).Error; err != nil {
		tb.Fatalf("seed fallback order: %v", err)
	}
}
