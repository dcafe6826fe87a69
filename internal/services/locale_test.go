package services

import (
	"context"
	"errors"
	"testing"

	"github.com/glotbridge/glotbridge-backend/internal/platform/apperrors"
	"github.com/google/uuid"
)

func TestCanonicalLocale(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN-us", "en-US"},
		{"de-at", "de-AT"},
		{"pt-br", "pt-BR"},
		{"zh-hant", "zh-Hant"},
	}
	for _, c := range cases {
		got, err := CanonicalLocale(c.in)
		if err != nil {
			t.Fatalf("CanonicalLocale(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("CanonicalLocale(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "not a locale", "x1y2z3!"} {
		if _, err := CanonicalLocale(bad); !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Errorf("CanonicalLocale(%q) err = %v, want invalid argument", bad, err)
		}
	}
}

func TestMemoryResolveCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryResolveCache()
	contentID := uuid.New()
	key := CacheKey(contentID, "de", "-")

	if _, ok := cache.Get(ctx, key); ok {
		t.Fatalf("empty cache hit")
	}
	res := &ResolveResult{RevisionID: uuid.New(), ContentID: contentID, Lang: "de", VariantKey: "-", RevisionNo: 1}
	cache.Set(ctx, key, res)
	got, ok := cache.Get(ctx, key)
	if !ok || got.RevisionID != res.RevisionID {
		t.Fatalf("cache miss after set")
	}

	// Keys carry the full tuple, so other variants stay untouched.
	if _, ok := cache.Get(ctx, CacheKey(contentID, "de", "formal")); ok {
		t.Fatalf("variant key collided")
	}

	cache.Delete(ctx, key)
	if _, ok := cache.Get(ctx, key); ok {
		t.Fatalf("entry survived delete")
	}
}
