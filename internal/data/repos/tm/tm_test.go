package tm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos/testutil"
	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/normalize"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedUnit(t *testing.T, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, srcText, tgtText string, approved bool) (*types.TMUnit, []byte, TMRepo) {
	t.Helper()
	log := testutil.Logger(t)
	repo := NewTMRepo(tx, log)
	key := normalize.ReuseKeyForPayload("web", nil, map[string]string{"text": srcText})
	src, _ := json.Marshal(map[string]any{"text": srcText})
	tgt, _ := json.Marshal(map[string]any{"text": tgtText})
	unit, err := repo.Upsert(dbctx.WithTx(ctx, tx), &types.TMUnit{
		ProjectID:  projectID,
		Namespace:  "web",
		SrcHash:    key,
		SrcLang:    "en",
		TgtLang:    "de",
		VariantKey: types.DefaultVariant,
		SrcPayload: src,
		TgtPayload: tgt,
		Approved:   approved,
	})
	if err != nil {
		t.Fatalf("seed tm unit: %v", err)
	}
	return unit, key, repo
}

func TestUpsertConvergesOnReuseKey(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	proj := testutil.SeedProject(t, ctx, tx, "tm-upsert")
	first, _, repo := seedUnit(t, ctx, tx, proj.ID, "You have {count} items", "Sie haben {count} Artikel", true)

	// Same text with different variable values normalizes to the same
	// reuse key, so the upsert lands on the existing entry.
	key := normalize.ReuseKeyForPayload("web", nil, map[string]string{"text": "You have 42 items"})
	keyB := normalize.ReuseKeyForPayload("web", nil, map[string]string{"text": "You have 7 items"})
	if string(key) != string(keyB) {
		t.Fatalf("volatile values changed the reuse key")
	}

	src, _ := json.Marshal(map[string]any{"text": "You have 42 items"})
	tgt, _ := json.Marshal(map[string]any{"text": "Sie haben 42 Artikel"})
	second, err := repo.Upsert(dbctx.WithTx(ctx, tx), &types.TMUnit{
		ProjectID:  proj.ID,
		Namespace:  "web",
		SrcHash:    first.SrcHash,
		SrcLang:    "en",
		TgtLang:    "de",
		VariantKey: types.DefaultVariant,
		SrcPayload: src,
		TgtPayload: tgt,
		Approved:   true,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("reuse key produced two entries")
	}
}

func TestFindApprovedOnly(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	proj := testutil.SeedProject(t, ctx, tx, "tm-approved")
	_, key, repo := seedUnit(t, ctx, tx, proj.ID, "Draft only", "Nur Entwurf", false)
	dbc := dbctx.WithTx(ctx, tx)

	got, err := repo.Find(dbc, proj.ID, "web", key, Filters{TgtLang: "de"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != nil {
		t.Fatalf("unapproved entry served")
	}
}

func TestFindScopes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	proj := testutil.SeedProject(t, ctx, tx, "tm-scopes")
	unit, key, repo := seedUnit(t, ctx, tx, proj.ID, "Hello", "Hallo", true)
	dbc := dbctx.WithTx(ctx, tx)

	got, err := repo.Find(dbc, proj.ID, "web", key, Filters{SrcLang: "en", TgtLang: "de", VariantKey: types.DefaultVariant})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.ID != unit.ID {
		t.Fatalf("exact filters missed the entry")
	}

	if got, _ := repo.Find(dbc, proj.ID, "web", key, Filters{TgtLang: "fr"}); got != nil {
		t.Fatalf("entry served for wrong target language")
	}
	if got, _ := repo.Find(dbc, proj.ID, "mobile", key, Filters{TgtLang: "de"}); got != nil {
		t.Fatalf("entry served across namespaces")
	}
	if got, _ := repo.Find(dbc, uuid.New(), "web", key, Filters{TgtLang: "de"}); got != nil {
		t.Fatalf("entry served across projects")
	}
}

func TestLinkIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	proj := testutil.SeedProject(t, ctx, tx, "tm-links")
	unit, _, repo := seedUnit(t, ctx, tx, proj.ID, "Hello", "Hallo", true)
	dbc := dbctx.WithTx(ctx, tx)

	revID := uuid.New()
	if err := repo.Link(dbc, revID, unit.ID, proj.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := repo.Link(dbc, revID, unit.ID, proj.ID); err != nil {
		t.Fatalf("duplicate link: %v", err)
	}
	links, err := repo.LinksByRevision(dbc, revID)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("%d links, want 1", len(links))
	}
}
