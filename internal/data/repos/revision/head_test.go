package revision

import (
	"context"
	"testing"
	"time"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos/testutil"
	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedHead(t *testing.T, ctx context.Context, tx *gorm.DB, lang string) (*types.Content, *types.Head, HeadRepo) {
	t.Helper()
	log := testutil.Logger(t)
	proj := testutil.SeedProject(t, ctx, tx, "head-"+lang+"-"+t.Name())
	c := testutil.SeedContent(t, ctx, tx, proj.ID, "web", map[string]any{"slot": t.Name()}, map[string]any{"text": "Hello"})
	repo := NewHeadRepo(tx, log)
	head, err := repo.GetOrCreateHead(dbctx.WithTx(ctx, tx), c, lang, "")
	if err != nil {
		t.Fatalf("create head: %v", err)
	}
	return c, head, repo
}

func TestGetOrCreateHeadIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	c, head, repo := seedHead(t, ctx, tx, "de")
	dbc := dbctx.WithTx(ctx, tx)

	if head.VariantKey != types.DefaultVariant {
		t.Fatalf("empty variant not defaulted, got %q", head.VariantKey)
	}
	if head.CurrentStatus != types.RevisionStatusDraft {
		t.Fatalf("new head not draft: %s", head.CurrentStatus)
	}
	if head.CurrentNo != 0 {
		t.Fatalf("new head current_no = %d, want 0", head.CurrentNo)
	}

	again, err := repo.GetOrCreateHead(dbc, c, "de", types.DefaultVariant)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if again.ID != head.ID {
		t.Fatalf("tuple produced two heads")
	}
	if again.CurrentRevID != head.CurrentRevID {
		t.Fatalf("revision zero re-created")
	}

	var revCount int64
	if err := tx.Model(&types.Revision{}).
		Where("content_id = ? AND target_lang = ?", c.ID, "de").
		Count(&revCount).Error; err != nil {
		t.Fatalf("count revisions: %v", err)
	}
	if revCount != 1 {
		t.Fatalf("expected exactly revision zero, got %d rows", revCount)
	}
}

func TestGetOrCreateHeadVariantsIndependent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	c, def, repo := seedHead(t, ctx, tx, "de")
	formal, err := repo.GetOrCreateHead(dbctx.WithTx(ctx, tx), c, "de", "formal")
	if err != nil {
		t.Fatalf("create formal head: %v", err)
	}
	if formal.ID == def.ID {
		t.Fatalf("variants share one head")
	}
}

func TestClaimDrafts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	_, head, repo := seedHead(t, ctx, tx, "de")
	dbc := dbctx.WithTx(ctx, tx)

	claimed, err := repo.ClaimDrafts(dbc, 10, 5*time.Minute, false)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != head.ID {
		t.Fatalf("expected the one draft head, got %d", len(claimed))
	}
	if claimed[0].ClaimedAt == nil {
		t.Fatalf("claim not stamped")
	}
	if claimed[0].Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", claimed[0].Attempts)
	}
	if claimed[0].CurrentStatus != types.RevisionStatusDraft {
		t.Fatalf("claim changed status to %s", claimed[0].CurrentStatus)
	}

	// A fresh claim hides the head from the next pass.
	again, err := repo.ClaimDrafts(dbc, 10, 5*time.Minute, false)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("claimed head re-claimed")
	}
}

func TestClaimDraftsStaleReclaim(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	_, head, repo := seedHead(t, ctx, tx, "de")
	dbc := dbctx.WithTx(ctx, tx)

	stale := time.Now().UTC().Add(-time.Hour)
	if err := tx.Model(&types.Head{}).Where("id = ?", head.ID).
		Update("claimed_at", stale).Error; err != nil {
		t.Fatalf("age claim: %v", err)
	}

	claimed, err := repo.ClaimDrafts(dbc, 10, 5*time.Minute, false)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("stale claim not reclaimed")
	}
}

func TestReleaseClaims(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	_, head, repo := seedHead(t, ctx, tx, "de")
	dbc := dbctx.WithTx(ctx, tx)

	if _, err := repo.ClaimDrafts(dbc, 10, 5*time.Minute, false); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := repo.ReleaseClaims(dbc, nil); err != nil {
		t.Fatalf("release nothing: %v", err)
	}
	if err := repo.ReleaseClaims(dbc, []uuid.UUID{head.ID}); err != nil {
		t.Fatalf("release: %v", err)
	}

	claimed, err := repo.ClaimDrafts(dbc, 10, 5*time.Minute, false)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("released head not claimable")
	}
	if claimed[0].Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", claimed[0].Attempts)
	}
}

func TestReleaseStaleClaims(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	_, head, repo := seedHead(t, ctx, tx, "de")
	dbc := dbctx.WithTx(ctx, tx)

	stale := time.Now().UTC().Add(-time.Hour)
	if err := tx.Model(&types.Head{}).Where("id = ?", head.ID).
		Update("claimed_at", stale).Error; err != nil {
		t.Fatalf("age claim: %v", err)
	}
	n, err := repo.ReleaseStaleClaims(dbc, 5*time.Minute)
	if err != nil {
		t.Fatalf("release stale: %v", err)
	}
	if n != 1 {
		t.Fatalf("released %d, want 1", n)
	}
	got, err := repo.GetByID(dbc, head.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ClaimedAt != nil {
		t.Fatalf("claim still set")
	}
}

func TestCountExhaustedDrafts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	_, head, repo := seedHead(t, ctx, tx, "de")
	dbc := dbctx.WithTx(ctx, tx)

	if err := tx.Model(&types.Head{}).Where("id = ?", head.ID).
		Update("attempts", 7).Error; err != nil {
		t.Fatalf("set attempts: %v", err)
	}
	n, err := repo.CountExhaustedDrafts(dbc, 5)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("counted %d, want 1", n)
	}
	n, err = repo.CountExhaustedDrafts(dbc, 10)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("counted %d above budget, want 0", n)
	}
}
