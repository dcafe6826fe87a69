package project

import (
	"context"
	"reflect"
	"testing"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos/testutil"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
)

func TestFallbackChainRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	repo := NewProjectRepo(tx, log)
	dbc := dbctx.WithTx(ctx, tx)

	proj, err := repo.Create(dbc, "fallback-roundtrip")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	if err := repo.SetFallbackChain(dbc, proj.ID, "de-AT", []string{"de", "en"}); err != nil {
		t.Fatalf("set chain: %v", err)
	}
	chain, err := repo.GetFallbackChain(dbc, proj.ID, "de-AT")
	if err != nil {
		t.Fatalf("get chain: %v", err)
	}
	if !reflect.DeepEqual(chain, []string{"de", "en"}) {
		t.Fatalf("chain = %v", chain)
	}

	// Re-setting replaces, not appends.
	if err := repo.SetFallbackChain(dbc, proj.ID, "de-AT", []string{"en"}); err != nil {
		t.Fatalf("replace chain: %v", err)
	}
	chain, err = repo.GetFallbackChain(dbc, proj.ID, "de-AT")
	if err != nil {
		t.Fatalf("get replaced chain: %v", err)
	}
	if !reflect.DeepEqual(chain, []string{"en"}) {
		t.Fatalf("replaced chain = %v", chain)
	}

	// Unconfigured locales have no chain.
	chain, err = repo.GetFallbackChain(dbc, proj.ID, "fr")
	if err != nil {
		t.Fatalf("get missing chain: %v", err)
	}
	if chain != nil {
		t.Fatalf("missing chain = %v", chain)
	}
}
