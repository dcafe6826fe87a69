package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos/testutil"
	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/engine"
	"github.com/glotbridge/glotbridge-backend/internal/platform/apperrors"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
)

// scriptedEngine returns a fixed result slice regardless of input, which
// lets tests break the one-result-per-text contract on purpose.
type scriptedEngine struct {
	results []engine.Result
	err     error
	calls   int
}

func (e *scriptedEngine) TranslateBatch(_ context.Context, texts []string, _, _ string) ([]engine.Result, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if e.results != nil {
		return e.results, nil
	}
	out := make([]engine.Result, len(texts))
	for i, t := range texts {
		out[i] = engine.Result{Text: "[de] " + t}
	}
	return out, nil
}

func (e *scriptedEngine) Name() string    { return "scripted" }
func (e *scriptedEngine) Version() string { return "test" }

func (e *testEnv) claimedItems(t *testing.T) []*ContentItem {
	t.Helper()
	dbc := dbctx.WithTx(e.ctx, e.tx)
	heads, err := e.heads.ClaimDrafts(dbc, 100, 5*time.Minute, false)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	items := make([]*ContentItem, 0, len(heads))
	for _, h := range heads {
		c, err := e.content.GetByID(dbc, h.ContentID)
		if err != nil || c == nil {
			t.Fatalf("hydrate content: %v", err)
		}
		items = append(items, &ContentItem{Head: h, Content: c})
	}
	return items
}

func (e *testEnv) seedDraft(t *testing.T, projectID, namespace, slot, text string) *ContentItem {
	t.Helper()
	proj := testutil.SeedProject(t, e.ctx, e.tx, projectID)
	c := testutil.SeedContent(t, e.ctx, e.tx, proj.ID, namespace, map[string]any{"slot": slot}, map[string]any{"text": text})
	dbc := dbctx.WithTx(e.ctx, e.tx)
	head, err := e.heads.GetOrCreateHead(dbc, c, "de", "")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	return &ContentItem{Head: head, Content: c}
}

func TestProcessBatchHappyPath(t *testing.T) {
	env := newTestEnv(t)
	env.seedDraft(t, "batch-happy", "web", "title", "Hello")
	items := env.claimedItems(t)

	eng := &scriptedEngine{results: []engine.Result{{Text: "Hallo"}}}
	if err := env.processor().ProcessBatch(env.ctx, items, eng); err != nil {
		t.Fatalf("process: %v", err)
	}

	dbc := dbctx.WithTx(env.ctx, env.tx)
	head, err := env.heads.GetByID(dbc, items[0].Head.ID)
	if err != nil {
		t.Fatalf("reload head: %v", err)
	}
	if head.CurrentStatus != types.RevisionStatusReviewed {
		t.Fatalf("head status = %s, want reviewed", head.CurrentStatus)
	}
	if head.CurrentNo != 1 {
		t.Fatalf("current_no = %d, want 1", head.CurrentNo)
	}
	if head.ClaimedAt != nil {
		t.Fatalf("claim not cleared")
	}

	rev, err := env.revs.GetByID(dbc, head.CurrentRevID)
	if err != nil || rev == nil {
		t.Fatalf("reload revision: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(rev.TranslatedPayload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["text"] != "Hallo" {
		t.Fatalf("translated text = %v", payload["text"])
	}
	if rev.EngineName != "scripted" {
		t.Fatalf("engine name = %s", rev.EngineName)
	}

	links, err := env.tm.LinksByRevision(dbc, rev.ID)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("%d tm links, want 1", len(links))
	}

	pending, err := env.outbox.CountPending(dbc, head.ProjectID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending != 1 {
		t.Fatalf("%d outbox events, want 1", pending)
	}
}

func TestProcessBatchContractViolationWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seedDraft(t, "batch-contract", "web", "a", "Hello")
	items := env.claimedItems(t)

	// One text in, two results out.
	eng := &scriptedEngine{results: []engine.Result{{Text: "Hallo"}, {Text: "extra"}}}
	err := env.processor().ProcessBatch(env.ctx, items, eng)
	if !errors.Is(err, apperrors.ErrEngineContract) {
		t.Fatalf("err = %v, want engine contract violation", err)
	}

	dbc := dbctx.WithTx(env.ctx, env.tx)
	head, err := env.heads.GetByID(dbc, items[0].Head.ID)
	if err != nil {
		t.Fatalf("reload head: %v", err)
	}
	if head.CurrentStatus != types.RevisionStatusDraft || head.CurrentNo != 0 {
		t.Fatalf("head mutated by aborted batch: %s no %d", head.CurrentStatus, head.CurrentNo)
	}
	pending, err := env.outbox.CountPending(dbc, head.ProjectID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending != 0 {
		t.Fatalf("aborted batch appended %d events", pending)
	}
}

func TestProcessBatchItemFailureIsolated(t *testing.T) {
	env := newTestEnv(t)
	proj := testutil.SeedProject(t, env.ctx, env.tx, "batch-isolation")
	dbc := dbctx.WithTx(env.ctx, env.tx)
	for _, slot := range []string{"ok", "bad"} {
		c := testutil.SeedContent(t, env.ctx, env.tx, proj.ID, "web", map[string]any{"slot": slot}, map[string]any{"text": slot})
		if _, err := env.heads.GetOrCreateHead(dbc, c, "de", ""); err != nil {
			t.Fatalf("head %s: %v", slot, err)
		}
	}
	items := env.claimedItems(t)
	if len(items) != 2 {
		t.Fatalf("claimed %d items", len(items))
	}

	results := make([]engine.Result, 2)
	for i, it := range items {
		text, err := payloadText(it.Content.SourcePayload)
		if err != nil {
			t.Fatalf("text: %v", err)
		}
		if text == "bad" {
			results[i] = engine.Result{Err: "upstream rejected", Retryable: true}
		} else {
			results[i] = engine.Result{Text: "[de] " + text}
		}
	}
	eng := &scriptedEngine{results: results}
	if err := env.processor().ProcessBatch(env.ctx, items, eng); err != nil {
		t.Fatalf("process: %v", err)
	}

	var okHead, badHead *types.Head
	for _, it := range items {
		h, err := env.heads.GetByID(dbc, it.Head.ID)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		text, _ := payloadText(it.Content.SourcePayload)
		if text == "bad" {
			badHead = h
		} else {
			okHead = h
		}
	}
	if okHead.CurrentStatus != types.RevisionStatusReviewed {
		t.Fatalf("good item not translated: %s", okHead.CurrentStatus)
	}
	if badHead.CurrentStatus != types.RevisionStatusDraft {
		t.Fatalf("failed item left draft state: %s", badHead.CurrentStatus)
	}
	if badHead.ClaimedAt != nil {
		t.Fatalf("failed item claim not released")
	}
}

func TestProcessBatchReusesTranslationMemory(t *testing.T) {
	env := newTestEnv(t)
	first := env.seedDraft(t, "batch-tm", "web", "greeting", "Hello")
	items := env.claimedItems(t)
	eng := &scriptedEngine{results: []engine.Result{{Text: "Hallo"}}}
	if err := env.processor().ProcessBatch(env.ctx, items, eng); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if eng.calls != 1 {
		t.Fatalf("engine calls = %d", eng.calls)
	}

	// Same source text under new keys: the TM entry must serve it without
	// another engine call.
	dbc := dbctx.WithTx(env.ctx, env.tx)
	c2 := testutil.SeedContent(t, env.ctx, env.tx, first.Content.ProjectID, "web", map[string]any{"slot": "other"}, map[string]any{"text": "Hello"})
	if _, err := env.heads.GetOrCreateHead(dbc, c2, "de", ""); err != nil {
		t.Fatalf("second head: %v", err)
	}
	items = env.claimedItems(t)
	if len(items) != 1 {
		t.Fatalf("claimed %d items, want the new one", len(items))
	}
	if err := env.processor().ProcessBatch(env.ctx, items, eng); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if eng.calls != 1 {
		t.Fatalf("engine called again despite TM hit")
	}

	head, err := env.heads.GetByID(dbc, items[0].Head.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	rev, err := env.revs.GetByID(dbc, head.CurrentRevID)
	if err != nil || rev == nil {
		t.Fatalf("revision: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(rev.TranslatedPayload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["text"] != "Hallo" {
		t.Fatalf("tm reuse produced %v", payload["text"])
	}
	if rev.EngineName != "tm" {
		t.Fatalf("engine name = %s, want tm", rev.EngineName)
	}
}
