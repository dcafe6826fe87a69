package services

import (
	"testing"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos"
	"github.com/glotbridge/glotbridge-backend/internal/data/repos/testutil"
	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/google/uuid"
)

func (e *testEnv) appendEvent(t *testing.T, projectID uuid.UUID, topic string) *types.OutboxEvent {
	t.Helper()
	ev, err := e.outbox.Append(dbctx.WithTx(e.ctx, e.tx), projectID, topic, map[string]any{
		"revision_id": uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("append %s: %v", topic, err)
	}
	return ev
}

func TestRelayOncePublishesAndMarks(t *testing.T) {
	env := newTestEnv(t)
	proj := testutil.SeedProject(t, env.ctx, env.tx, "relay-happy")
	env.appendEvent(t, proj.ID, types.TopicRevisionTranslated)
	env.appendEvent(t, proj.ID, types.TopicRevisionPublished)

	sink := &fakeSink{}
	relay := NewRelay(env.tx, env.log, env.outbox, sink, RelayConfig{BatchSize: 10})

	published, failed, err := relay.RelayOnce(env.ctx)
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if published != 2 || failed != 0 {
		t.Fatalf("published=%d failed=%d", published, failed)
	}

	events := sink.events()
	if len(events) != 2 {
		t.Fatalf("sink saw %d events", len(events))
	}
	for _, ev := range events {
		if ev.Payload["event_id"] == "" || ev.Payload["project_id"] != proj.ID.String() {
			t.Fatalf("envelope incomplete: %v", ev.Payload)
		}
	}

	pending, err := env.outbox.CountPending(dbctx.WithTx(env.ctx, env.tx), proj.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if pending != 0 {
		t.Fatalf("%d events still pending", pending)
	}

	// Nothing left to relay; a delivered event never goes out twice.
	published, _, err = relay.RelayOnce(env.ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if published != 0 {
		t.Fatalf("second pass re-published %d", published)
	}
}

func TestRelayOnceKeepsFailedEventsPending(t *testing.T) {
	env := newTestEnv(t)
	proj := testutil.SeedProject(t, env.ctx, env.tx, "relay-partial")
	env.appendEvent(t, proj.ID, types.TopicRevisionTranslated)
	env.appendEvent(t, proj.ID, types.TopicRevisionPublished)

	sink := &fakeSink{failTopic: types.TopicRevisionPublished}
	relay := NewRelay(env.tx, env.log, env.outbox, sink, RelayConfig{BatchSize: 10})

	published, failed, err := relay.RelayOnce(env.ctx)
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if published != 1 || failed != 1 {
		t.Fatalf("published=%d failed=%d", published, failed)
	}

	pending, err := env.outbox.CountPending(dbctx.WithTx(env.ctx, env.tx), proj.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if pending != 1 {
		t.Fatalf("failed event not kept pending: %d", pending)
	}

	// Once the sink recovers, the next pass delivers the leftover.
	sink.failTopic = ""
	published, failed, err = relay.RelayOnce(env.ctx)
	if err != nil {
		t.Fatalf("retry pass: %v", err)
	}
	if published != 1 || failed != 0 {
		t.Fatalf("retry published=%d failed=%d", published, failed)
	}
}

// A transition whose relay never runs must leave its event pending, not
// lost: the append rides the transition's transaction.
func TestTransitionEventSurvivesWithoutRelay(t *testing.T) {
	env := newTestEnv(t)
	proj := testutil.SeedProject(t, env.ctx, env.tx, "outbox-atomic")
	c := testutil.SeedContent(t, env.ctx, env.tx, proj.ID, "web", map[string]any{"slot": "title"}, map[string]any{"text": "Hello"})

	dbc := dbctx.WithTx(env.ctx, env.tx)
	head, err := env.heads.GetOrCreateHead(dbc, c, "de", "")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	rev, err := env.revs.CreateRevision(dbc, head.ID, types.RevisionStatusReviewed,
		[]byte(`{"text":"Hallo"}`), repos.EngineMeta{Name: "static"})
	if err != nil {
		t.Fatalf("revision: %v", err)
	}

	svc := NewRevisionService(env.tx, env.log, env.revs, env.outbox, NewMemoryResolveCache())
	if _, err := svc.Publish(env.ctx, rev.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	pending, err := env.outbox.CountPending(dbc, proj.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if pending != 1 {
		t.Fatalf("pending = %d, want the publish event", pending)
	}
}
