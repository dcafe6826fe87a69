package services

import (
	"context"
	"sync"
	"testing"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos"
	"github.com/glotbridge/glotbridge-backend/internal/data/repos/testutil"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// testEnv wires the repo set against one rolled-back transaction.
type testEnv struct {
	tx  *gorm.DB
	log *logger.Logger
	ctx context.Context

	projects repos.ProjectRepo
	content  repos.ContentRepo
	heads    repos.HeadRepo
	revs     repos.RevisionRepo
	tm       repos.TMRepo
	outbox   repos.OutboxRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	return &testEnv{
		tx:       tx,
		log:      log,
		ctx:      context.Background(),
		projects: repos.NewProjectRepo(tx, log),
		content:  repos.NewContentRepo(tx, log),
		heads:    repos.NewHeadRepo(tx, log),
		revs:     repos.NewRevisionRepo(tx, log),
		tm:       repos.NewTMRepo(tx, log),
		outbox:   repos.NewOutboxRepo(tx, log),
	}
}

func (e *testEnv) processor() BatchProcessor {
	return NewBatchProcessor(e.tx, e.log, e.heads, e.revs, e.tm, e.outbox)
}

// fakeSink records published events and fails topics on demand.
type fakeSink struct {
	mu        sync.Mutex
	published []fakeEvent
	failTopic string
}

type fakeEvent struct {
	Topic   string
	Payload map[string]any
}

func (s *fakeSink) Publish(_ context.Context, topic string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTopic != "" && topic == s.failTopic {
		return errSinkDown
	}
	s.published = append(s.published, fakeEvent{Topic: topic, Payload: payload})
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) events() []fakeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fakeEvent, len(s.published))
	copy(out, s.published)
	return out
}

var errSinkDown = errSink("sink down")

type errSink string

func (e errSink) Error() string { return string(e) }
