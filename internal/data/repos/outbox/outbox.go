package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/platform/dbctx"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

type OutboxRepo interface {
	Append(dbc dbctx.Context, projectID uuid.UUID, topic string, payload map[string]any) (*types.OutboxEvent, error)
	ClaimPending(dbc dbctx.Context, limit int, skipLocked bool) ([]*types.OutboxEvent, error)
	MarkPublished(dbc dbctx.Context, id uuid.UUID) error
	CountPending(dbc dbctx.Context, projectID uuid.UUID) (int64, error)
	PrunePublishedBefore(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type outboxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOutboxRepo(db *gorm.DB, baseLog *logger.Logger) OutboxRepo {
	return &outboxRepo{
		db:  db,
		log: baseLog.With("repo", "OutboxRepo"),
	}
}

// Append writes one pending event. It is meant to run inside the same
// transaction as the domain mutation it describes; dbc.Tx must therefore
// normally be set.
func (r *outboxRepo) Append(dbc dbctx.Context, projectID uuid.UUID, topic string, payload map[string]any) (*types.OutboxEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if topic == "" {
		return nil, gorm.ErrInvalidData
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	ev := &types.OutboxEvent{
		ID:        uuid.New(),
		ProjectID: projectID,
		EventID:   uuid.New(),
		Topic:     topic,
		Payload:   datatypes.JSON(raw),
		Status:    types.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := t.WithContext(dbc.Ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

// ClaimPending locks up to limit pending events for the caller's open
// transaction. With skipLocked, rows claimed by a concurrent relay are
// skipped; the locks release on commit or rollback.
func (r *outboxRepo) ClaimPending(dbc dbctx.Context, limit int, skipLocked bool) ([]*types.OutboxEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx)
	if skipLocked {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var out []*types.OutboxEvent
	if err := q.
		Where("status = ?", types.OutboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkPublished flips one event to published. Called only after the
// stream sink confirmed the send; the row is kept, never deleted.
func (r *outboxRepo) MarkPublished(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.OutboxEvent{}).
		Where("id = ? AND status = ?", id, types.OutboxStatusPending).
		Updates(map[string]interface{}{
			"status":       types.OutboxStatusPublished,
			"published_at": now,
		}).Error
}

func (r *outboxRepo) CountPending(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).
		Model(&types.OutboxEvent{}).
		Where("status = ?", types.OutboxStatusPending)
	if projectID != uuid.Nil {
		q = q.Where("project_id = ?", projectID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// PrunePublishedBefore is retention hygiene for the janitor; pending
// events are never touched.
func (r *outboxRepo) PrunePublishedBefore(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("status = ? AND published_at < ?", types.OutboxStatusPublished, cutoff).
		Delete(&types.OutboxEvent{})
	return res.RowsAffected, res.Error
}
