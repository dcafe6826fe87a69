package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	OutboxStatusPending   = "pending"
	OutboxStatusPublished = "published"
)

const (
	TopicRevisionPublished   = "revision.published"
	TopicRevisionUnpublished = "revision.unpublished"
	TopicRevisionTranslated  = "revision.translated"
)

// OutboxEvent is written in the same transaction as the domain mutation it
// announces and relayed asynchronously. Rows are marked published, never
// deleted by the relay.
type OutboxEvent struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	EventID     uuid.UUID      `gorm:"type:uuid;column:event_id;not null;uniqueIndex" json:"event_id"`
	Topic       string         `gorm:"column:topic;not null;index" json:"topic"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	PublishedAt *time.Time     `gorm:"column:published_at" json:"published_at,omitempty"`
}

func (OutboxEvent) TableName() string { return "outbox_event" }
