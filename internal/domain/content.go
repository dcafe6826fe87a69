package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Content is a source item addressed by its identity hash: sha256 over
// (project, namespace, canonicalized key set). Identity is independent of
// key ordering, so repeated submissions of the same logical keys land on
// the same row.
type Content struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_content_identity,priority:1" json:"project_id"`
	Namespace     string         `gorm:"column:namespace;not null;uniqueIndex:idx_content_identity,priority:2" json:"namespace"`
	KeysHash      []byte         `gorm:"column:keys_hash;type:bytea;not null;uniqueIndex:idx_content_identity,priority:3" json:"-"`
	Keys          datatypes.JSON `gorm:"column:keys;type:jsonb;not null" json:"keys"`
	SourceLang    string         `gorm:"column:source_lang;not null" json:"source_lang"`
	SourcePayload datatypes.JSON `gorm:"column:source_payload;type:jsonb;not null" json:"source_payload"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Content) TableName() string { return "content" }
