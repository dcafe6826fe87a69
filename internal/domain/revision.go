package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RevisionStatusDraft     = "draft"
	RevisionStatusReviewed  = "reviewed"
	RevisionStatusPublished = "published"
	RevisionStatusRejected  = "rejected"
)

// DefaultVariant is the variant key used when a language has no
// sub-dimension.
const DefaultVariant = "-"

// Revision is an immutable numbered snapshot of a translation. After
// creation the only mutable field is Status, and only along
// reviewed->published, published->reviewed and *->rejected.
type Revision struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	ContentID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_revision_no,priority:1" json:"content_id"`
	TargetLang        string         `gorm:"column:target_lang;not null;uniqueIndex:idx_revision_no,priority:2" json:"target_lang"`
	VariantKey        string         `gorm:"column:variant_key;not null;uniqueIndex:idx_revision_no,priority:3" json:"variant_key"`
	RevisionNo        int            `gorm:"column:revision_no;not null;uniqueIndex:idx_revision_no,priority:4" json:"revision_no"`
	Status            string         `gorm:"column:status;not null;index" json:"status"`
	TranslatedPayload datatypes.JSON `gorm:"column:translated_payload;type:jsonb;not null" json:"translated_payload"`
	EngineName        string         `gorm:"column:engine_name" json:"engine_name,omitempty"`
	EngineVersion     string         `gorm:"column:engine_version" json:"engine_version,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Revision) TableName() string { return "revision" }
