package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TMUnit is a translation-memory entry. SrcHash is the reuse key built
// from the normalized source text, not a raw content hash, so texts that
// differ only in variable values or dates share one entry.
type TMUnit struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_tm_reuse,priority:1" json:"project_id"`
	Namespace  string         `gorm:"column:namespace;not null;uniqueIndex:idx_tm_reuse,priority:2" json:"namespace"`
	SrcHash    []byte         `gorm:"column:src_hash;type:bytea;not null;uniqueIndex:idx_tm_reuse,priority:3" json:"-"`
	SrcLang    string         `gorm:"column:src_lang;not null" json:"src_lang"`
	TgtLang    string         `gorm:"column:tgt_lang;not null;uniqueIndex:idx_tm_reuse,priority:4" json:"tgt_lang"`
	VariantKey string         `gorm:"column:variant_key;not null;uniqueIndex:idx_tm_reuse,priority:5" json:"variant_key"`
	SrcPayload datatypes.JSON `gorm:"column:src_payload;type:jsonb;not null" json:"src_payload"`
	TgtPayload datatypes.JSON `gorm:"column:tgt_payload;type:jsonb;not null" json:"tgt_payload"`
	Approved   bool           `gorm:"column:approved;not null;default:false;index" json:"approved"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
}

func (TMUnit) TableName() string { return "tm_unit" }

// TMLink records which revision consumed which TM entry.
type TMLink struct {
	RevisionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"revision_id"`
	TMUnitID   uuid.UUID `gorm:"type:uuid;column:tm_unit_id;primaryKey" json:"tm_unit_id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (TMLink) TableName() string { return "tm_link" }
