package domain

import (
	"time"

	"github.com/google/uuid"
)

// Head is the one mutable pointer per (project, content, target language,
// variant). CurrentRevID always references the highest-numbered revision
// for the tuple; PublishedRevID, when set, references a revision with
// status published, and no two heads may share one.
//
// ClaimedAt stamps a skip-locked worker claim; a draft head with a fresh
// ClaimedAt is skipped by other workers until the claim goes stale.
type Head struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_head_tuple,priority:1" json:"project_id"`
	ContentID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_head_tuple,priority:2" json:"content_id"`
	TargetLang     string     `gorm:"column:target_lang;not null;uniqueIndex:idx_head_tuple,priority:3" json:"target_lang"`
	VariantKey     string     `gorm:"column:variant_key;not null;uniqueIndex:idx_head_tuple,priority:4" json:"variant_key"`
	CurrentRevID   uuid.UUID  `gorm:"type:uuid;column:current_rev_id;not null" json:"current_rev_id"`
	CurrentStatus  string     `gorm:"column:current_status;not null;index" json:"current_status"`
	CurrentNo      int        `gorm:"column:current_no;not null" json:"current_no"`
	PublishedRevID *uuid.UUID `gorm:"type:uuid;column:published_rev_id;uniqueIndex" json:"published_rev_id,omitempty"`
	PublishedNo    *int       `gorm:"column:published_no" json:"published_no,omitempty"`
	PublishedAt    *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	ClaimedAt      *time.Time `gorm:"column:claimed_at;index" json:"claimed_at,omitempty"`
	Attempts       int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	CreatedAt      time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Head) TableName() string { return "head" }
