package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DisplayName string    `gorm:"column:display_name;not null" json:"display_name"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

// FallbackOrder configures, per project and requested locale, the ordered
// list of locales a resolve degrades to when nothing is published for the
// requested one.
type FallbackOrder struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_fallback_locale,priority:1" json:"project_id"`
	Locale    string         `gorm:"column:locale;not null;uniqueIndex:idx_fallback_locale,priority:2" json:"locale"`
	Chain     datatypes.JSON `gorm:"column:chain;type:jsonb;not null" json:"chain"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (FallbackOrder) TableName() string { return "fallback_order" }
