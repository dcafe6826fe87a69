package db

import (
	types "github.com/glotbridge/glotbridge-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// Tenancy + locale configuration
		&types.Project{},
		&types.FallbackOrder{},

		// Versioned content store
		&types.Content{},
		&types.Revision{},
		&types.Head{},

		// Translation memory
		&types.TMUnit{},
		&types.TMLink{},

		// Event propagation
		&types.OutboxEvent{},
	)
}
