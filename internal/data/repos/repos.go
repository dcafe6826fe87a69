package repos

import (
	"github.com/glotbridge/glotbridge-backend/internal/data/repos/content"
	"github.com/glotbridge/glotbridge-backend/internal/data/repos/outbox"
	"github.com/glotbridge/glotbridge-backend/internal/data/repos/project"
	"github.com/glotbridge/glotbridge-backend/internal/data/repos/revision"
	"github.com/glotbridge/glotbridge-backend/internal/data/repos/tm"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ProjectRepo = project.ProjectRepo
type ContentRepo = content.ContentRepo
type HeadRepo = revision.HeadRepo
type RevisionRepo = revision.RevisionRepo
type TMRepo = tm.TMRepo
type OutboxRepo = outbox.OutboxRepo

type EngineMeta = revision.EngineMeta
type TMFilters = tm.Filters

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return project.NewProjectRepo(db, baseLog)
}

func NewContentRepo(db *gorm.DB, baseLog *logger.Logger) ContentRepo {
	return content.NewContentRepo(db, baseLog)
}

func NewHeadRepo(db *gorm.DB, baseLog *logger.Logger) HeadRepo {
	return revision.NewHeadRepo(db, baseLog)
}

func NewRevisionRepo(db *gorm.DB, baseLog *logger.Logger) RevisionRepo {
	return revision.NewRevisionRepo(db, baseLog)
}

func NewTMRepo(db *gorm.DB, baseLog *logger.Logger) TMRepo {
	return tm.NewTMRepo(db, baseLog)
}

func NewOutboxRepo(db *gorm.DB, baseLog *logger.Logger) OutboxRepo {
	return outbox.NewOutboxRepo(db, baseLog)
}
