package app

import (
	"gorm.io/gorm"

	"github.com/glotbridge/glotbridge-backend/internal/data/repos"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

type Repos struct {
	Project  repos.ProjectRepo
	Content  repos.ContentRepo
	Head     repos.HeadRepo
	Revision repos.RevisionRepo
	TM       repos.TMRepo
	Outbox   repos.OutboxRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Project:  repos.NewProjectRepo(db, log),
		Content:  repos.NewContentRepo(db, log),
		Head:     repos.NewHeadRepo(db, log),
		Revision: repos.NewRevisionRepo(db, log),
		TM:       repos.NewTMRepo(db, log),
		Outbox:   repos.NewOutboxRepo(db, log),
	}
}
