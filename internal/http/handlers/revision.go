package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glotbridge/glotbridge-backend/internal/domain"
	"github.com/glotbridge/glotbridge-backend/internal/http/response"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/services"
	"github.com/google/uuid"
)

type RevisionHandler struct {
	log             *logger.Logger
	revisionService services.RevisionService
}

func NewRevisionHandler(log *logger.Logger, revisionService services.RevisionService) *RevisionHandler {
	return &RevisionHandler{
		log:             log.With("handler", "RevisionHandler"),
		revisionService: revisionService,
	}
}

func (h *RevisionHandler) Publish(c *gin.Context) {
	h.transition(c, "publish", h.revisionService.Publish)
}

func (h *RevisionHandler) Unpublish(c *gin.Context) {
	h.transition(c, "unpublish", h.revisionService.Unpublish)
}

func (h *RevisionHandler) Reject(c *gin.Context) {
	h.transition(c, "reject", h.revisionService.Reject)
}

func (h *RevisionHandler) transition(c *gin.Context, action string, fn func(context.Context, uuid.UUID) (*domain.Head, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_revision_id", err)
		return
	}
	head, err := fn(c.Request.Context(), id)
	if err != nil {
		h.log.Warn("transition failed", "action", action, "revision_id", id, "error", err)
		response.RespondServiceError(c, action+"_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"head": head})
}
