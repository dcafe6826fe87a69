package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glotbridge/glotbridge-backend/internal/http/response"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/services"
	"github.com/google/uuid"
)

type ContentHandler struct {
	log            *logger.Logger
	contentService services.ContentService
}

func NewContentHandler(log *logger.Logger, contentService services.ContentService) *ContentHandler {
	return &ContentHandler{
		log:            log.With("handler", "ContentHandler"),
		contentService: contentService,
	}
}

func (h *ContentHandler) Submit(c *gin.Context) {
	var in services.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.contentService.Submit(c.Request.Context(), in)
	if err != nil {
		h.log.Error("Submit failed", "error", err, "project_id", in.ProjectID)
		response.RespondServiceError(c, "submit_failed", err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ContentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	row, err := h.contentService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "load_content_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"content": row})
}

func (h *ContentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	if err := h.contentService.Delete(c.Request.Context(), id); err != nil {
		h.log.Error("Delete failed", "error", err, "content_id", id)
		response.RespondServiceError(c, "delete_content_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"content_id": id})
}

func (h *ContentHandler) ListRevisions(c *gin.Context) {
	headID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_head_id", err)
		return
	}
	revs, err := h.contentService.Revisions(c.Request.Context(), headID)
	if err != nil {
		response.RespondServiceError(c, "load_revisions_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"revisions": revs})
}
