package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glotbridge/glotbridge-backend/internal/http/response"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/services"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
}

func NewProjectHandler(log *logger.Logger, projectService services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		log:            log.With("handler", "ProjectHandler"),
		projectService: projectService,
	}
}

type createProjectRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	proj, err := h.projectService.Create(c.Request.Context(), req.DisplayName)
	if err != nil {
		h.log.Error("Create failed", "error", err)
		response.RespondServiceError(c, "create_project_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"project": proj})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	proj, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "load_project_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"project": proj})
}

type setFallbacksRequest struct {
	Chains map[string][]string `json:"chains" binding:"required"`
}

func (h *ProjectHandler) SetFallbacks(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	var req setFallbacksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.projectService.SetFallbacks(c.Request.Context(), id, req.Chains); err != nil {
		h.log.Error("SetFallbacks failed", "error", err, "project_id", id)
		response.RespondServiceError(c, "set_fallbacks_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"project_id": id})
}

func (h *ProjectHandler) GetFallbacks(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	locale := c.Query("locale")
	if locale == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_locale", nil)
		return
	}
	chain, err := h.projectService.FallbackChain(c.Request.Context(), id, locale)
	if err != nil {
		response.RespondServiceError(c, "load_fallbacks_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"locale": locale, "chain": chain})
}
