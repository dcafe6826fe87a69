package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glotbridge/glotbridge-backend/internal/http/response"
	"github.com/glotbridge/glotbridge-backend/internal/platform/apperrors"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
	"github.com/glotbridge/glotbridge-backend/internal/services"
	"github.com/google/uuid"
)

type ResolveHandler struct {
	log      *logger.Logger
	resolver services.Resolver
	content  services.ContentService
}

func NewResolveHandler(log *logger.Logger, resolver services.Resolver, content services.ContentService) *ResolveHandler {
	return &ResolveHandler{
		log:      log.With("handler", "ResolveHandler"),
		resolver: resolver,
		content:  content,
	}
}

// Resolve serves GET /api/resolve. The content is addressed either by
// content_id or by namespace plus a JSON-encoded keys object.
func (h *ResolveHandler) Resolve(c *gin.Context) {
	projectID, err := uuid.Parse(c.Query("project_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	lang := c.Query("lang")
	if lang == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_lang", nil)
		return
	}
	contentID, err := h.contentID(c, projectID)
	if err != nil {
		response.RespondServiceError(c, "resolve_failed", err)
		return
	}
	res, err := h.resolver.Resolve(c.Request.Context(), projectID, contentID, lang, c.Query("variant"))
	if err != nil {
		response.RespondServiceError(c, "resolve_failed", err)
		return
	}
	response.RespondOK(c, res)
}

func (h *ResolveHandler) contentID(c *gin.Context, projectID uuid.UUID) (uuid.UUID, error) {
	if raw := c.Query("content_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid content_id: %w", apperrors.ErrInvalidArgument)
		}
		return id, nil
	}
	var keys map[string]any
	if err := json.Unmarshal([]byte(c.Query("keys")), &keys); err != nil {
		return uuid.Nil, fmt.Errorf("invalid keys: %w", apperrors.ErrInvalidArgument)
	}
	row, err := h.content.Lookup(c.Request.Context(), projectID, c.Query("namespace"), keys)
	if err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}
