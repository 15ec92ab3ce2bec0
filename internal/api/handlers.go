// Package api exposes the HTTP collaborator surface: template CRUD with
// owner short-circuits and generation enqueueing. The generation pipeline
// itself runs in the queue worker, never in a request handler.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/indicator"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/queue"
	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/internal/template"
)

// Handler carries the collaborators the HTTP surface needs.
type Handler struct {
	templates *template.Repository
	catalog   *indicator.Catalog
	producer  *queue.Producer
	logger    zerolog.Logger
}

// NewHandler wires the HTTP handlers.
func NewHandler(templates *template.Repository, catalog *indicator.Catalog, producer *queue.Producer, logger zerolog.Logger) *Handler {
	return &Handler{
		templates: templates,
		catalog:   catalog,
		producer:  producer,
		logger:    logger.With().Str("component", "API").Logger(),
	}
}

// generateRequest is the body for creating (or regenerating) a template.
type generateRequest struct {
	Name           string                 `json:"name" binding:"required"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category"`
	TemplateType   string                 `json:"template_type"`
	Direction      string                 `json:"direction"`
	Timeframe      string                 `json:"timeframe"`
	ConversationID string                 `json:"conversation_id"`
	Messages       []queue.RequestMessage `json:"messages"`
}

// CreateTemplate accepts a generation request: the template is created in
// "generating" status and the work is enqueued; the response is 202 with
// the template id to poll.
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ConversationID == "" && len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id or messages is required"})
		return
	}

	owner := ownerFrom(c)
	tmpl := &template.Template{
		Owner:       owner,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Type:        parseTemplateType(req.TemplateType),
		Status:      template.StatusGenerating,
	}
	if err := h.templates.Create(c.Request.Context(), tmpl); err != nil {
		h.logger.Error().Err(err).Msg("failed to create template")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create template"})
		return
	}

	if err := h.enqueue(c, tmpl, req); err != nil {
		return
	}

	c.JSON(http.StatusAccepted, tmpl)
}

// RegenerateTemplate re-enters the pipeline for an existing template. The
// ownership check short-circuits before any generation work.
func (h *Handler) RegenerateTemplate(c *gin.Context) {
	tmpl, ok := h.ownedTemplate(c)
	if !ok {
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ConversationID == "" && len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id or messages is required"})
		return
	}

	if req.Name != "" {
		tmpl.Name = req.Name
	}
	if req.Description != "" {
		tmpl.Description = req.Description
	}
	if req.Category != "" {
		tmpl.Category = req.Category
	}
	if req.TemplateType != "" {
		tmpl.Type = parseTemplateType(req.TemplateType)
	}
	tmpl.Status = template.StatusGenerating
	tmpl.ErrorMessage = ""

	if err := h.templates.Update(c.Request.Context(), tmpl); err != nil {
		h.logger.Error().Err(err).Str("template_id", tmpl.ID).Msg("failed to update template")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update template"})
		return
	}

	if err := h.enqueue(c, tmpl, req); err != nil {
		return
	}

	c.JSON(http.StatusAccepted, tmpl)
}

func (h *Handler) enqueue(c *gin.Context, tmpl *template.Template, req generateRequest) error {
	if h.producer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "generation queue is not configured"})
		return errors.New("generation queue is not configured")
	}

	msg := queue.GenerationRequest{
		TemplateID:     tmpl.ID,
		ConversationID: req.ConversationID,
		Owner:          tmpl.Owner,
		Name:           tmpl.Name,
		Description:    tmpl.Description,
		Category:       tmpl.Category,
		TemplateType:   string(tmpl.Type),
		Direction:      req.Direction,
		Timeframe:      req.Timeframe,
		Messages:       req.Messages,
	}

	if err := h.producer.Enqueue(c.Request.Context(), msg); err != nil {
		h.logger.Error().Err(err).Str("template_id", tmpl.ID).Msg("failed to enqueue generation")
		// Leave an honest status behind; the client may retry.
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
		defer cancel()
		if markErr := h.templates.MarkFailed(writeCtx, tmpl.ID, "failed to enqueue generation request"); markErr != nil {
			h.logger.Error().Err(markErr).Str("template_id", tmpl.ID).Msg("failed to record enqueue failure")
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue generation request"})
		return err
	}
	return nil
}

// GetTemplate returns one template; owners only.
func (h *Handler) GetTemplate(c *gin.Context) {
	tmpl, ok := h.ownedTemplate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// ListTemplates returns the caller's templates.
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.templates.GetByOwner(c.Request.Context(), ownerFrom(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list templates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list templates"})
		return
	}
	if templates == nil {
		templates = []*template.Template{}
	}
	c.JSON(http.StatusOK, templates)
}

// DeleteTemplate removes one template; owners only.
func (h *Handler) DeleteTemplate(c *gin.Context) {
	tmpl, ok := h.ownedTemplate(c)
	if !ok {
		return
	}

	if err := h.templates.Delete(c.Request.Context(), tmpl.ID); err != nil {
		h.logger.Error().Err(err).Str("template_id", tmpl.ID).Msg("failed to delete template")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete template"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ownedTemplate loads the template from the :id parameter and enforces
// ownership. Templates belonging to another owner read as not found to
// avoid leaking their existence.
func (h *Handler) ownedTemplate(c *gin.Context) (*template.Template, bool) {
	id := c.Param("id")

	tmpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		} else {
			h.logger.Error().Err(err).Str("template_id", id).Msg("failed to load template")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load template"})
		}
		return nil, false
	}

	if tmpl.Owner != ownerFrom(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return nil, false
	}
	return tmpl, true
}

// ListIndicators returns all active catalog definitions.
func (h *Handler) ListIndicators(c *gin.Context) {
	defs, err := h.catalog.GetAllActive(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list indicator definitions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list indicator definitions"})
		return
	}
	if defs == nil {
		defs = []indicator.Definition{}
	}
	c.JSON(http.StatusOK, defs)
}

// UpsertIndicator writes a catalog definition and invalidates the cache.
func (h *Handler) UpsertIndicator(c *gin.Context) {
	var def indicator.Definition
	if err := c.ShouldBindJSON(&def); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	def.Type = c.Param("type")

	if err := h.catalog.Upsert(c.Request.Context(), def); err != nil {
		h.logger.Error().Err(err).Str("type", def.Type).Msg("failed to upsert indicator definition")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upsert indicator definition"})
		return
	}
	c.JSON(http.StatusOK, def)
}

// DeleteIndicator removes a catalog definition and invalidates the cache.
func (h *Handler) DeleteIndicator(c *gin.Context) {
	typeKey := c.Param("type")
	if err := h.catalog.Delete(c.Request.Context(), typeKey); err != nil {
		h.logger.Error().Err(err).Str("type", typeKey).Msg("failed to delete indicator definition")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete indicator definition"})
		return
	}
	c.Status(http.StatusNoContent)
}

func parseTemplateType(s string) template.Type {
	if s == string(template.TypeSignal) {
		return template.TypeSignal
	}
	return template.TypeStepwise
}
