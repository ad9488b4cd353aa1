package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planforge/planforge-backend/internal/apperr"
	"github.com/planforge/planforge-backend/internal/explore"
	"github.com/planforge/planforge-backend/internal/projects"
)

type Handler struct {
	svc *explore.Service
}

func NewHandler(svc *explore.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) listFeatured(c *gin.Context) {
	items, err := h.svc.ListFeatured(c.Request.Context())
	if err != nil {
		apperr.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) feature(c *gin.Context) {
	h.setFeatured(c, true)
}

func (h *Handler) unfeature(c *gin.Context) {
	h.setFeatured(c, false)
}

func (h *Handler) setFeatured(c *gin.Context, featured bool) {
	if err := h.svc.SetFeatured(c.Request.Context(), c.Param("id"), featured); err != nil {
		if errors.Is(err, projects.ErrNotFound) {
			apperr.WriteError(c, apperr.NotFound(err.Error()))
			return
		}
		apperr.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Register attaches the public explore feed.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/featured", h.listFeatured)
}

// RegisterAdmin attaches curation routes to the admin group.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.PUT("/projects/:id/feature", h.feature)
	rg.DELETE("/projects/:id/feature", h.unfeature)
}
