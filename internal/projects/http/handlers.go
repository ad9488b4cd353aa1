package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/planforge/planforge-backend/internal/apperr"
	"github.com/planforge/planforge-backend/internal/auth"
	"github.com/planforge/planforge-backend/internal/projects"
	"github.com/planforge/planforge-backend/internal/projects/service"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type createReq struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Public      bool   `json:"is_public"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.Create(c.Request.Context(), auth.UserDBID(c), service.CreateInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Public:      req.Public,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.ListOwn(c.Request.Context(), auth.UserDBID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	p, role, err := h.svc.Get(c.Request.Context(), c.Param("id"), auth.UserDBID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p, "role": role})
}

type updateReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Public      *bool   `json:"is_public"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), auth.UserDBID(c), projects.UpdateProject{
		Name:        req.Name,
		Description: req.Description,
		Public:      req.Public,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), auth.UserDBID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type saveReq struct {
	Version string `json:"version"`
	Content string `json:"content"`
}

func (h *Handler) save(c *gin.Context) {
	var req saveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	v, snap, err := h.svc.Save(c.Request.Context(), c.Param("id"), auth.UserDBID(c), req.Version, req.Content)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": v, "snapshot": snap})
}

type createVersionReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FromVersion string `json:"from_version"`
}

func (h *Handler) createVersion(c *gin.Context) {
	var req createVersionReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	v, err := h.svc.CreateVersion(c.Request.Context(), c.Param("id"), auth.UserDBID(c),
		req.Name, req.Description, req.FromVersion)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "version": v})
}

func (h *Handler) deleteVersion(c *gin.Context) {
	err := h.svc.DeleteVersion(c.Request.Context(), c.Param("id"), auth.UserDBID(c), c.Param("name"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listVersions(c *gin.Context) {
	items, err := h.svc.ListVersions(c.Request.Context(), c.Param("id"), auth.UserDBID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "versions": items})
}

func (h *Handler) setDefaultVersion(c *gin.Context) {
	v, err := h.svc.SetDefaultVersion(c.Request.Context(), c.Param("id"), auth.UserDBID(c), c.Param("name"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": v})
}

func (h *Handler) snapshot(c *gin.Context) {
	snap, content, err := h.svc.SnapshotContent(c.Request.Context(), c.Param("id"), auth.UserDBID(c), c.Param("hash"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "snapshot": snap, "content": content})
}

// resolve serves the public project URLs /u/:username/:slug[/v/:version].
func (h *Handler) resolve(c *gin.Context) {
	p, v, content, err := h.svc.Resolve(c.Request.Context(),
		c.Param("username"), c.Param("slug"), c.Param("version"), auth.UserDBID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p, "version": v, "content": content})
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, projects.ErrNotFound),
		errors.Is(err, projects.ErrVersionNotFound),
		errors.Is(err, projects.ErrSnapshotNotFound):
		apperr.WriteError(c, apperr.NotFound(err.Error()))
	case errors.Is(err, projects.ErrSlugTaken),
		errors.Is(err, projects.ErrVersionExists):
		apperr.WriteError(c, apperr.Conflict(err.Error()))
	case errors.Is(err, projects.ErrAccessDenied):
		apperr.WriteError(c, apperr.Forbidden(err.Error()))
	case errors.Is(err, projects.ErrReservedVersionName),
		errors.Is(err, projects.ErrInvalidVersionName),
		errors.Is(err, projects.ErrDefaultVersion),
		errors.Is(err, projects.ErrInvalidName),
		errors.Is(err, projects.ErrEmptyContent):
		apperr.WriteError(c, apperr.BadRequest(err.Error()))
	default:
		apperr.WriteError(c, err)
	}
}
