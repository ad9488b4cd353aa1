package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/planforge/planforge-backend/internal/apperr"
	"github.com/planforge/planforge-backend/internal/auth"
	"github.com/planforge/planforge-backend/internal/projects"
	"github.com/planforge/planforge-backend/internal/sharing"
)

type Handler struct {
	svc *sharing.Service
}

func NewHandler(svc *sharing.Service) *Handler {
	return &Handler{svc: svc}
}

type createLinkReq struct {
	Role           string `json:"role"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

func (h *Handler) createLink(c *gin.Context) {
	var req createLinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	link, err := h.svc.CreateLink(c.Request.Context(), c.Param("id"), auth.UserDBID(c),
		projects.Role(req.Role), time.Duration(req.ExpiresInHours)*time.Hour)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "share_link": link})
}

func (h *Handler) listLinks(c *gin.Context) {
	links, err := h.svc.ListLinks(c.Request.Context(), c.Param("id"), auth.UserDBID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "share_links": links})
}

func (h *Handler) revokeLink(c *gin.Context) {
	err := h.svc.RevokeLink(c.Request.Context(), c.Param("id"), auth.UserDBID(c), c.Param("token"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// resolve is open to anonymous callers: viewer links work without an account.
func (h *Handler) resolve(c *gin.Context) {
	link, p, err := h.svc.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"role":    link.Role,
		"project": p,
	})
}

func (h *Handler) join(c *gin.Context) {
	m, p, err := h.svc.Join(c.Request.Context(), c.Param("token"), auth.UserDBID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "membership": m, "project": p})
}

func (h *Handler) leave(c *gin.Context) {
	if err := h.svc.Leave(c.Request.Context(), c.Param("id"), auth.UserDBID(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) sharedWithMe(c *gin.Context) {
	items, err := h.svc.SharedWithMe(c.Request.Context(), auth.UserDBID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) fork(c *gin.Context) {
	fork, err := h.svc.Fork(c.Request.Context(), c.Param("id"), auth.UserDBID(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": fork})
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sharing.ErrLinkNotFound),
		errors.Is(err, sharing.ErrLinkExpired),
		errors.Is(err, projects.ErrNotFound):
		apperr.WriteError(c, apperr.NotFound(err.Error()))
	case errors.Is(err, sharing.ErrOwnerCantLeave),
		errors.Is(err, projects.ErrAccessDenied):
		apperr.WriteError(c, apperr.Forbidden(err.Error()))
	case errors.Is(err, sharing.ErrNotMember):
		apperr.WriteError(c, apperr.NotFound(err.Error()))
	case errors.Is(err, projects.ErrSlugTaken):
		apperr.WriteError(c, apperr.Conflict(err.Error()))
	default:
		apperr.WriteError(c, err)
	}
}
