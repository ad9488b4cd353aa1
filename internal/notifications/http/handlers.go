package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/planforge/planforge-backend/internal/apperr"
	"github.com/planforge/planforge-backend/internal/auth"
	"github.com/planforge/planforge-backend/internal/notifications"
)

type Handler struct {
	svc *notifications.Service
}

func NewHandler(svc *notifications.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var before *notifications.Cursor
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid before cursor"})
			return
		}
		before = &notifications.Cursor{CreatedAt: t, ID: c.Query("before_id")}
	}

	items, err := h.svc.List(c.Request.Context(), auth.UserDBID(c), limit, before)
	if err != nil {
		apperr.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "notifications": items})
}

func (h *Handler) unreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), auth.UserDBID(c))
	if err != nil {
		apperr.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "unread": n})
}

func (h *Handler) markRead(c *gin.Context) {
	err := h.svc.MarkRead(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			apperr.WriteError(c, apperr.NotFound(err.Error()))
			return
		}
		apperr.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) markAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), auth.UserDBID(c))
	if err != nil {
		apperr.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "marked": n})
}

// Register attaches notification routes to the authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/unread", h.unreadCount)
	rg.POST("/:id/read", h.markRead)
	rg.POST("/read-all", h.markAllRead)
}
