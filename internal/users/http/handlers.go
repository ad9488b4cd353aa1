package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/planforge/planforge-backend/internal/apperr"
	"github.com/planforge/planforge-backend/internal/auth"
	"github.com/planforge/planforge-backend/internal/ratelimit"
	"github.com/planforge/planforge-backend/internal/users"
)

type Handler struct {
	repo    *users.Repo
	limiter *ratelimit.Keyed
}

func NewHandler(repo *users.Repo, limiter *ratelimit.Keyed) *Handler {
	return &Handler{repo: repo, limiter: limiter}
}

func (h *Handler) me(c *gin.Context) {
	u := auth.CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"user":     u,
		"ban":      u.BanStatus(now),
		"cooldown": u.Cooldown(now),
	})
}

func (h *Handler) hasTempUsername(c *gin.Context) {
	u := auth.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"ok": true, "has_temp_username": u != nil && u.UsernameIsTemp})
}

func (h *Handler) banStatus(c *gin.Context) {
	u := auth.CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "ban": u.BanStatus(time.Now())})
}

func (h *Handler) cooldown(c *gin.Context) {
	u := auth.CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "cooldown": u.Cooldown(time.Now())})
}

func (h *Handler) available(c *gin.Context) {
	userID := auth.UserDBID(c)
	if !h.limiter.Allow(userID) {
		apperr.WriteError(c, apperr.TooMany("slow down"))
		return
	}

	candidate := users.NormalizeUsername(c.Query("u"))
	if ok, reason := users.ValidateUsername(candidate); !ok {
		c.JSON(http.StatusOK, gin.H{"ok": true, "username": candidate, "available": false, "reason": reason})
		return
	}

	available, err := h.repo.IsAvailable(c.Request.Context(), candidate, userID)
	if err != nil {
		apperr.WriteError(c, err)
		return
	}

	resp := gin.H{"ok": true, "username": candidate, "available": available}
	if !available {
		resp["reason"] = "username is taken or reserved"
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) suggest(c *gin.Context) {
	u := auth.CurrentUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
		return
	}

	suggestion, err := h.repo.Suggest(c.Request.Context(), u)
	if err != nil {
		apperr.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "username": suggestion})
}

type setUsernameReq struct {
	Username string `json:"username"`
}

func (h *Handler) setUsername(c *gin.Context) {
	var req setUsernameReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	candidate := users.NormalizeUsername(req.Username)
	if ok, reason := users.ValidateUsername(candidate); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": reason})
		return
	}

	updated, err := h.repo.SetUsername(c.Request.Context(), auth.UserDBID(c), candidate)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": updated})
}

type banReq struct {
	Reason         string `json:"reason"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

func (h *Handler) ban(c *gin.Context) {
	var req banReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	var expiresAt *time.Time
	if req.ExpiresInHours > 0 {
		t := time.Now().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		expiresAt = &t
	}

	if err := h.repo.Ban(c.Request.Context(), c.Param("id"), req.Reason, expiresAt); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) unban(c *gin.Context) {
	if err := h.repo.Unban(c.Request.Context(), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		apperr.WriteError(c, apperr.NotFound(err.Error()))
	case errors.Is(err, users.ErrUsernameTaken), errors.Is(err, users.ErrUsernameReserved):
		apperr.WriteError(c, apperr.Conflict(err.Error()))
	case errors.Is(err, users.ErrCooldownActive):
		apperr.WriteError(c, apperr.TooMany(err.Error()))
	case errors.Is(err, users.ErrInvalidUsername):
		apperr.WriteError(c, apperr.BadRequest(err.Error()))
	default:
		apperr.WriteError(c, err)
	}
}
