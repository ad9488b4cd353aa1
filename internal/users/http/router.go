package http

import "github.com/gin-gonic/gin"

// Register attaches user routes to the authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.GET("/me/ban", h.banStatus)
	rg.GET("/me/username/temp", h.hasTempUsername)
	rg.GET("/me/username/cooldown", h.cooldown)
	rg.PUT("/me/username", h.setUsername)
	rg.GET("/username/available", h.available)
	rg.GET("/username/suggest", h.suggest)
}

// RegisterAdmin attaches moderation routes to the admin group.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.POST("/users/:id/ban", h.ban)
	rg.DELETE("/users/:id/ban", h.unban)
}
