package http

import "github.com/gin-gonic/gin"

// RegisterProjectRoutes attaches the sharing endpoints that hang off a
// project in the authenticated group.
func (h *Handler) RegisterProjectRoutes(rg *gin.RouterGroup) {
	rg.GET("/shared", h.sharedWithMe)
	rg.POST("/:id/share", h.createLink)
	rg.GET("/:id/share", h.listLinks)
	rg.DELETE("/:id/share/:token", h.revokeLink)
	rg.DELETE("/:id/membership", h.leave)
	rg.POST("/:id/fork", h.fork)
}

// RegisterShareRoutes attaches the token-facing endpoints. Resolution is
// anonymous; joining requires auth and is wired separately.
func (h *Handler) RegisterShareRoutes(public, authed *gin.RouterGroup) {
	public.GET("/share/:token", h.resolve)
	authed.POST("/share/:token/join", h.join)
}
