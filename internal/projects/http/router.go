package http

import "github.com/gin-gonic/gin"

// Register attaches project routes to the authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.DELETE("/:id", h.remove)

	rg.POST("/:id/save", h.save)
	rg.GET("/:id/versions", h.listVersions)
	rg.POST("/:id/versions", h.createVersion)
	rg.DELETE("/:id/versions/:name", h.deleteVersion)
	rg.PUT("/:id/versions/:name/default", h.setDefaultVersion)
	rg.GET("/:id/snapshots/:hash", h.snapshot)
}

// RegisterPublic attaches the /u/:username/:slug resolution routes. These run
// behind optional auth so private projects stay visible to their members.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/u/:username/:slug", h.resolve)
	rg.GET("/u/:username/:slug/v/:version", h.resolve)
}
