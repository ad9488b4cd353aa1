package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequireNotBanned rejects mutating requests from banned accounts. Reads stay
// open so the client can still render the ban notice.
func RequireNotBanned() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		u := CurrentUser(c)
		if u != nil && u.Banned(time.Now()) {
			c.JSON(http.StatusForbidden, gin.H{
				"ok":    false,
				"error": "account is banned",
				"ban":   u.BanStatus(time.Now()),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin gates curation and moderation endpoints.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
