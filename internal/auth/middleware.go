package auth

import (
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/planforge/planforge-backend/internal/users"
)

// FirebaseAuth validates Firebase ID tokens, upserts the user row and stores
// it in the gin context for downstream handlers.
func FirebaseAuth(authClient *fbauth.Client, userRepo *users.Repo, adminUIDs []string) gin.HandlerFunc {
	admins := make(map[string]bool, len(adminUIDs))
	for _, uid := range adminUIDs {
		admins[uid] = true
	}

	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			c.Abort()
			return
		}

		decoded, err := authClient.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			c.Abort()
			return
		}

		upsert := users.UpsertUser{FirebaseUID: decoded.UID}
		if email, ok := decoded.Claims["email"].(string); ok {
			upsert.Email = email
		}
		if name, ok := decoded.Claims["name"].(string); ok {
			upsert.DisplayName = name
		}
		if picture, ok := decoded.Claims["picture"].(string); ok {
			upsert.PhotoURL = picture
		}

		user, err := userRepo.EnsureUser(c.Request.Context(), upsert)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxFirebaseUID, decoded.UID)
		c.Set(CtxUserDBID, user.ID)
		c.Set(CtxUser, user)
		c.Set(CtxIsAdmin, admins[decoded.UID])

		c.Next()
	}
}

// DevAuth trusts the X-User-Id header and upserts a user row for it.
// Use this ONLY for development/testing.
func DevAuth(userRepo *users.Repo, adminUIDs []string) gin.HandlerFunc {
	admins := make(map[string]bool, len(adminUIDs))
	for _, uid := range adminUIDs {
		admins[uid] = true
	}

	return func(c *gin.Context) {
		fuid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if fuid == "" {
			fuid = "demo-user"
		}

		user, err := userRepo.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: fuid,
			Email:       c.GetHeader("X-User-Email"),
			DisplayName: c.GetHeader("X-User-Name"),
			PhotoURL:    c.GetHeader("X-User-Photo"),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxFirebaseUID, fuid)
		c.Set(CtxUserDBID, user.ID)
		c.Set(CtxUser, user)
		c.Set(CtxIsAdmin, admins[fuid])

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.HasPrefix(bearerToken, "Bearer ") {
		return bearerToken[7:]
	}
	return ""
}
