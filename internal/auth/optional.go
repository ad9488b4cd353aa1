package auth

import (
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/planforge/planforge-backend/internal/users"
)

// OptionalFirebaseAuth identifies the caller when a valid token is present and
// lets the request through anonymously otherwise. Public routes (resolve,
// share links, explore) use this so visibility checks can still see who asks.
func OptionalFirebaseAuth(authClient *fbauth.Client, userRepo *users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		decoded, err := authClient.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		user, err := userRepo.EnsureUser(c.Request.Context(), users.UpsertUser{FirebaseUID: decoded.UID})
		if err != nil {
			c.Next()
			return
		}

		c.Set(CtxFirebaseUID, decoded.UID)
		c.Set(CtxUserDBID, user.ID)
		c.Set(CtxUser, user)
		c.Next()
	}
}

// OptionalDevAuth is the X-User-Id flavor of OptionalFirebaseAuth. Unlike
// DevAuth there is no demo-user fallback: no header means anonymous.
func OptionalDevAuth(userRepo *users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		fuid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if fuid == "" {
			c.Next()
			return
		}

		user, err := userRepo.EnsureUser(c.Request.Context(), users.UpsertUser{FirebaseUID: fuid})
		if err != nil {
			c.Next()
			return
		}

		c.Set(CtxFirebaseUID, fuid)
		c.Set(CtxUserDBID, user.ID)
		c.Set(CtxUser, user)
		c.Next()
	}
}
