package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/planforge/planforge-backend/internal/users"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxUserDBID    = "user_db_id"
	CtxUser        = "current_user"
	CtxIsAdmin     = "is_admin"
)

// UserDBID returns the database id of the authenticated user, set by the auth
// middleware. Empty on unauthenticated routes.
func UserDBID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserDBID))
}

func FirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// CurrentUser returns the user row loaded by the auth middleware, or nil.
func CurrentUser(c *gin.Context) *users.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*users.User); ok {
			return u
		}
	}
	return nil
}

func IsAdmin(c *gin.Context) bool {
	return c.GetBool(CtxIsAdmin)
}
