package sharing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/planforge/planforge-backend/internal/projects"
)

var (
	ErrLinkNotFound   = errors.New("share link not found")
	ErrLinkExpired    = errors.New("share link expired")
	ErrOwnerCantLeave = errors.New("owner cannot leave their own project")
	ErrNotMember      = errors.New("not a member of this project")
)

// ShareLink grants access to a project by token, without an account for
// viewer links. Expiry and revocation are both checked at read time.
type ShareLink struct {
	Token     string        `json:"token"`
	ProjectID string        `json:"project_id"`
	Role      projects.Role `json:"role"`
	CreatedBy string        `json:"created_by"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	RevokedAt *time.Time    `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}

// Valid reports whether the link still grants access.
func (l *ShareLink) Valid(now time.Time) bool {
	if l.RevokedAt != nil {
		return false
	}
	if l.ExpiresAt != nil && !now.Before(*l.ExpiresAt) {
		return false
	}
	return true
}

type Membership struct {
	ProjectID string        `json:"project_id"`
	UserID    string        `json:"user_id"`
	Role      projects.Role `json:"role"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewToken returns a 32-hex-char share token from crypto/rand.
func NewToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic("sharing: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
