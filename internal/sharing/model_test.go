package sharing

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/planforge/planforge-backend/internal/projects"
)

func TestNewToken(t *testing.T) {
	hex32 := regexp.MustCompile(`^[0-9a-f]{32}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok := NewToken()
		assert.Regexp(t, hex32, tok)
		assert.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}

func TestShareLinkValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("open link", func(t *testing.T) {
		l := &ShareLink{Token: NewToken(), Role: projects.RoleViewer}
		assert.True(t, l.Valid(now))
	})

	t.Run("not yet expired", func(t *testing.T) {
		l := &ShareLink{ExpiresAt: &future}
		assert.True(t, l.Valid(now))
	})

	t.Run("expired", func(t *testing.T) {
		l := &ShareLink{ExpiresAt: &past}
		assert.False(t, l.Valid(now))
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		l := &ShareLink{ExpiresAt: &now}
		assert.False(t, l.Valid(now))
	})

	t.Run("revoked wins over expiry", func(t *testing.T) {
		l := &ShareLink{RevokedAt: &past, ExpiresAt: &future}
		assert.False(t, l.Valid(now))
	})
}
