package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserBanned(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("not banned", func(t *testing.T) {
		u := &User{}
		assert.False(t, u.Banned(now))
		assert.Equal(t, BanStatus{}, u.BanStatus(now))
	})

	t.Run("permanent ban", func(t *testing.T) {
		u := &User{BannedAt: &past, BanReason: "abuse"}
		assert.True(t, u.Banned(now))

		st := u.BanStatus(now)
		assert.True(t, st.Banned)
		assert.Equal(t, "abuse", st.Reason)
		assert.Nil(t, st.ExpiresAt)
	})

	t.Run("temporary ban still active", func(t *testing.T) {
		u := &User{BannedAt: &past, BanExpiresAt: &future}
		assert.True(t, u.Banned(now))
	})

	t.Run("expired ban is lifted", func(t *testing.T) {
		u := &User{BannedAt: &past, BanExpiresAt: &past}
		assert.False(t, u.Banned(now))
		assert.Equal(t, BanStatus{}, u.BanStatus(now))
	})
}
