package users

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeUsername(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Alice", "alice"},
		{"  Alice Smith  ", "alice-smith"},
		{"alice_smith", "alice-smith"},
		{"alice.smith", "alice-smith"},
		{"alice---smith", "alice-smith"},
		{"--alice--", "alice"},
		{"Ålice!?", "lice"},
		{"", ""},
		{"___", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeUsername(tc.in))
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		for _, in := range []string{"Alice Smith", "a__b..c", "  X-Y-Z  "} {
			once := NormalizeUsername(in)
			assert.Equal(t, once, NormalizeUsername(once))
		}
	})

	t.Run("truncates to max length", func(t *testing.T) {
		long := strings.Repeat("a", 100)
		got := NormalizeUsername(long)
		assert.Len(t, got, 39)
	})

	t.Run("no trailing dash after truncation", func(t *testing.T) {
		in := strings.Repeat("a", 38) + "-bbbb"
		got := NormalizeUsername(in)
		assert.False(t, strings.HasSuffix(got, "-"))
	})
}

func TestValidateUsername(t *testing.T) {
	t.Run("accepts normal names", func(t *testing.T) {
		for _, name := range []string{"alice", "bob-42", "x9z"} {
			ok, reason := ValidateUsername(name)
			assert.True(t, ok, name)
			assert.Empty(t, reason)
		}
	})

	t.Run("rejects short names", func(t *testing.T) {
		ok, reason := ValidateUsername("ab")
		assert.False(t, ok)
		assert.Contains(t, reason, "at least 3")
	})

	t.Run("rejects leading digit", func(t *testing.T) {
		ok, reason := ValidateUsername("1alice")
		assert.False(t, ok)
		assert.Contains(t, reason, "start with a letter")
	})

	t.Run("rejects reserved names", func(t *testing.T) {
		for _, name := range []string{"admin", "explore", "share", "users"} {
			ok, reason := ValidateUsername(name)
			assert.False(t, ok, name)
			assert.Contains(t, reason, "reserved")
		}
	})
}

func TestCooldownAfter(t *testing.T) {
	day := 24 * time.Hour
	cases := []struct {
		count int
		want  time.Duration
	}{
		{0, 0},
		{1, 7 * day},
		{2, 14 * day},
		{3, 28 * day},
		{4, 56 * day},
		{5, 90 * day}, // doubling would pass the cap
		{6, 90 * day},
		{100, 90 * day},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CooldownAfter(tc.count), "count=%d", tc.count)
	}
}

func TestUserCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never changed", func(t *testing.T) {
		u := &User{}
		st := u.Cooldown(now)
		assert.True(t, st.CanChange)
		assert.Nil(t, st.NextChangeAt)
	})

	t.Run("inside window", func(t *testing.T) {
		changed := now.Add(-24 * time.Hour)
		u := &User{ChangedAt: &changed, ChangeCount: 1}
		st := u.Cooldown(now)
		assert.False(t, st.CanChange)
		require.NotNil(t, st.NextChangeAt)
		assert.Equal(t, changed.Add(7*24*time.Hour), *st.NextChangeAt)
		assert.Equal(t, "144h0m0s", st.Remaining)
	})

	t.Run("window elapsed", func(t *testing.T) {
		changed := now.Add(-8 * 24 * time.Hour)
		u := &User{ChangedAt: &changed, ChangeCount: 1}
		st := u.Cooldown(now)
		assert.True(t, st.CanChange)
	})
}

func TestTempUsername(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name := TempUsername()
		assert.True(t, strings.HasPrefix(name, "user-"))
		assert.Len(t, name, len("user-")+8)

		ok, reason := ValidateUsername(name)
		assert.True(t, ok, reason)

		assert.False(t, seen[name], "duplicate temp username %s", name)
		seen[name] = true
	}
}

func TestSuggestBase(t *testing.T) {
	assert.Equal(t, "alice-smith", SuggestBase("Alice Smith", "a@example.com"))
	assert.Equal(t, "alice", SuggestBase("", "alice@example.com"))
	assert.Equal(t, "a-smith", SuggestBase("", "a.smith@example.com"))
	assert.Equal(t, "", SuggestBase("", ""))
}
