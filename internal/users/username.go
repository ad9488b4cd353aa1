package users

import (
	"crypto/rand"
	"strings"
	"time"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 39

	cooldownBase = 7 * 24 * time.Hour
	cooldownCap  = 90 * 24 * time.Hour
)

// Route segments and product names that can never become usernames; they
// would collide with /u/:username style paths.
var reservedUsernames = map[string]bool{
	"admin": true, "administrator": true, "api": true, "app": true,
	"banned": true, "dashboard": true, "explore": true, "help": true,
	"login": true, "logout": true, "new": true, "planforge": true,
	"settings": true, "share": true, "signup": true, "support": true,
	"u": true, "user": true, "users": true,
}

// NormalizeUsername lowercases, maps separators to '-', strips everything
// outside [a-z0-9-], collapses runs of '-' and trims the ends. Idempotent.
func NormalizeUsername(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	prevDash := true // leading dashes are dropped
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case r == ' ' || r == '_' || r == '-' || r == '.':
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > usernameMaxLen {
		out = strings.TrimRight(out[:usernameMaxLen], "-")
	}
	return out
}

// ValidateUsername checks a normalized candidate and returns a human-readable
// reason when it cannot be used.
func ValidateUsername(name string) (ok bool, reason string) {
	if len(name) < usernameMinLen {
		return false, "username must be at least 3 characters"
	}
	if len(name) > usernameMaxLen {
		return false, "username is too long"
	}
	if name[0] < 'a' || name[0] > 'z' {
		return false, "username must start with a letter"
	}
	if reservedUsernames[name] {
		return false, "username is reserved"
	}
	return true, ""
}

// CooldownAfter computes how long a user must wait after their changeCount'th
// real username change: 7d, 14d, 28d, ... capped at 90d. The first change away
// from a temporary username is free and never counted.
func CooldownAfter(changeCount int) time.Duration {
	if changeCount <= 0 {
		return 0
	}

	d := cooldownBase
	for i := 1; i < changeCount; i++ {
		d *= 2
		if d >= cooldownCap {
			return cooldownCap
		}
	}
	if d > cooldownCap {
		d = cooldownCap
	}
	return d
}

// Cooldown derives the user's current change window from the stored counters.
func (u *User) Cooldown(now time.Time) CooldownStatus {
	if u.ChangedAt == nil || u.ChangeCount == 0 {
		return CooldownStatus{CanChange: true}
	}

	next := u.ChangedAt.Add(CooldownAfter(u.ChangeCount))
	if !now.Before(next) {
		return CooldownStatus{CanChange: true}
	}

	return CooldownStatus{
		CanChange:    false,
		NextChangeAt: &next,
		Remaining:    next.Sub(now).Round(time.Second).String(),
	}
}

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("users: crypto/rand failed: " + err.Error())
	}
	for i := range buf {
		buf[i] = suffixAlphabet[int(buf[i])%len(suffixAlphabet)]
	}
	return string(buf)
}

// TempUsername generates the placeholder assigned to brand-new accounts.
func TempUsername() string {
	return "user-" + randomSuffix(8)
}

// SuggestBase picks the raw material for a username suggestion: display name
// first, then the local part of the email.
func SuggestBase(displayName, email string) string {
	if s := NormalizeUsername(displayName); s != "" {
		return s
	}
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	return NormalizeUsername(local)
}
