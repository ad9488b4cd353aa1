package users

import "time"

type User struct {
	ID             string     `json:"id"`
	FirebaseUID    string     `json:"-"`
	Email          string     `json:"email,omitempty"`
	DisplayName    string     `json:"display_name,omitempty"`
	PhotoURL       string     `json:"photo_url,omitempty"`
	Username       string     `json:"username"`
	UsernameIsTemp bool       `json:"username_is_temp"`
	ChangedAt      *time.Time `json:"username_changed_at,omitempty"`
	ChangeCount    int        `json:"-"`
	BannedAt       *time.Time `json:"-"`
	BanReason      string     `json:"-"`
	BanExpiresAt   *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Banned reports whether the user is currently banned, treating an expired
// ban as lifted even before the cron sweep clears the row.
func (u *User) Banned(now time.Time) bool {
	if u.BannedAt == nil {
		return false
	}
	if u.BanExpiresAt != nil && !now.Before(*u.BanExpiresAt) {
		return false
	}
	return true
}

type BanStatus struct {
	Banned    bool       `json:"banned"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (u *User) BanStatus(now time.Time) BanStatus {
	if !u.Banned(now) {
		return BanStatus{}
	}
	return BanStatus{Banned: true, Reason: u.BanReason, ExpiresAt: u.BanExpiresAt}
}

// Reservation holds a released username for its prior owner until ExpiresAt.
type Reservation struct {
	Username  string    `json:"username"`
	UserID    string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CooldownStatus struct {
	CanChange    bool       `json:"can_change"`
	NextChangeAt *time.Time `json:"next_change_at,omitempty"`
	Remaining    string     `json:"remaining,omitempty"`
}
