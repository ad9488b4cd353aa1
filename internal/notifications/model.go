package notifications

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

const (
	KindShareJoined   = "share_joined"
	KindProjectForked = "project_forked"
)

type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Kind      string          `json:"kind"`
	ActorID   string          `json:"actor_id,omitempty"`
	ProjectID string          `json:"project_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
