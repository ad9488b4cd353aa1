package projects

import "time"

type Project struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	OwnerUsername    string     `json:"owner_username,omitempty"`
	Slug             string     `json:"slug"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Public           bool       `json:"is_public"`
	FeaturedAt       *time.Time `json:"featured_at,omitempty"`
	DefaultVersionID string     `json:"default_version_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Version is a named mutable pointer to a snapshot, branch-style. The hash is
// empty until the first save lands on it.
type Version struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	SnapshotHash string    `json:"snapshot_hash,omitempty"`
	Default      bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot is an immutable content blob addressed by its sha256. Rows are
// never updated or deleted, even when every version pointing at them is gone.
type Snapshot struct {
	ProjectID   string    `json:"project_id"`
	ContentHash string    `json:"content_hash"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DefaultVersionName is created with every project and can never be deleted.
const DefaultVersionName = "main"

type Role string

const (
	RoleNone   Role = ""
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleOwner  Role = "owner"
)

func (r Role) CanRead() bool { return r != RoleNone }
func (r Role) CanEdit() bool { return r == RoleEditor || r == RoleOwner }
func (r Role) IsOwner() bool { return r == RoleOwner }

// AtLeast orders roles viewer < editor < owner.
func (r Role) AtLeast(other Role) bool {
	rank := map[Role]int{RoleNone: 0, RoleViewer: 1, RoleEditor: 2, RoleOwner: 3}
	return rank[r] >= rank[other]
}
