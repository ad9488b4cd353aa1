package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Insert struct {
	UserID    string
	Kind      string
	ActorID   string
	ProjectID string
	Payload   any
}

func (r *Repo) Create(ctx context.Context, in Insert) (*Notification, error) {
	payload, err := json.Marshal(in.Payload)
	if err != nil {
		return nil, err
	}
	if in.Payload == nil {
		payload = []byte(`{}`)
	}

	const q = `
insert into notifications (user_id, kind, actor_id, project_id, payload)
values ($1::uuid, $2, nullif($3,'')::uuid, nullif($4,'')::uuid, $5)
returning id::text, user_id::text, kind, coalesce(actor_id::text,''), coalesce(project_id::text,''),
          payload, read_at, created_at;`

	var n Notification
	err = r.db.QueryRow(ctx, q, in.UserID, in.Kind, in.ActorID, in.ProjectID, payload).
		Scan(&n.ID, &n.UserID, &n.Kind, &n.ActorID, &n.ProjectID, &n.Payload, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Cursor is a keyset position; List returns rows strictly older than
// (CreatedAt, ID). ID breaks ties between rows created in the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// List returns the user's notifications newest first, keyset-paginated on
// (created_at, id) via the before cursor.
func (r *Repo) List(ctx context.Context, userID string, limit int, before *Cursor) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	const q = `
select id::text, user_id::text, kind, coalesce(actor_id::text,''), coalesce(project_id::text,''),
       payload, read_at, created_at
from notifications
where user_id = $1::uuid and ($2::timestamptz is null or (created_at, id) < ($2, $3::uuid))
order by created_at desc, id desc
limit $4;`

	var beforeAt *time.Time
	// The zero uuid sorts first, so a cursor without an id degrades to a
	// plain created_at < $2 comparison.
	beforeID := "00000000-0000-0000-0000-000000000000"
	if before != nil {
		beforeAt = &before.CreatedAt
		if before.ID != "" {
			beforeID = before.ID
		}
	}

	rows, err := r.db.Query(ctx, q, userID, beforeAt, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.ActorID, &n.ProjectID,
			&n.Payload, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`select count(*) from notifications where user_id = $1::uuid and read_at is null;`,
		userID).Scan(&n)
	return n, err
}

// MarkRead is idempotent; marking an already-read notification is a no-op.
func (r *Repo) MarkRead(ctx context.Context, userID, id string) error {
	ct, err := r.db.Exec(ctx, `
update notifications set read_at = coalesce(read_at, now())
where id = $1::uuid and user_id = $2::uuid;`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ct, err := r.db.Exec(ctx, `
update notifications set read_at = now()
where user_id = $1::uuid and read_at is null;`, userID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// PruneRead deletes read notifications older than keep. Cron.
func (r *Repo) PruneRead(ctx context.Context, keep time.Duration) (int64, error) {
	ct, err := r.db.Exec(ctx, `
delete from notifications
where read_at is not null and created_at < now() - $1::interval;`, keep)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
