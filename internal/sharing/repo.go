package sharing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/planforge/planforge-backend/internal/projects"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const linkCols = `token, project_id::text, role, created_by::text, expires_at, revoked_at, created_at`

func scanLink(row pgx.Row) (*ShareLink, error) {
	var l ShareLink
	err := row.Scan(&l.Token, &l.ProjectID, &l.Role, &l.CreatedBy, &l.ExpiresAt, &l.RevokedAt, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repo) CreateLink(ctx context.Context, projectID string, role projects.Role, createdBy string, expiresAt *time.Time) (*ShareLink, error) {
	q := `
insert into share_links (token, project_id, role, created_by, expires_at)
values ($1, $2::uuid, $3, $4::uuid, $5)
returning ` + linkCols + `;`
	return scanLink(r.db.QueryRow(ctx, q, NewToken(), projectID, role, createdBy, expiresAt))
}

func (r *Repo) GetLink(ctx context.Context, token string) (*ShareLink, error) {
	q := `select ` + linkCols + ` from share_links where token = $1;`
	return scanLink(r.db.QueryRow(ctx, q, token))
}

// ListLinks returns a project's live (non-revoked) links, newest first.
func (r *Repo) ListLinks(ctx context.Context, projectID string) ([]ShareLink, error) {
	q := `
select ` + linkCols + `
from share_links
where project_id = $1::uuid and revoked_at is null
order by created_at desc;`

	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ShareLink, 0, 8)
	for rows.Next() {
		var l ShareLink
		if err := rows.Scan(&l.Token, &l.ProjectID, &l.Role, &l.CreatedBy, &l.ExpiresAt, &l.RevokedAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) RevokeLink(ctx context.Context, projectID, token string) error {
	ct, err := r.db.Exec(ctx, `
update share_links set revoked_at = now()
where token = $1 and project_id = $2::uuid and revoked_at is null;`, token, projectID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// PurgeStaleLinks deletes links revoked or expired for longer than keep. Cron.
func (r *Repo) PurgeStaleLinks(ctx context.Context, keep time.Duration) (int64, error) {
	ct, err := r.db.Exec(ctx, `
delete from share_links
where (revoked_at is not null and revoked_at < now() - $1::interval)
   or (expires_at is not null and expires_at < now() - $1::interval);`, keep)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// Role implements the projects service MemberRoles lookup.
func (r *Repo) Role(ctx context.Context, projectID, userID string) (projects.Role, error) {
	var role projects.Role
	err := r.db.QueryRow(ctx, `
select role from project_members where project_id = $1::uuid and user_id = $2::uuid;`,
		projectID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return projects.RoleNone, nil
	}
	if err != nil {
		return projects.RoleNone, err
	}
	return role, nil
}

// Grant adds or upgrades a membership. An existing higher role is kept, so
// redeeming a viewer link never downgrades an editor.
func (r *Repo) Grant(ctx context.Context, projectID, userID string, role projects.Role) (*Membership, error) {
	q := `
insert into project_members (project_id, user_id, role)
values ($1::uuid, $2::uuid, $3)
on conflict (project_id, user_id) do update
set role = case when project_members.role = 'editor' then project_members.role else excluded.role end
returning project_id::text, user_id::text, role, created_at;`

	var m Membership
	err := r.db.QueryRow(ctx, q, projectID, userID, role).
		Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) Remove(ctx context.Context, projectID, userID string) error {
	ct, err := r.db.Exec(ctx, `
delete from project_members where project_id = $1::uuid and user_id = $2::uuid;`, projectID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotMember
	}
	return nil
}
