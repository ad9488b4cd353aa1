package projects

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

const projectCols = `
p.id::text, p.owner_id::text, u.username, p.slug, p.name, p.description,
p.is_public, p.featured_at, coalesce(p.default_version_id::text, ''),
p.created_at, p.updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.OwnerUsername, &p.Slug, &p.Name, &p.Description,
		&p.Public, &p.FeaturedAt, &p.DefaultVersionID, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a project together with its "main" version inside one
// transaction, so no project ever exists without a default version.
func (r *Repo) Create(ctx context.Context, ownerID, slug, name, description string, public bool) (*Project, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var projectID string
	err = tx.QueryRow(ctx, `
insert into projects (owner_id, slug, name, description, is_public)
values ($1::uuid, $2, $3, $4, $5)
returning id::text;`, ownerID, slug, name, description, public).Scan(&projectID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	var versionID string
	err = tx.QueryRow(ctx, `
insert into versions (project_id, name)
values ($1::uuid, $2)
returning id::text;`, projectID, DefaultVersionName).Scan(&versionID)
	if err != nil {
		return nil, err
	}

	p, err := scanProject(tx.QueryRow(ctx, `
update projects p
set default_version_id = $2::uuid
from users u
where p.id = $1::uuid and u.id = p.owner_id
returning `+projectCols+`;`, projectID, versionID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Project, error) {
	q := `
select ` + projectCols + `
from projects p
join users u on u.id = p.owner_id
where p.id = $1::uuid and p.deleted_at is null;`
	return scanProject(r.db.QueryRow(ctx, q, id))
}

func (r *Repo) GetByOwnerSlug(ctx context.Context, username, slug string) (*Project, error) {
	q := `
select ` + projectCols + `
from projects p
join users u on u.id = p.owner_id
where u.username = $1 and p.slug = $2 and p.deleted_at is null;`
	return scanProject(r.db.QueryRow(ctx, q, username, slug))
}

func (r *Repo) ListByOwner(ctx context.Context, ownerID string) ([]Project, error) {
	q := `
select ` + projectCols + `
from projects p
join users u on u.id = p.owner_id
where p.owner_id = $1::uuid and p.deleted_at is null
order by p.created_at desc;`
	return r.queryProjects(ctx, q, ownerID)
}

// ListSharedWith returns live projects the user is a member of, newest grant first.
func (r *Repo) ListSharedWith(ctx context.Context, userID string) ([]Project, error) {
	q := `
select ` + projectCols + `
from project_members m
join projects p on p.id = m.project_id and p.deleted_at is null
join users u on u.id = p.owner_id
where m.user_id = $1::uuid
order by m.created_at desc;`
	return r.queryProjects(ctx, q, userID)
}

// ListFeatured returns curated public projects for the explore feed.
func (r *Repo) ListFeatured(ctx context.Context, limit int) ([]Project, error) {
	q := `
select ` + projectCols + `
from projects p
join users u on u.id = p.owner_id
where p.is_public and p.featured_at is not null and p.deleted_at is null
order by p.featured_at desc
limit $1;`
	return r.queryProjects(ctx, q, limit)
}

func (r *Repo) queryProjects(ctx context.Context, q string, args ...any) ([]Project, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 16)
	for rows.Next() {
		var p Project
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.OwnerUsername, &p.Slug, &p.Name, &p.Description,
			&p.Public, &p.FeaturedAt, &p.DefaultVersionID, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type UpdateProject struct {
	Name        *string
	Description *string
	Public      *bool
}

// Update patches mutable fields. The slug is fixed at creation; permalinks
// under /u/:username/:slug must not rot.
func (r *Repo) Update(ctx context.Context, id string, upd UpdateProject) (*Project, error) {
	q := `
update projects p
set name = coalesce($2, p.name),
    description = coalesce($3, p.description),
    is_public = coalesce($4, p.is_public),
    updated_at = now()
from users u
where p.id = $1::uuid and u.id = p.owner_id and p.deleted_at is null
returning ` + projectCols + `;`
	return scanProject(r.db.QueryRow(ctx, q, id, upd.Name, upd.Description, upd.Public))
}

func (r *Repo) SoftDelete(ctx context.Context, id string) (bool, error) {
	ct, err := r.db.Exec(ctx, `
update projects
set deleted_at = now(), updated_at = now()
where id = $1::uuid and deleted_at is null;`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) SetFeatured(ctx context.Context, id string, featured bool) error {
	ct, err := r.db.Exec(ctx, `
update projects
set featured_at = case when $2 then now() end, updated_at = now()
where id = $1::uuid and deleted_at is null;`, id, featured)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch bumps updated_at, used when a save lands on any of the project's versions.
func (r *Repo) Touch(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `update projects set updated_at = now() where id = $1::uuid;`, id)
	return err
}

// PurgeDeletedBefore hard-deletes projects soft-deleted before the cutoff.
// Versions, memberships, share links and snapshots go with them via cascades.
func (r *Repo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// Break the default_version_id cycle before the cascade runs.
	_, err = tx.Exec(ctx, `
update projects set default_version_id = null
where deleted_at is not null and deleted_at < $1;`, cutoff)
	if err != nil {
		return 0, err
	}

	ct, err := tx.Exec(ctx, `
delete from projects where deleted_at is not null and deleted_at < $1;`, cutoff)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
