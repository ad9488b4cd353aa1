package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VersionRepo struct {
	db *pgxpool.Pool
}

func NewVersionRepo(db *pgxpool.Pool) *VersionRepo {
	return &VersionRepo{db: db}
}

const versionCols = `
v.id::text, v.project_id::text, v.name, v.description,
coalesce(v.snapshot_hash, ''), v.id = p.default_version_id,
v.created_at, v.updated_at`

func scanVersion(row pgx.Row) (*Version, error) {
	var v Version
	err := row.Scan(
		&v.ID, &v.ProjectID, &v.Name, &v.Description,
		&v.SnapshotHash, &v.Default, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create adds a named version pointing at fromHash (empty for a fresh head).
func (r *VersionRepo) Create(ctx context.Context, projectID, name, description, fromHash string) (*Version, error) {
	q := `
insert into versions (project_id, name, description, snapshot_hash)
values ($1::uuid, $2, $3, nullif($4, ''))
returning id::text;`

	var id string
	if err := r.db.QueryRow(ctx, q, projectID, name, description, fromHash).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrVersionExists
		}
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *VersionRepo) GetByID(ctx context.Context, id string) (*Version, error) {
	q := `
select ` + versionCols + `
from versions v
join projects p on p.id = v.project_id
where v.id = $1::uuid;`
	return scanVersion(r.db.QueryRow(ctx, q, id))
}

func (r *VersionRepo) GetByName(ctx context.Context, projectID, name string) (*Version, error) {
	q := `
select ` + versionCols + `
from versions v
join projects p on p.id = v.project_id
where v.project_id = $1::uuid and v.name = $2;`
	return scanVersion(r.db.QueryRow(ctx, q, projectID, name))
}

// List returns the project's versions, default first, then newest first.
func (r *VersionRepo) List(ctx context.Context, projectID string) ([]Version, error) {
	q := `
select ` + versionCols + `
from versions v
join projects p on p.id = v.project_id
where v.project_id = $1::uuid
order by (v.id = p.default_version_id) desc, v.created_at desc;`

	rows, err := r.db.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Version, 0, 8)
	for rows.Next() {
		var v Version
		if err := rows.Scan(
			&v.ID, &v.ProjectID, &v.Name, &v.Description,
			&v.SnapshotHash, &v.Default, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Delete removes a non-default version. The snapshot it pointed at stays.
func (r *VersionRepo) Delete(ctx context.Context, projectID, versionID string) error {
	ct, err := r.db.Exec(ctx, `
delete from versions v
using projects p
where v.id = $2::uuid and v.project_id = $1::uuid
  and p.id = v.project_id and v.id <> p.default_version_id;`, projectID, versionID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrDefaultVersion
	}
	return nil
}

// SetPointer advances the version head to a snapshot hash.
func (r *VersionRepo) SetPointer(ctx context.Context, versionID, hash string) error {
	ct, err := r.db.Exec(ctx, `
update versions set snapshot_hash = $2, updated_at = now() where id = $1::uuid;`, versionID, hash)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrVersionNotFound
	}
	return nil
}

func (r *VersionRepo) SetDefault(ctx context.Context, projectID, versionID string) error {
	ct, err := r.db.Exec(ctx, `
update projects set default_version_id = $2::uuid, updated_at = now()
where id = $1::uuid and deleted_at is null
  and exists (select 1 from versions where id = $2::uuid and project_id = $1::uuid);`,
		projectID, versionID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrVersionNotFound
	}
	return nil
}
