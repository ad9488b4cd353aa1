package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SnapshotRepo struct {
	db *pgxpool.Pool
}

func NewSnapshotRepo(db *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Insert records a snapshot. Content-addressed, so re-saving identical content
// is a no-op: the existing row is left untouched. inlineContent is empty when
// an object-store backend holds the bytes.
func (r *SnapshotRepo) Insert(ctx context.Context, s Snapshot, inlineContent string) error {
	_, err := r.db.Exec(ctx, `
insert into snapshots (project_id, content_hash, size_bytes, content, created_by)
values ($1::uuid, $2, $3, nullif($4, ''), nullif($5, '')::uuid)
on conflict (project_id, content_hash) do nothing;`,
		s.ProjectID, s.ContentHash, s.SizeBytes, inlineContent, s.CreatedBy)
	return err
}

// Get returns snapshot metadata plus inline content when present.
func (r *SnapshotRepo) Get(ctx context.Context, projectID, hash string) (*Snapshot, string, error) {
	var (
		s       Snapshot
		content *string
	)
	err := r.db.QueryRow(ctx, `
select project_id::text, content_hash, size_bytes, coalesce(created_by::text, ''), created_at, content
from snapshots
where project_id = $1::uuid and content_hash = $2;`, projectID, hash).
		Scan(&s.ProjectID, &s.ContentHash, &s.SizeBytes, &s.CreatedBy, &s.CreatedAt, &content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrSnapshotNotFound
	}
	if err != nil {
		return nil, "", err
	}

	if content != nil {
		return &s, *content, nil
	}
	return &s, "", nil
}

// CopyTo duplicates a snapshot row into another project, used by forks. The
// content column travels with it; object-store blobs are shared by hash.
func (r *SnapshotRepo) CopyTo(ctx context.Context, srcProjectID, dstProjectID, hash string) error {
	_, err := r.db.Exec(ctx, `
insert into snapshots (project_id, content_hash, size_bytes, content, created_by)
select $2::uuid, content_hash, size_bytes, content, created_by
from snapshots
where project_id = $1::uuid and content_hash = $3
on conflict (project_id, content_hash) do nothing;`, srcProjectID, dstProjectID, hash)
	return err
}

func (r *SnapshotRepo) Exists(ctx context.Context, projectID, hash string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
select exists (select 1 from snapshots where project_id = $1::uuid and content_hash = $2);`,
		projectID, hash).Scan(&ok)
	return ok, err
}
