// Package service carries the project/version/snapshot rules that sit above
// plain row access: permission resolution, content-addressed saves, branch
// creation and deletion constraints.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/planforge/planforge-backend/internal/blob"
	"github.com/planforge/planforge-backend/internal/projects"
)

// MemberRoles looks up a user's share-granted role on a project. Implemented
// by the sharing membership repo; an interface here keeps the import one-way.
type MemberRoles interface {
	Role(ctx context.Context, projectID, userID string) (projects.Role, error)
}

type Service struct {
	repo      *projects.Repo
	versions  *projects.VersionRepo
	snapshots *projects.SnapshotRepo
	members   MemberRoles
	blobs     blob.Store // nil means inline content in the snapshots table
}

func New(repo *projects.Repo, versions *projects.VersionRepo, snapshots *projects.SnapshotRepo, members MemberRoles, blobs blob.Store) *Service {
	return &Service{repo: repo, versions: versions, snapshots: snapshots, members: members, blobs: blobs}
}

// Access resolves the effective role: owner beats membership beats public
// visibility. userID may be empty for anonymous readers.
func (s *Service) Access(ctx context.Context, p *projects.Project, userID string) (projects.Role, error) {
	if userID != "" && p.OwnerID == userID {
		return projects.RoleOwner, nil
	}

	if userID != "" {
		role, err := s.members.Role(ctx, p.ID, userID)
		if err != nil {
			return projects.RoleNone, err
		}
		if role != projects.RoleNone {
			return role, nil
		}
	}

	if p.Public {
		return projects.RoleViewer, nil
	}
	return projects.RoleNone, nil
}

// getWithRole fetches a project and enforces at least the given role.
// Unreadable projects surface as not-found so their existence never leaks.
func (s *Service) getWithRole(ctx context.Context, projectID, userID string, min projects.Role) (*projects.Project, projects.Role, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, projects.RoleNone, err
	}

	role, err := s.Access(ctx, p, userID)
	if err != nil {
		return nil, projects.RoleNone, err
	}
	if !role.CanRead() {
		return nil, projects.RoleNone, projects.ErrNotFound
	}
	if !role.AtLeast(min) {
		return nil, projects.RoleNone, projects.ErrAccessDenied
	}
	return p, role, nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*projects.Project, projects.Role, error) {
	return s.getWithRole(ctx, projectID, userID, projects.RoleViewer)
}

type CreateInput struct {
	Name        string
	Slug        string
	Description string
	Public      bool
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*projects.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, projects.ErrInvalidName
	}

	slug := projects.NormalizeSlug(in.Slug)
	if slug == "" {
		slug = projects.NormalizeSlug(name)
	}
	if !projects.ValidSlug(slug) {
		return nil, projects.ErrInvalidName
	}

	return s.repo.Create(ctx, ownerID, slug, name, strings.TrimSpace(in.Description), in.Public)
}

func (s *Service) Update(ctx context.Context, projectID, userID string, upd projects.UpdateProject) (*projects.Project, error) {
	if _, _, err := s.getWithRole(ctx, projectID, userID, projects.RoleOwner); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, projectID, upd)
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if _, _, err := s.getWithRole(ctx, projectID, userID, projects.RoleOwner); err != nil {
		return err
	}
	_, err := s.repo.SoftDelete(ctx, projectID)
	return err
}

// Save stores content as an immutable snapshot and advances the named version
// pointer to it. Saving identical content reuses the existing snapshot.
func (s *Service) Save(ctx context.Context, projectID, userID, versionName, content string) (*projects.Version, *projects.Snapshot, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil, projects.ErrEmptyContent
	}

	p, _, err := s.getWithRole(ctx, projectID, userID, projects.RoleEditor)
	if err != nil {
		return nil, nil, err
	}

	if versionName == "" {
		versionName = projects.DefaultVersionName
	}
	v, err := s.versions.GetByName(ctx, p.ID, versionName)
	if err != nil {
		return nil, nil, err
	}

	raw := []byte(content)
	snap := projects.Snapshot{
		ProjectID:   p.ID,
		ContentHash: blob.Hash(raw),
		SizeBytes:   int64(len(raw)),
		CreatedBy:   userID,
	}

	if s.blobs != nil {
		if err := s.blobs.Put(ctx, snap.ContentHash, raw); err != nil {
			return nil, nil, err
		}
		err = s.snapshots.Insert(ctx, snap, "")
	} else {
		err = s.snapshots.Insert(ctx, snap, content)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := s.versions.SetPointer(ctx, v.ID, snap.ContentHash); err != nil {
		return nil, nil, err
	}
	if err := s.repo.Touch(ctx, p.ID); err != nil {
		return nil, nil, err
	}

	v, err = s.versions.GetByID(ctx, v.ID)
	if err != nil {
		return nil, nil, err
	}
	return v, &snap, nil
}

// CreateVersion branches a new named pointer. With fromVersion empty the new
// version starts at the default head; "main" cannot be created that way.
func (s *Service) CreateVersion(ctx context.Context, projectID, userID, name, description, fromVersion string) (*projects.Version, error) {
	p, _, err := s.getWithRole(ctx, projectID, userID, projects.RoleEditor)
	if err != nil {
		return nil, err
	}

	name = projects.NormalizeSlug(name)
	if !projects.ValidSlug(name) {
		return nil, projects.ErrInvalidVersionName
	}
	if name == projects.DefaultVersionName && fromVersion == "" {
		return nil, projects.ErrReservedVersionName
	}

	var fromHash string
	if fromVersion != "" {
		from, err := s.versions.GetByName(ctx, p.ID, fromVersion)
		if err != nil {
			return nil, err
		}
		fromHash = from.SnapshotHash
	} else if p.DefaultVersionID != "" {
		head, err := s.versions.GetByID(ctx, p.DefaultVersionID)
		if err != nil {
			return nil, err
		}
		fromHash = head.SnapshotHash
	}

	return s.versions.Create(ctx, p.ID, name, strings.TrimSpace(description), fromHash)
}

// DeleteVersion drops a pointer, never its snapshot.
func (s *Service) DeleteVersion(ctx context.Context, projectID, userID, name string) error {
	p, _, err := s.getWithRole(ctx, projectID, userID, projects.RoleEditor)
	if err != nil {
		return err
	}

	v, err := s.versions.GetByName(ctx, p.ID, name)
	if err != nil {
		return err
	}
	if v.Default {
		return projects.ErrDefaultVersion
	}
	return s.versions.Delete(ctx, p.ID, v.ID)
}

func (s *Service) ListVersions(ctx context.Context, projectID, userID string) ([]projects.Version, error) {
	p, _, err := s.getWithRole(ctx, projectID, userID, projects.RoleViewer)
	if err != nil {
		return nil, err
	}
	return s.versions.List(ctx, p.ID)
}

func (s *Service) SetDefaultVersion(ctx context.Context, projectID, userID, name string) (*projects.Version, error) {
	p, _, err := s.getWithRole(ctx, projectID, userID, projects.RoleOwner)
	if err != nil {
		return nil, err
	}

	v, err := s.versions.GetByName(ctx, p.ID, name)
	if err != nil {
		return nil, err
	}
	if err := s.versions.SetDefault(ctx, p.ID, v.ID); err != nil {
		return nil, err
	}
	return s.versions.GetByID(ctx, v.ID)
}

// SnapshotContent serves the permalink: snapshot metadata plus its bytes.
func (s *Service) SnapshotContent(ctx context.Context, projectID, userID, hash string) (*projects.Snapshot, string, error) {
	p, _, err := s.getWithRole(ctx, projectID, userID, projects.RoleViewer)
	if err != nil {
		return nil, "", err
	}

	snap, content, err := s.snapshots.Get(ctx, p.ID, hash)
	if err != nil {
		return nil, "", err
	}

	if content == "" && s.blobs != nil {
		raw, err := s.blobs.Get(ctx, hash)
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				return nil, "", projects.ErrSnapshotNotFound
			}
			return nil, "", err
		}
		content = string(raw)
	}

	return snap, content, nil
}

// Resolve serves /u/:username/:slug[/v/:version]: project, version and content
// for whoever userID is (possibly anonymous).
func (s *Service) Resolve(ctx context.Context, username, slug, versionName, userID string) (*projects.Project, *projects.Version, string, error) {
	p, err := s.repo.GetByOwnerSlug(ctx, username, slug)
	if err != nil {
		return nil, nil, "", err
	}

	role, err := s.Access(ctx, p, userID)
	if err != nil {
		return nil, nil, "", err
	}
	if !role.CanRead() {
		return nil, nil, "", projects.ErrNotFound
	}

	var v *projects.Version
	if versionName != "" {
		v, err = s.versions.GetByName(ctx, p.ID, versionName)
	} else {
		v, err = s.versions.GetByID(ctx, p.DefaultVersionID)
	}
	if err != nil {
		return nil, nil, "", err
	}

	if v.SnapshotHash == "" {
		return p, v, "", nil
	}

	_, content, err := s.snapshots.Get(ctx, p.ID, v.SnapshotHash)
	if err != nil {
		return nil, nil, "", err
	}
	if content == "" && s.blobs != nil {
		raw, err := s.blobs.Get(ctx, v.SnapshotHash)
		if err != nil && !errors.Is(err, blob.ErrNotFound) {
			return nil, nil, "", err
		}
		content = string(raw)
	}

	return p, v, content, nil
}

func (s *Service) ListOwn(ctx context.Context, userID string) ([]projects.Project, error) {
	return s.repo.ListByOwner(ctx, userID)
}

func (s *Service) ListSharedWith(ctx context.Context, userID string) ([]projects.Project, error) {
	return s.repo.ListSharedWith(ctx, userID)
}
