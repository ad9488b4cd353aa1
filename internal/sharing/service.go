package sharing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/planforge/planforge-backend/internal/projects"
	projectsvc "github.com/planforge/planforge-backend/internal/projects/service"
)

// Notifier receives the domain events sharing produces. Implemented by the
// notifications service; failures there must never fail a share operation.
type Notifier interface {
	ShareJoined(ctx context.Context, ownerID, actorID, projectID string, role projects.Role)
	ProjectForked(ctx context.Context, ownerID, actorID, projectID, forkID string)
}

type Service struct {
	repo      *Repo
	cache     *LinkCache
	projects  *projectsvc.Service
	prepo     *projects.Repo
	versions  *projects.VersionRepo
	snapshots *projects.SnapshotRepo
	notifier  Notifier
	logger    zerolog.Logger
}

func NewService(repo *Repo, cache *LinkCache, psvc *projectsvc.Service, prepo *projects.Repo,
	versions *projects.VersionRepo, snapshots *projects.SnapshotRepo, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo: repo, cache: cache, projects: psvc, prepo: prepo,
		versions: versions, snapshots: snapshots, notifier: notifier,
		logger: logger.With().Str("component", "sharing").Logger(),
	}
}

// CreateLink issues a tokenized link. Editors may hand out viewer links, only
// the owner may hand out editor links.
func (s *Service) CreateLink(ctx context.Context, projectID, userID string, role projects.Role, expiresIn time.Duration) (*ShareLink, error) {
	if role != projects.RoleViewer && role != projects.RoleEditor {
		return nil, fmt.Errorf("invalid share role %q", role)
	}

	min := projects.RoleEditor
	if role == projects.RoleEditor {
		min = projects.RoleOwner
	}
	_, got, err := s.projects.Get(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !got.AtLeast(min) {
		return nil, projects.ErrAccessDenied
	}

	var expiresAt *time.Time
	if expiresIn > 0 {
		t := time.Now().Add(expiresIn)
		expiresAt = &t
	}

	link, err := s.repo.CreateLink(ctx, projectID, role, userID, expiresAt)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, link); err != nil {
		s.logger.Warn().Err(err).Str("token", link.Token).Msg("share link cache set failed")
	}
	return link, nil
}

// ListLinks returns the project's links with their tokens, so read access is
// not enough: a viewer holding an editor token could join at that role.
func (s *Service) ListLinks(ctx context.Context, projectID, userID string) ([]ShareLink, error) {
	_, role, err := s.projects.Get(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !role.CanEdit() {
		return nil, projects.ErrAccessDenied
	}
	return s.repo.ListLinks(ctx, projectID)
}

func (s *Service) RevokeLink(ctx context.Context, projectID, userID, token string) error {
	p, role, err := s.projects.Get(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !role.CanEdit() {
		return projects.ErrAccessDenied
	}

	if err := s.repo.RevokeLink(ctx, p.ID, token); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, token); err != nil {
		s.logger.Warn().Err(err).Str("token", token).Msg("share link cache delete failed")
	}
	return nil
}

// Resolve returns a valid link and its project. Expired and revoked tokens
// behave exactly like unknown ones.
func (s *Service) Resolve(ctx context.Context, token string) (*ShareLink, *projects.Project, error) {
	now := time.Now()

	link, err := s.cache.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrLinkNotFound) {
			s.logger.Warn().Err(err).Msg("share link cache get failed")
		}
		link, err = s.repo.GetLink(ctx, token)
		if err != nil {
			return nil, nil, err
		}
		// Only links that still grant access may enter the cache: the cached
		// form carries no revoked_at, so a cached row is taken at face value.
		if !link.Valid(now) {
			return nil, nil, ErrLinkNotFound
		}
		if err := s.cache.Set(ctx, link); err != nil {
			s.logger.Warn().Err(err).Str("token", token).Msg("share link cache set failed")
		}
	}

	if !link.Valid(now) {
		return nil, nil, ErrLinkNotFound
	}

	p, err := s.prepo.GetByID(ctx, link.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return link, p, nil
}

// Join grants the caller the link's role. Existing editors are never
// downgraded and the owner's access is left alone.
func (s *Service) Join(ctx context.Context, token, userID string) (*Membership, *projects.Project, error) {
	link, p, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	if p.OwnerID == userID {
		return &Membership{ProjectID: p.ID, UserID: userID, Role: projects.RoleOwner}, p, nil
	}

	m, err := s.repo.Grant(ctx, p.ID, userID, link.Role)
	if err != nil {
		return nil, nil, err
	}

	s.notifier.ShareJoined(ctx, p.OwnerID, userID, p.ID, m.Role)
	return m, p, nil
}

func (s *Service) Leave(ctx context.Context, projectID, userID string) error {
	p, err := s.prepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OwnerID == userID {
		return ErrOwnerCantLeave
	}
	return s.repo.Remove(ctx, projectID, userID)
}

func (s *Service) SharedWithMe(ctx context.Context, userID string) ([]projects.Project, error) {
	return s.projects.ListSharedWith(ctx, userID)
}

// Fork copies a readable project into the caller's account: fresh project,
// fresh "main", pointing at a copy of the source default head snapshot.
func (s *Service) Fork(ctx context.Context, projectID, userID string) (*projects.Project, error) {
	src, _, err := s.projects.Get(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	fork, err := s.createForkProject(ctx, src, userID)
	if err != nil {
		return nil, err
	}

	// Carry over the source default head, if it has one.
	if src.DefaultVersionID != "" {
		head, err := s.versions.GetByID(ctx, src.DefaultVersionID)
		if err != nil {
			return nil, err
		}
		if head.SnapshotHash != "" {
			if err := s.snapshots.CopyTo(ctx, src.ID, fork.ID, head.SnapshotHash); err != nil {
				return nil, err
			}
			if err := s.versions.SetPointer(ctx, fork.DefaultVersionID, head.SnapshotHash); err != nil {
				return nil, err
			}
		}
	}

	if src.OwnerID != userID {
		s.notifier.ProjectForked(ctx, src.OwnerID, userID, src.ID, fork.ID)
	}
	return fork, nil
}

func (s *Service) createForkProject(ctx context.Context, src *projects.Project, userID string) (*projects.Project, error) {
	slug := src.Slug
	for i := 0; i < 10; i++ {
		fork, err := s.prepo.Create(ctx, userID, slug, src.Name, src.Description, false)
		if err == nil {
			return fork, nil
		}
		if !errors.Is(err, projects.ErrSlugTaken) {
			return nil, err
		}
		slug = fmt.Sprintf("%s-fork-%d", src.Slug, i+1)
	}
	return nil, projects.ErrSlugTaken
}
