package notifications

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/planforge/planforge-backend/internal/projects"
)

// Service writes notifications for domain events and serves reads through the
// unread-count cache. Event writes never propagate errors to the caller: a
// failed notification must not fail the share or fork that caused it.
type Service struct {
	repo   *Repo
	cache  *UnreadCache
	logger zerolog.Logger
}

func NewService(repo *Repo, cache *UnreadCache, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger.With().Str("component", "notifications").Logger()}
}

func (s *Service) ShareJoined(ctx context.Context, ownerID, actorID, projectID string, role projects.Role) {
	s.emit(ctx, Insert{
		UserID:    ownerID,
		Kind:      KindShareJoined,
		ActorID:   actorID,
		ProjectID: projectID,
		Payload:   map[string]string{"role": string(role)},
	})
}

func (s *Service) ProjectForked(ctx context.Context, ownerID, actorID, projectID, forkID string) {
	s.emit(ctx, Insert{
		UserID:    ownerID,
		Kind:      KindProjectForked,
		ActorID:   actorID,
		ProjectID: projectID,
		Payload:   map[string]string{"fork_id": forkID},
	})
}

func (s *Service) emit(ctx context.Context, in Insert) {
	if _, err := s.repo.Create(ctx, in); err != nil {
		s.logger.Error().Err(err).Str("kind", in.Kind).Str("user_id", in.UserID).
			Msg("notification write failed")
		return
	}
	if err := s.cache.Invalidate(ctx, in.UserID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", in.UserID).Msg("unread cache invalidate failed")
	}
}

func (s *Service) List(ctx context.Context, userID string, limit int, before *Cursor) ([]Notification, error) {
	return s.repo.List(ctx, userID, limit, before)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if n, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
		return n, nil
	} else if err != nil {
		s.logger.Warn().Err(err).Msg("unread cache get failed")
	}

	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, userID, n); err != nil {
		s.logger.Warn().Err(err).Msg("unread cache set failed")
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	// The row is already marked; a stale count self-heals when the cache TTL
	// lapses, so a Redis failure here is not the caller's problem.
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("unread cache invalidate failed")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("unread cache invalidate failed")
	}
	return n, nil
}
