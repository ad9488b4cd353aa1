// Package explore serves the public featured-projects feed. The feed is
// curated by admins and read far more than it changes, so it sits behind a
// short Redis cache.
package explore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/planforge/planforge-backend/internal/projects"
)

const (
	featuredKey  = "explore:featured"
	featuredTTL  = 5 * time.Minute
	featuredSize = 20
)

type Service struct {
	repo   *projects.Repo
	client *redis.Client
	logger zerolog.Logger
}

func NewService(repo *projects.Repo, client *redis.Client, logger zerolog.Logger) *Service {
	return &Service{repo: repo, client: client, logger: logger.With().Str("component", "explore").Logger()}
}

func (s *Service) ListFeatured(ctx context.Context) ([]projects.Project, error) {
	if data, err := s.client.Get(ctx, featuredKey).Result(); err == nil {
		var cached []projects.Project
		if jsonErr := json.Unmarshal([]byte(data), &cached); jsonErr == nil {
			return cached, nil
		}
	} else if err != redis.Nil {
		s.logger.Warn().Err(err).Msg("featured cache get failed")
	}

	items, err := s.repo.ListFeatured(ctx, featuredSize)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		if err := s.client.Set(ctx, featuredKey, data, featuredTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("featured cache set failed")
		}
	}
	return items, nil
}

// SetFeatured flips curation for a project and drops the cached feed.
func (s *Service) SetFeatured(ctx context.Context, projectID string, featured bool) error {
	if err := s.repo.SetFeatured(ctx, projectID, featured); err != nil {
		return err
	}
	return s.client.Del(ctx, featuredKey).Err()
}

// Refresh rebuilds the cache entry in place. Cron.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.client.Del(ctx, featuredKey).Err(); err != nil {
		return err
	}
	_, err := s.ListFeatured(ctx)
	return err
}
