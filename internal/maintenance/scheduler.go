package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/planforge/planforge-backend/internal/explore"
	"github.com/planforge/planforge-backend/internal/notifications"
	"github.com/planforge/planforge-backend/internal/projects"
	"github.com/planforge/planforge-backend/internal/sharing"
	"github.com/planforge/planforge-backend/internal/users"
)

const (
	// Revoked or expired links linger this long so clients that cached a
	// token still get a clean "gone" instead of a vanished row.
	staleLinkKeep = 7 * 24 * time.Hour

	// Read notifications older than this are pruned.
	readNotificationKeep = 90 * 24 * time.Hour

	jobTimeout = 5 * time.Minute
)

// Scheduler owns the periodic cleanup work: expired username reservations,
// lapsed bans, stale share links, soft-deleted projects past retention, old
// read notifications, and the featured feed cache.
type Scheduler struct {
	users            *users.Repo
	projects         *projects.Repo
	sharing          *sharing.Repo
	notifications    *notifications.Repo
	explore          *explore.Service
	projectRetention time.Duration
	logger           zerolog.Logger

	cron *cron.Cron
}

func NewScheduler(users *users.Repo, projects *projects.Repo, sharing *sharing.Repo,
	notifications *notifications.Repo, explore *explore.Service,
	projectRetention time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		users:            users,
		projects:         projects,
		sharing:          sharing,
		notifications:    notifications,
		explore:          explore,
		projectRetention: projectRetention,
		logger:           logger.With().Str("component", "maintenance").Logger(),
	}
}

// Start registers the jobs and starts the cron loop. Hourly jobs cover the
// time-sensitive expiries; the heavier purges run nightly.
func (s *Scheduler) Start() error {
	c := cron.New()

	if _, err := c.AddFunc("@hourly", s.runHourly); err != nil {
		return err
	}
	if _, err := c.AddFunc("0 3 * * *", s.runNightly); err != nil {
		return err
	}

	s.cron = c
	c.Start()
	s.logger.Info().Msg("maintenance scheduler started")
	return nil
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) runHourly() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.users.PurgeExpiredReservations(ctx)
	s.report("purge_expired_reservations", n, err)
	n, err = s.users.ClearLapsedBans(ctx)
	s.report("clear_lapsed_bans", n, err)
	n, err = s.sharing.PurgeStaleLinks(ctx, staleLinkKeep)
	s.report("purge_stale_links", n, err)
}

func (s *Scheduler) runNightly() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := time.Now().Add(-s.projectRetention)
	n, err := s.projects.PurgeDeletedBefore(ctx, cutoff)
	s.report("purge_deleted_projects", n, err)
	n, err = s.notifications.PruneRead(ctx, readNotificationKeep)
	s.report("prune_read_notifications", n, err)

	if err := s.explore.Refresh(ctx); err != nil {
		s.logger.Error().Err(err).Str("job", "refresh_featured").Msg("maintenance job failed")
	}
}

func (s *Scheduler) report(job string, n int64, err error) {
	if err != nil {
		s.logger.Error().Err(err).Str("job", job).Msg("maintenance job failed")
		return
	}
	if n > 0 {
		s.logger.Info().Str("job", job).Int64("removed", n).Msg("maintenance job done")
	}
}
