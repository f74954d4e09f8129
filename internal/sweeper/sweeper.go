package sweeper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"household/internal/metrics"
)

type Alerts interface {
	SweepGoalDeadlines(ctx context.Context) (int, error)
	SweepDebtsDue(ctx context.Context) (int, error)
}

type Users interface {
	PurgeScheduledDeletions(ctx context.Context) (int, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// Sweeper runs the periodic maintenance jobs: deadline and due-date alerts,
// expired account deletions and stale sessions.
type Sweeper struct {
	alerts   Alerts
	users    Users
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	interval time.Duration
}

func New(alerts Alerts, users Users, m *metrics.Metrics, log logrus.FieldLogger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{alerts: alerts, users: users, metrics: m, log: log, interval: interval}
}

// Start runs one pass immediately and then one per interval. It blocks until
// ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.WithField("interval", s.interval.String()).Info("sweeper started")
	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs every job once. A failing job is logged and does not stop the
// others.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if n, err := s.alerts.SweepGoalDeadlines(ctx); err != nil {
		s.log.WithError(err).Error("goal deadline sweep failed")
	} else if n > 0 {
		s.log.WithField("notified", n).Info("goal deadline sweep")
	}

	if n, err := s.alerts.SweepDebtsDue(ctx); err != nil {
		s.log.WithError(err).Error("debt due sweep failed")
	} else if n > 0 {
		s.log.WithField("notified", n).Info("debt due sweep")
	}

	n, err := s.users.PurgeScheduledDeletions(ctx)
	s.metrics.SweepRun("account_deletions", err)
	if err != nil {
		s.log.WithError(err).Error("scheduled deletion sweep failed")
	} else if n > 0 {
		s.log.WithField("deleted", n).Info("scheduled deletion sweep")
	}

	removed, err := s.users.PurgeExpiredSessions(ctx)
	s.metrics.SweepRun("sessions", err)
	if err != nil {
		s.log.WithError(err).Error("session sweep failed")
	} else if removed > 0 {
		s.log.WithField("removed", removed).Debug("session sweep")
	}
}
