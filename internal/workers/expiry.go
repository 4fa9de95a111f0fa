package workers

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
)

// ExpirySweeper deactivates jobs whose expires_at has passed.
type ExpirySweeper struct {
	Jobs     pgrepo.JobRepository
	Schedule string // cron spec, default every five minutes
	Logger   *logrus.Logger
	Now      func() time.Time

	cron *cron.Cron
}

// RunOnce performs a single sweep and returns the number of jobs closed.
func (s *ExpirySweeper) RunOnce(ctx context.Context) (int64, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return s.Jobs.DeactivateExpired(ctx, now().UTC())
}

// Start schedules the sweep and stops it when ctx is done.
func (s *ExpirySweeper) Start(ctx context.Context) error {
	if s.Schedule == "" {
		s.Schedule = "@every 5m"
	}
	if s.Logger == nil {
		s.Logger = logrus.New()
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.Schedule, func() {
		n, err := s.RunOnce(ctx)
		if err != nil {
			s.Logger.WithError(err).Error("job expiry sweep failed")
			return
		}
		if n > 0 {
			s.Logger.WithField("deactivated", n).Info("expired jobs deactivated")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()

	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	return nil
}
