// internal/jobs/scheduler.go
package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ledrent/ledrent-backend/internal/config"
)

// Scheduler runs the background jobs on cron specs.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
}

func NewScheduler(runner *Runner, cfg config.SchedulerConfig) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(logrus.StandardLogger())
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	s := &Scheduler{cron: c, runner: runner}
	if _, err := c.AddFunc(cfg.ExpirePendingSpec, runner.ExpirePendingRentals); err != nil {
		return nil, fmt.Errorf("invalid schedule %q for pending rental expiry: %w", cfg.ExpirePendingSpec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.WithField("jobs", len(s.cron.Entries())).Info("Cron scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logrus.Info("Cron scheduler stopped")
}
