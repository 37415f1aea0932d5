package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RoleSyncJob periodically repairs identity provider role drift
type RoleSyncJob struct {
	roles   *RoleService
	cron    *cron.Cron
	timeout time.Duration
}

// NewRoleSyncJob creates a role sync job; each run is bounded by timeout
func NewRoleSyncJob(roles *RoleService, timeout time.Duration) *RoleSyncJob {
	return &RoleSyncJob{
		roles:   roles,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
	}
}

// Start schedules the job with a cron spec (e.g. "@every 15m")
func (j *RoleSyncJob) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.Run); err != nil {
		return err
	}
	j.cron.Start()
	logrus.WithField("schedule", spec).Info("⏰ Role sync job scheduled")
	return nil
}

// Run performs one sync pass
func (j *RoleSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.roles.SyncAll(ctx); err != nil {
		logrus.WithError(err).Warn("scheduled role sync failed")
	}
}

// Stop stops the scheduler and waits for a running pass to finish
func (j *RoleSyncJob) Stop() {
	<-j.cron.Stop().Done()
}
