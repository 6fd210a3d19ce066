package services

import (
	"context"
	"time"

	"gie-wallet/internal/pkg/clock"
	"gie-wallet/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// DefaultPurgeSpec runs the purge every five minutes
const DefaultPurgeSpec = "*/5 * * * *"

// PurgeScheduler drops expired wallet sessions and idle gates on a cron spec
type PurgeScheduler struct {
	cronEngine *cron.Cron
	gates      *GateService
	sessions   SessionStore
	clock      clock.Clock
	spec       string
}

// NewPurgeScheduler creates a scheduler; Start registers the job
func NewPurgeScheduler(gates *GateService, sessions SessionStore, c clock.Clock, spec string) *PurgeScheduler {
	if spec == "" {
		spec = DefaultPurgeSpec
	}
	if c == nil {
		c = clock.Real{}
	}
	return &PurgeScheduler{
		cronEngine: cron.New(),
		gates:      gates,
		sessions:   sessions,
		clock:      c,
		spec:       spec,
	}
}

// Start registers the purge job and starts the cron engine
func (s *PurgeScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, s.RunOnce); err != nil {
		return err
	}
	s.cronEngine.Start()
	logger.Log.Infof("🚀 Purge scheduler started [%s]", s.spec)
	return nil
}

// RunOnce purges expired sessions and idle gates
func (s *PurgeScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	now := s.clock.Now()
	removed, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		logger.Log.WithError(err).Error("❌ Expired session purge failed")
	} else if removed > 0 {
		logger.Log.Infof("🗑️ Purged %d expired wallet sessions", removed)
	}

	if s.gates != nil {
		s.gates.PurgeIdle(now)
	}
}

// Stop waits for a running purge to finish
func (s *PurgeScheduler) Stop() {
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	logger.Log.Info("🛑 Purge scheduler stopped")
}
