package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepTimeout = 30 * time.Second

// Expirer removes reservations that already ended.
type Expirer interface {
	Expire(ctx context.Context) (int64, error)
}

// ExpirySweeper runs Expire on a cron schedule.
type ExpirySweeper struct {
	expirer Expirer
	spec    string
	logger  *zap.Logger
}

// NewExpirySweeper validates spec (standard five-field cron or a descriptor such as @every 5m).
func NewExpirySweeper(expirer Expirer, spec string, logger *zap.Logger) (*ExpirySweeper, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, err
	}
	return &ExpirySweeper{expirer: expirer, spec: spec, logger: logger}, nil
}

// Run schedules sweeps until ctx is cancelled, then waits for a running sweep to finish.
func (s *ExpirySweeper) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}
	s.logger.Info("expiry sweeper started", zap.String("schedule", s.spec))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("expiry sweeper stopped")
	return nil
}

// RunOnce performs a single sweep and returns how many reservations were removed.
func (s *ExpirySweeper) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := s.expirer.Expire(ctx)
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.logger.Info("expiry sweep", zap.Int64("removed", n))
	}
	return n
}
