package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Promoter moves approved bookings whose date has arrived to upcoming.
type Promoter interface {
	PromoteDue(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler evaluates cron specs in loc. A run that is still going when
// the next one is due makes the next one skip.
func NewScheduler(log *zap.Logger, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log: log.Named("jobs"),
	}
}

func (s *Scheduler) SchedulePromotion(spec string, p Promoter, timeout time.Duration) error {
	if _, err := s.cron.AddFunc(spec, PromoteJob(p, s.log, timeout)); err != nil {
		return fmt.Errorf("schedule promotion %q: %w", spec, err)
	}
	s.log.Info("promotion job scheduled", zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job to finish or ctx to
// end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("jobs still running at shutdown")
	}
}

// PromoteJob is one promotion run.
func PromoteJob(p Promoter, log *zap.Logger, timeout time.Duration) func() {
	return func() {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		n, err := p.PromoteDue(ctx)
		if err != nil {
			log.Error("promotion run failed", zap.Int("promoted", n), zap.Error(err))
			return
		}
		log.Debug("promotion run finished", zap.Int("promoted", n))
	}
}
