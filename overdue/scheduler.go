package overdue

import (
	"context"
	"time"

	"Gin_postgres_redis_tool_issuance/logger"
)

const (
	DefaultInterval     = 30 * time.Minute
	DefaultInitialDelay = 5 * time.Second
)

// Clock supplies the instant a sweep compares shift ends against.
type Clock func() time.Time

// Scheduler runs the scanner periodically. Sweeps never overlap since they
// run on the Run goroutine.
type Scheduler struct {
	Scanner      *Scanner
	Interval     time.Duration
	InitialDelay time.Duration
	Clock        Clock
}

func NewScheduler(sc *Scanner, interval, delay time.Duration, clock Clock) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if delay < 0 {
		delay = DefaultInitialDelay
	}
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{Scanner: sc, Interval: interval, InitialDelay: delay, Clock: clock}
}

// Tick runs one sweep. Failures are logged and swallowed so the loop keeps
// going.
func (s *Scheduler) Tick(ctx context.Context) int {
	now := s.Clock()
	n, err := s.Scanner.Sweep(ctx, now)
	if err != nil {
		logger.Error(ctx).Err(err).Time("now", now).Msg("Overdue sweep failed")
		return 0
	}
	logger.Debug(ctx).Int("flagged", n).Time("now", now).Msg("Overdue sweep finished")
	return n
}

// Run sweeps once after the initial delay and then every interval until ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info(ctx).
		Dur("interval", s.Interval).
		Dur("initial_delay", s.InitialDelay).
		Msg("Overdue scheduler started")

	delay := time.NewTimer(s.InitialDelay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}
	s.Tick(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx).Msg("Overdue scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
