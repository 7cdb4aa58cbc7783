package utils

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vietlingo/logger"
)

const sweepTimeout = 5 * time.Minute

// StreakSweeper resets streaks that were not extended in time and reports how many changed.
type StreakSweeper func(ctx context.Context) (int64, error)

// InitializeStreakScheduler starts a cron job running sweep on spec in loc.
// The caller stops it with Stop on shutdown.
func InitializeStreakScheduler(spec string, loc *time.Location, sweep StreakSweeper) (*cron.Cron, error) {
	logger.Log.Info("[STREAK-SCHEDULER] Initializing streak scheduler...", zap.String("spec", spec))

	if loc == nil {
		loc = time.Local
	}
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(spec, func() { RunStreakSweep(sweep) }); err != nil {
		return nil, err
	}

	c.Start()
	logger.Log.Info("[STREAK-SCHEDULER] Streak scheduler started", zap.String("location", loc.String()))
	return c, nil
}

// RunStreakSweep runs one sweep and logs the outcome.
func RunStreakSweep(sweep StreakSweeper) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	logger.Log.Info("[STREAK-SCHEDULER] Running daily streak sweep...")
	reset, err := sweep(ctx)
	if err != nil {
		logger.Log.Error("[STREAK-SCHEDULER] Error resetting broken streaks", zap.Error(err))
		return
	}
	logger.Log.Info("[STREAK-SCHEDULER] Streak sweep finished", zap.Int64("reset", reset))
}
