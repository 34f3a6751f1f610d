package app

import (
	"context"
	"fmt"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/chrono"
	"unifeed-backend/lib/telemetry"
)

const (
	report_sweep = "cache.sweep"
)

// ScheduleJobs registers cache warming (when warm_cron is set) and, for stores that
// implement cache.Sweeper, the periodic removal of expired entries.
func ScheduleJobs(cronner chrono.CronAPI, cfg Config, store cache.Store, services Services, tel telemetry.API) error {
	if cfg.WarmCron != "" {
		err := cronner.Cron(cfg.WarmCron, func() {
			services.Warm(context.Background(), cfg.WarmDepartments)
		})
		if err != nil {
			return fmt.Errorf("schedule cache warming: %w", err)
		}
	}

	sweeper, ok := store.(cache.Sweeper)
	if !ok || cfg.SweepCron == "" {
		return nil
	}
	err := cronner.Cron(cfg.SweepCron, func() {
		removed, err := sweeper.Sweep(context.Background())
		if err != nil {
			tel.ReportBroken(report_sweep, err)
			return
		}
		tel.ReportCount(report_sweep, int64(removed))
	})
	if err != nil {
		return fmt.Errorf("schedule cache sweep: %w", err)
	}
	return nil
}
