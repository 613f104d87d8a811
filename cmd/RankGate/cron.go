package main

import (
	"fmt"
	"time"

	"RankGate/internal/biz"
	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// newSweepCron registers the periodic garbage-collection jobs: expired
// failed-attempt records, stale cooldown entries, and aged-out audit
// entries. The returned scheduler is started and stopped by the
// background runner, not here.
func newSweepCron(
	guard *biz.AuthGuardUseCase,
	cooldown *biz.CooldownTrackerUseCase,
	audit *biz.AuditLogUseCase,
	gc *conf.Guard,
	logger log.Logger,
) *cron.Cron {
	helper := log.NewHelper(logger)

	c := cron.New(cron.WithSeconds())

	interval := gc.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	spec := fmt.Sprintf("@every %s", interval)

	_, err := c.AddFunc(spec, func() {
		if n := guard.Sweep(); n > 0 {
			helper.Infow("swept expired auth failure records", "removed", n)
		}
	})
	if err != nil {
		helper.Errorw("failed to register guard sweep job", "error", err)
	}

	_, err = c.AddFunc(spec, func() {
		if n := cooldown.Sweep(); n > 0 {
			helper.Infow("swept stale cooldown entries", "removed", n)
		}
	})
	if err != nil {
		helper.Errorw("failed to register cooldown sweep job", "error", err)
	}

	_, err = c.AddFunc(spec, func() {
		if n := audit.Sweep(); n > 0 {
			helper.Infow("swept aged audit entries", "removed", n)
		}
	})
	if err != nil {
		helper.Errorw("failed to register audit sweep job", "error", err)
	}

	helper.Infow("GC sweep jobs registered", "interval", interval.String())

	return c
}
