package server

import (
	"context"
	"time"

	"RankGate/internal/biz"
	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// Background runs the non-transport workers under the Kratos application
// lifecycle: the webhook delivery worker, the session monitor, and the
// periodic GC sweeps.
type Background struct {
	notifier *biz.WebhookNotifierUseCase
	monitor  *biz.SessionMonitorUseCase
	sweeps   *cron.Cron
	session  *conf.Session
	logger   *log.Helper
}

// NewBackground creates the background runner.
func NewBackground(
	c *conf.Session,
	notifier *biz.WebhookNotifierUseCase,
	monitor *biz.SessionMonitorUseCase,
	sweeps *cron.Cron,
	logger log.Logger,
) *Background {
	return &Background{
		notifier: notifier,
		monitor:  monitor,
		sweeps:   sweeps,
		session:  c,
		logger:   log.NewHelper(logger),
	}
}

// Start implements transport.Server.
func (b *Background) Start(_ context.Context) error {
	interval := b.session.ProbeInterval
	if interval <= 0 {
		interval = time.Minute
	}

	b.notifier.Start()
	b.monitor.Start(interval)
	if b.sweeps != nil {
		b.sweeps.Start()
	}
	b.logger.Info("background workers started")
	return nil
}

// Stop implements transport.Server.
func (b *Background) Stop(_ context.Context) error {
	if b.sweeps != nil {
		b.sweeps.Stop()
	}
	b.monitor.Stop()
	b.notifier.Stop()
	b.logger.Info("background workers stopped")
	return nil
}
