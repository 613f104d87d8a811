package service

import (
	"context"
	"time"

	"RankGate/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// SessionService exposes the session monitor for on-demand diagnostics.
type SessionService struct {
	monitor *biz.SessionMonitorUseCase
	logger  *log.Helper
}

// NewSessionService creates the session service.
func NewSessionService(monitor *biz.SessionMonitorUseCase, logger log.Logger) *SessionService {
	return &SessionService{
		monitor: monitor,
		logger:  log.NewHelper(logger),
	}
}

// forceCheckReply reports the outcome of an on-demand probe.
type forceCheckReply struct {
	Healthy   bool      `json:"healthy"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /api/v1/session/health.
func (s *SessionService) Health(ctx http.Context) error {
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.monitor.GetHealth(), nil
	})

	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

// ForceCheck handles POST /api/v1/session/check, running the probe
// immediately outside the timer.
func (s *SessionService) ForceCheck(ctx http.Context) error {
	h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
		healthy, at := s.monitor.ForceCheck(c)
		return &forceCheckReply{Healthy: healthy, Timestamp: at}, nil
	})

	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}
