package biz

import (
	"context"
	"sync"
	"time"

	"RankGate/internal/conf"
	"RankGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// SessionProbe asks the upstream API who the cached session authenticates
// as. Implementations live in the data layer; a timed-out probe is just a
// failed probe.
type SessionProbe func(ctx context.Context) (principal string, err error)

// StatusListener receives session status transitions.
type StatusListener func(status model.SessionStatus, data map[string]string)

// SessionMonitorUseCase periodically probes upstream session validity with
// hysteresis: several consecutive failures are needed to declare the
// session unhealthy, a single success recovers it. An identity mismatch
// bypasses the hysteresis entirely.
type SessionMonitorUseCase struct {
	probe         SessionProbe
	notifier      *WebhookNotifierUseCase
	failThreshold int
	probeTimeout  time.Duration

	mu                  sync.Mutex
	healthy             bool
	lastCheckAt         time.Time
	consecutiveFailures int
	expectedPrincipal   string
	listeners           map[int]StatusListener
	nextListenerID      int
	ticker              *time.Ticker
	stopCh              chan struct{}
	running             bool

	logger *log.Helper
	now    func() time.Time
}

// NewSessionMonitorUseCase creates the monitor. The expected principal is
// recorded from the first successful probe and every later probe result is
// compared against it.
func NewSessionMonitorUseCase(c *conf.Session, probe SessionProbe, notifier *WebhookNotifierUseCase, logger log.Logger) *SessionMonitorUseCase {
	threshold := c.FailThreshold
	if threshold <= 0 {
		threshold = 3
	}

	return &SessionMonitorUseCase{
		probe:         probe,
		notifier:      notifier,
		failThreshold: threshold,
		probeTimeout:  c.ProbeTimeout,
		healthy:       true,
		listeners:     make(map[int]StatusListener),
		logger:        log.NewHelper(logger),
		now:           time.Now,
	}
}

// Start begins periodic probing at the given interval.
func (uc *SessionMonitorUseCase) Start(interval time.Duration) {
	uc.mu.Lock()
	if uc.running {
		uc.mu.Unlock()
		return
	}
	uc.running = true
	uc.ticker = time.NewTicker(interval)
	uc.stopCh = make(chan struct{})
	ticker, stopCh := uc.ticker, uc.stopCh
	uc.mu.Unlock()

	go func() {
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				uc.check(context.Background())
			}
		}
	}()
}

// Stop halts periodic probing. Monitor state is retained.
func (uc *SessionMonitorUseCase) Stop() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if !uc.running {
		return
	}
	uc.running = false
	uc.ticker.Stop()
	close(uc.stopCh)
}

// ForceCheck runs the probe immediately, outside the timer, against the
// same shared state. Useful for on-demand diagnostics.
func (uc *SessionMonitorUseCase) ForceCheck(ctx context.Context) (bool, time.Time) {
	uc.check(ctx)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.healthy, uc.lastCheckAt
}

// GetHealth returns a read-only snapshot of the monitor state.
func (uc *SessionMonitorUseCase) GetHealth() model.SessionHealth {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return model.SessionHealth{
		Healthy:             uc.healthy,
		LastCheckAt:         uc.lastCheckAt,
		ConsecutiveFailures: uc.consecutiveFailures,
		Principal:           uc.expectedPrincipal,
	}
}

// OnStatusChange registers a listener and returns its unsubscribe func.
// Listeners may register or unregister from within a callback.
func (uc *SessionMonitorUseCase) OnStatusChange(listener StatusListener) func() {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	id := uc.nextListenerID
	uc.nextListenerID++
	uc.listeners[id] = listener

	return func() {
		uc.mu.Lock()
		defer uc.mu.Unlock()
		delete(uc.listeners, id)
	}
}

func (uc *SessionMonitorUseCase) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, uc.probeTimeout)
	principal, err := uc.probe(probeCtx)
	cancel()

	now := uc.now()

	uc.mu.Lock()

	var (
		status model.SessionStatus
		data   map[string]string
		alert  *model.WebhookPayload
	)

	switch {
	case err != nil:
		uc.lastCheckAt = now
		uc.consecutiveFailures++
		// Only the first crossing of the threshold notifies; later
		// failures in the same episode stay silent.
		if uc.healthy && uc.consecutiveFailures >= uc.failThreshold {
			uc.healthy = false
			reason := err.Error()
			uc.logger.Errorw("upstream session declared unhealthy",
				"consecutive_failures", uc.consecutiveFailures,
				"reason", reason)
			status = model.SessionUnhealthy
			data = map[string]string{"reason": reason}
			alert = model.NewSessionAlertPayload(model.SessionUnhealthy, reason, now)
		}

	case uc.expectedPrincipal != "" && principal != uc.expectedPrincipal:
		// A different principal means the cached credentials now act as
		// someone else. Security-relevant, so hysteresis does not apply.
		uc.lastCheckAt = now
		wasHealthy := uc.healthy
		uc.healthy = false
		uc.logger.Errorw("session principal mismatch",
			"expected", uc.expectedPrincipal,
			"got", principal)
		if wasHealthy {
			status = model.SessionUnhealthy
			data = map[string]string{
				"reason":   model.ReasonIdentityMismatch,
				"expected": uc.expectedPrincipal,
				"got":      principal,
			}
			alert = model.NewSessionAlertPayload(model.SessionUnhealthy, model.ReasonIdentityMismatch, now)
		}

	default:
		if uc.expectedPrincipal == "" {
			uc.expectedPrincipal = principal
			uc.logger.Infow("recorded session principal", "principal", principal)
		}
		uc.lastCheckAt = now
		uc.consecutiveFailures = 0
		if !uc.healthy {
			uc.healthy = true
			uc.logger.Infow("upstream session recovered", "principal", principal)
			status = model.SessionRecovered
			data = map[string]string{"principal": principal}
			// Exactly one recovery notification per episode, not one per
			// successful tick.
			alert = model.NewSessionAlertPayload(model.SessionRecovered, "", now)
		}
	}

	listeners := uc.snapshotListenersLocked()
	uc.mu.Unlock()

	if status == "" {
		return
	}
	uc.dispatch(listeners, status, data)
	uc.notifier.Send(alert)
}

// snapshotListenersLocked copies the listener set so callbacks may register
// or unregister while a notification is in flight. Caller must hold uc.mu.
func (uc *SessionMonitorUseCase) snapshotListenersLocked() []StatusListener {
	snapshot := make([]StatusListener, 0, len(uc.listeners))
	for _, l := range uc.listeners {
		snapshot = append(snapshot, l)
	}
	return snapshot
}

// dispatch invokes each listener, isolating panics so one failing listener
// cannot block the others.
func (uc *SessionMonitorUseCase) dispatch(listeners []StatusListener, status model.SessionStatus, data map[string]string) {
	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					uc.logger.Errorw("session status listener panicked", "panic", r)
				}
			}()
			l(status, data)
		}()
	}
}
