package biz

import (
	"context"
	"sync"
	"time"

	"RankGate/internal/conf"
	"RankGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// WebhookSender delivers one payload to the external sink.
// Implementations live in the data layer.
type WebhookSender interface {
	Deliver(ctx context.Context, payload *model.WebhookPayload) error
}

// queueItem is one pending notification. It moves through
// pending -> in-flight -> delivered | retry-scheduled -> pending | dropped.
type queueItem struct {
	payload      *model.WebhookPayload
	attemptCount int
	enqueuedAt   time.Time
}

// WebhookNotifierUseCase delivers JSON notifications to a single configured
// sink. Send is fire-and-forget: callers never block and never observe
// delivery failures. A single worker drains the queue serially so ordering
// is preserved and the sink is never hit concurrently from here; repeated
// failures open a circuit breaker that auto-resets after a fixed duration.
type WebhookNotifierUseCase struct {
	sender  WebhookSender
	enabled bool

	queueSize        int
	maxRetries       int
	breakerThreshold int
	baseDelay        time.Duration
	breakerReset     time.Duration
	timeout          time.Duration
	linearBackoff    bool

	mu                  sync.Mutex
	queue               []*queueItem
	breakerOpen         bool
	consecutiveFailures int
	reopenAt            time.Time

	wake   chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	logger    *log.Helper
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewWebhookNotifierUseCase creates the notifier from configuration.
// An empty webhook URL leaves the notifier disabled: Send becomes a no-op.
func NewWebhookNotifierUseCase(c *conf.Webhook, sender WebhookSender, logger log.Logger) *WebhookNotifierUseCase {
	return &WebhookNotifierUseCase{
		sender:           sender,
		enabled:          c.Url != "",
		queueSize:        c.QueueSize,
		maxRetries:       c.MaxRetries,
		breakerThreshold: c.BreakerThreshold,
		baseDelay:        c.BaseDelay,
		breakerReset:     c.BreakerReset,
		timeout:          c.Timeout,
		linearBackoff:    c.Backoff != "fixed",
		wake:             make(chan struct{}, 1),
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
		logger:           log.NewHelper(logger),
		now:              time.Now,
		afterFunc:        time.AfterFunc,
	}
}

// Send enqueues a payload for delivery. It never blocks and never returns
// an error; on queue overflow the oldest pending item is dropped to bound
// memory.
func (uc *WebhookNotifierUseCase) Send(payload *model.WebhookPayload) {
	if !uc.enabled || payload == nil {
		return
	}

	uc.mu.Lock()
	if uc.queueSize > 0 && len(uc.queue) >= uc.queueSize {
		dropped := uc.queue[0]
		uc.queue = uc.queue[1:]
		uc.logger.Warnw("webhook queue full, dropping oldest item",
			"enqueued_at", dropped.enqueuedAt,
			"attempts", dropped.attemptCount)
	}
	uc.queue = append(uc.queue, &queueItem{
		payload:    payload,
		enqueuedAt: uc.now(),
	})
	uc.mu.Unlock()

	uc.signalWake()
}

// Start launches the delivery worker.
func (uc *WebhookNotifierUseCase) Start() {
	go uc.run()
}

// Stop terminates the delivery worker. Queued items are discarded; the
// layer makes no durability promise across restarts.
func (uc *WebhookNotifierUseCase) Stop() {
	close(uc.stopCh)
	<-uc.doneCh
}

func (uc *WebhookNotifierUseCase) run() {
	defer close(uc.doneCh)

	// The ticker lets the worker notice a passed breaker reset or a due
	// retry even when no new Send arrives.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-uc.stopCh:
			return
		case <-uc.wake:
		case <-ticker.C:
		}

		for uc.processOne() {
		}
	}
}

func (uc *WebhookNotifierUseCase) signalWake() {
	select {
	case uc.wake <- struct{}{}:
	default:
	}
}

// processOne pops and attempts the head item. It returns false when the
// worker should go back to sleep: empty queue, open breaker, or a failure
// that just opened the breaker.
func (uc *WebhookNotifierUseCase) processOne() bool {
	uc.mu.Lock()

	now := uc.now()
	if uc.breakerOpen {
		if now.Before(uc.reopenAt) {
			uc.mu.Unlock()
			return false
		}
		// Timed auto-reset: no half-open probing, the breaker simply closes.
		uc.breakerOpen = false
		uc.consecutiveFailures = 0
		uc.logger.Infow("webhook circuit breaker reset", "was_open_until", uc.reopenAt)
	}

	if len(uc.queue) == 0 {
		uc.mu.Unlock()
		return false
	}
	item := uc.queue[0]
	uc.queue = uc.queue[1:]
	uc.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), uc.timeout)
	err := uc.sender.Deliver(ctx, item.payload)
	cancel()

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err == nil {
		uc.consecutiveFailures = 0
		return true
	}

	uc.consecutiveFailures++
	item.attemptCount++

	if uc.breakerThreshold > 0 && uc.consecutiveFailures >= uc.breakerThreshold {
		uc.breakerOpen = true
		uc.reopenAt = uc.now().Add(uc.breakerReset)
		// The item goes back to the head so order is preserved while the
		// breaker is open.
		uc.queue = append([]*queueItem{item}, uc.queue...)
		uc.logger.Warnw("webhook circuit breaker opened",
			"consecutive_failures", uc.consecutiveFailures,
			"reopen_at", uc.reopenAt,
			"error", err)
		return false
	}

	if item.attemptCount <= uc.maxRetries {
		delay := uc.baseDelay
		if uc.linearBackoff {
			delay = uc.baseDelay * time.Duration(item.attemptCount)
		}
		uc.logger.Warnw("webhook delivery failed, retry scheduled",
			"attempt", item.attemptCount,
			"delay", delay,
			"error", err)
		uc.afterFunc(delay, func() {
			uc.mu.Lock()
			uc.queue = append(uc.queue, item)
			uc.mu.Unlock()
			uc.signalWake()
		})
		return true
	}

	uc.logger.Errorw("webhook delivery dropped after exhausting retries",
		"attempts", item.attemptCount,
		"enqueued_at", item.enqueuedAt,
		"error", err)
	return true
}

// BreakerOpen reports the current breaker state.
func (uc *WebhookNotifierUseCase) BreakerOpen() bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.breakerOpen
}

// QueueLen reports the number of pending items.
func (uc *WebhookNotifierUseCase) QueueLen() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.queue)
}
