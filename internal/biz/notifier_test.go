package biz

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"RankGate/internal/conf"
	"RankGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
)

// scriptedSender fails the first failures deliveries, then succeeds.
type scriptedSender struct {
	failures  int
	delivered []*model.WebhookPayload
	attempts  int
}

func (s *scriptedSender) Deliver(_ context.Context, payload *model.WebhookPayload) error {
	s.attempts++
	if s.attempts <= s.failures {
		return errors.New("sink unavailable")
	}
	s.delivered = append(s.delivered, payload)
	return nil
}

// fakeTimers captures scheduled retries so tests fire them explicitly.
type fakeTimers struct {
	delays    []time.Duration
	callbacks []func()
}

func (f *fakeTimers) afterFunc(d time.Duration, fn func()) *time.Timer {
	f.delays = append(f.delays, d)
	f.callbacks = append(f.callbacks, fn)
	return nil
}

func (f *fakeTimers) fireAll() {
	cbs := f.callbacks
	f.callbacks = nil
	for _, fn := range cbs {
		fn()
	}
}

func defaultWebhookConf() *conf.Webhook {
	return &conf.Webhook{
		Url:              "https://hooks.example.com/x",
		Timeout:          time.Second,
		QueueSize:        100,
		MaxRetries:       3,
		BaseDelay:        2 * time.Second,
		Backoff:          "linear",
		BreakerThreshold: 5,
		BreakerReset:     time.Minute,
	}
}

func newTestNotifier(c *conf.Webhook, sender WebhookSender) (*WebhookNotifierUseCase, *time.Time, *fakeTimers) {
	logger := log.NewStdLogger(os.Stdout)
	uc := NewWebhookNotifierUseCase(c, sender, logger)

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return current }

	timers := &fakeTimers{}
	uc.afterFunc = timers.afterFunc
	return uc, &current, timers
}

func testPayload() *model.WebhookPayload {
	return model.NewSessionAlertPayload(model.SessionUnhealthy, "probe failed", time.Now())
}

func TestSend_DisabledWithoutURL(t *testing.T) {
	c := defaultWebhookConf()
	c.Url = ""
	uc, _, _ := newTestNotifier(c, &scriptedSender{})

	uc.Send(testPayload())
	assert.Equal(t, 0, uc.QueueLen())
}

func TestSend_DropsOldestOnOverflow(t *testing.T) {
	c := defaultWebhookConf()
	c.QueueSize = 3
	uc, _, _ := newTestNotifier(c, &scriptedSender{})

	for i := 0; i < 5; i++ {
		uc.Send(testPayload())
	}
	assert.Equal(t, 3, uc.QueueLen())
}

func TestProcessOne_DeliversInOrder(t *testing.T) {
	sender := &scriptedSender{}
	uc, _, _ := newTestNotifier(defaultWebhookConf(), sender)

	first := testPayload()
	second := testPayload()
	uc.Send(first)
	uc.Send(second)

	for uc.processOne() {
	}

	assert.Equal(t, []*model.WebhookPayload{first, second}, sender.delivered)
	assert.Equal(t, 0, uc.QueueLen())
}

func TestProcessOne_RetriesWithLinearBackoff(t *testing.T) {
	sender := &scriptedSender{failures: 2}
	uc, _, timers := newTestNotifier(defaultWebhookConf(), sender)

	uc.Send(testPayload())

	for uc.processOne() {
	}
	timers.fireAll()
	for uc.processOne() {
	}
	timers.fireAll()
	for uc.processOne() {
	}

	// Attempt 1 fails -> 2s, attempt 2 fails -> 4s, attempt 3 delivers.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, timers.delays)
	assert.Len(t, sender.delivered, 1)
}

func TestProcessOne_FixedBackoff(t *testing.T) {
	c := defaultWebhookConf()
	c.Backoff = "fixed"
	sender := &scriptedSender{failures: 2}
	uc, _, timers := newTestNotifier(c, sender)

	uc.Send(testPayload())

	for uc.processOne() {
	}
	timers.fireAll()
	for uc.processOne() {
	}

	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, timers.delays)
}

func TestProcessOne_DropsAfterMaxRetries(t *testing.T) {
	c := defaultWebhookConf()
	c.MaxRetries = 2
	c.BreakerThreshold = 100 // keep the breaker out of this test
	sender := &scriptedSender{failures: 10}
	uc, _, timers := newTestNotifier(c, sender)

	uc.Send(testPayload())

	// Initial attempt plus two retries, then the item is dropped.
	for i := 0; i < 3; i++ {
		for uc.processOne() {
		}
		timers.fireAll()
	}

	assert.Equal(t, 3, sender.attempts)
	assert.Equal(t, 0, uc.QueueLen())
	assert.Empty(t, timers.callbacks)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	sender := &scriptedSender{failures: 10}
	uc, _, timers := newTestNotifier(defaultWebhookConf(), sender)

	// Five distinct payloads each failing once trips the threshold.
	for i := 0; i < 5; i++ {
		uc.Send(testPayload())
	}
	for uc.processOne() {
	}
	timers.fireAll()
	for uc.processOne() {
	}

	assert.True(t, uc.BreakerOpen())
	assert.Equal(t, 5, sender.attempts)
}

func TestBreaker_OpenSuppressesDelivery(t *testing.T) {
	sender := &scriptedSender{failures: 10}
	uc, _, timers := newTestNotifier(defaultWebhookConf(), sender)

	for i := 0; i < 5; i++ {
		uc.Send(testPayload())
	}
	for uc.processOne() {
	}
	timers.fireAll()
	for uc.processOne() {
	}
	assert.True(t, uc.BreakerOpen())
	attemptsWhenOpened := sender.attempts

	// New sends enqueue but nothing is attempted while the breaker is open.
	uc.Send(testPayload())
	assert.False(t, uc.processOne())
	assert.Equal(t, attemptsWhenOpened, sender.attempts)
	assert.True(t, uc.QueueLen() > 0)
}

func TestBreaker_AutoResetsAfterDuration(t *testing.T) {
	sender := &scriptedSender{failures: 5}
	uc, clock, timers := newTestNotifier(defaultWebhookConf(), sender)

	for i := 0; i < 5; i++ {
		uc.Send(testPayload())
	}
	for uc.processOne() {
	}
	timers.fireAll()
	for uc.processOne() {
	}
	assert.True(t, uc.BreakerOpen())

	// Advance past the reset: the breaker closes with no half-open probing
	// and delivery resumes.
	*clock = clock.Add(61 * time.Second)
	for uc.processOne() {
	}
	timers.fireAll()
	for uc.processOne() {
	}

	assert.False(t, uc.BreakerOpen())
	assert.NotEmpty(t, sender.delivered)
}

func TestProcessOne_SuccessResetsFailureStreak(t *testing.T) {
	sender := &scriptedSender{failures: 4}
	uc, _, timers := newTestNotifier(defaultWebhookConf(), sender)

	// Four failures, one success, then more failures: the streak restarts
	// after the success, so the breaker stays closed.
	for i := 0; i < 6; i++ {
		uc.Send(testPayload())
	}
	for i := 0; i < 4; i++ {
		for uc.processOne() {
		}
		timers.fireAll()
	}

	assert.False(t, uc.BreakerOpen())
	assert.NotEmpty(t, sender.delivered)
}

func TestSend_NilPayloadIgnored(t *testing.T) {
	uc, _, _ := newTestNotifier(defaultWebhookConf(), &scriptedSender{})

	uc.Send(nil)
	assert.Equal(t, 0, uc.QueueLen())
}
