package biz

import (
	"sync"
	"time"

	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// CooldownStatus reports whether a subject is inside its cooldown interval.
type CooldownStatus struct {
	Active           bool
	RemainingSeconds int64
}

// CooldownTrackerUseCase enforces a minimum interval between successful
// mutating operations on the same subject. A zero duration disables the
// feature entirely.
type CooldownTrackerUseCase struct {
	duration time.Duration

	mu         sync.Mutex
	lastChange map[string]time.Time

	logger *log.Helper
	now    func() time.Time
}

// NewCooldownTrackerUseCase creates the cooldown tracker from configuration.
func NewCooldownTrackerUseCase(c *conf.Cooldown, logger log.Logger) *CooldownTrackerUseCase {
	return &CooldownTrackerUseCase{
		duration:   c.Duration,
		lastChange: make(map[string]time.Time),
		logger:     log.NewHelper(logger),
		now:        time.Now,
	}
}

// CheckCooldown reports whether subjectID is still cooling down. Entries
// older than the cooldown duration are treated as absent even before the
// sweep removes them.
func (uc *CooldownTrackerUseCase) CheckCooldown(subjectID string) CooldownStatus {
	if uc.duration <= 0 {
		return CooldownStatus{}
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	last, ok := uc.lastChange[subjectID]
	if !ok {
		return CooldownStatus{}
	}

	elapsed := uc.now().Sub(last)
	if elapsed >= uc.duration {
		return CooldownStatus{}
	}

	remaining := int64((uc.duration - elapsed).Seconds())
	if remaining < 1 {
		remaining = 1
	}
	return CooldownStatus{Active: true, RemainingSeconds: remaining}
}

// RecordChange starts the cooldown clock for subjectID. Callers invoke it
// only after a mutating operation succeeds; failed or rejected operations
// must not start the clock.
func (uc *CooldownTrackerUseCase) RecordChange(subjectID string) {
	if uc.duration <= 0 {
		return
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.lastChange[subjectID] = uc.now()
}

// Sweep removes entries older than the cooldown duration. Lookups already
// ignore stale entries, so this only reclaims memory.
func (uc *CooldownTrackerUseCase) Sweep() int {
	if uc.duration <= 0 {
		return 0
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	cutoff := uc.now().Add(-uc.duration)
	removed := 0
	for id, last := range uc.lastChange {
		if last.Before(cutoff) {
			delete(uc.lastChange, id)
			removed++
		}
	}

	if removed > 0 {
		uc.logger.Debugw("swept expired cooldown entries", "removed", removed)
	}
	return removed
}
