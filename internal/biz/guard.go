package biz

import (
	"crypto/subtle"
	"sync"
	"time"

	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

// failedAuthRecord tracks failed verification attempts for one IP.
// Attempts never holds timestamps older than the attempt window; pruning
// happens on every read and write.
type failedAuthRecord struct {
	attempts    []time.Time
	lockedUntil time.Time
}

// AuthGuardUseCase verifies the shared API key on privileged calls and
// locks out IPs that keep failing. All state is in-memory; a restart
// clears every lockout.
type AuthGuardUseCase struct {
	apiKey        []byte
	allowlist     map[string]struct{}
	lockThreshold int
	lockDuration  time.Duration
	attemptWindow time.Duration

	mu      sync.Mutex
	records map[string]*failedAuthRecord

	logger *log.Helper
	now    func() time.Time
}

// NewAuthGuardUseCase creates the auth guard from configuration.
func NewAuthGuardUseCase(c *conf.Guard, logger log.Logger) *AuthGuardUseCase {
	var allowlist map[string]struct{}
	if len(c.Allowlist) > 0 {
		allowlist = make(map[string]struct{}, len(c.Allowlist))
		for _, ip := range c.Allowlist {
			allowlist[ip] = struct{}{}
		}
	}

	return &AuthGuardUseCase{
		apiKey:        []byte(c.ApiKey),
		allowlist:     allowlist,
		lockThreshold: c.LockThreshold,
		lockDuration:  c.LockDuration,
		attemptWindow: c.AttemptWindow,
		records:       make(map[string]*failedAuthRecord),
		logger:        log.NewHelper(logger),
		now:           time.Now,
	}
}

// Verify checks the caller's IP and supplied key. The allowlist check runs
// first and is unaffected by lockout state; a locked-out IP is rejected
// without any credential comparison work.
func (uc *AuthGuardUseCase) Verify(ip, suppliedKey string) error {
	if uc.allowlist != nil {
		if _, ok := uc.allowlist[ip]; !ok {
			uc.logger.Warnw("request from IP outside allowlist", "ip", ip)
			return newIPDeniedError(ip)
		}
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.now()

	if rec, ok := uc.records[ip]; ok {
		if rec.lockedUntil.After(now) {
			retryAfter := int64(rec.lockedUntil.Sub(now).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			uc.logger.Warnw("rejected locked-out caller", "ip", ip, "retry_after", retryAfter)
			return newLockedOutError(retryAfter)
		}
		if !rec.lockedUntil.IsZero() {
			// Lock expired: clear the lock and the attempt history together.
			rec.lockedUntil = time.Time{}
			rec.attempts = nil
		}
	}

	if suppliedKey == "" {
		uc.recordFailureLocked(ip, now)
		return newMissingCredentialError()
	}

	supplied := []byte(suppliedKey)
	if len(supplied) != len(uc.apiKey) {
		// Equal-length-first: a length mismatch can be rejected immediately
		// without leaking which byte differs.
		uc.recordFailureLocked(ip, now)
		return newInvalidCredentialError()
	}
	if subtle.ConstantTimeCompare(supplied, uc.apiKey) != 1 {
		uc.recordFailureLocked(ip, now)
		return newInvalidCredentialError()
	}

	delete(uc.records, ip)
	return nil
}

// IsLockedOutIP reports whether ip is currently locked. Reading a record
// whose lock has expired clears both the lock and the attempt history.
func (uc *AuthGuardUseCase) IsLockedOutIP(ip string) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	rec, ok := uc.records[ip]
	if !ok {
		return false
	}
	if rec.lockedUntil.After(uc.now()) {
		return true
	}
	if !rec.lockedUntil.IsZero() {
		rec.lockedUntil = time.Time{}
		rec.attempts = nil
	}
	return false
}

// recordFailureLocked appends a failure, prunes attempts outside the
// window, and applies the lockout once the threshold is reached.
// Caller must hold uc.mu.
func (uc *AuthGuardUseCase) recordFailureLocked(ip string, now time.Time) {
	rec, ok := uc.records[ip]
	if !ok {
		rec = &failedAuthRecord{}
		uc.records[ip] = rec
	}

	rec.attempts = append(rec.attempts, now)
	rec.attempts = pruneBefore(rec.attempts, now.Add(-uc.attemptWindow))

	if uc.lockThreshold > 0 && len(rec.attempts) >= uc.lockThreshold {
		rec.lockedUntil = now.Add(uc.lockDuration)
		uc.logger.Warnw("IP locked out after repeated auth failures",
			"ip", ip,
			"attempts", len(rec.attempts),
			"locked_until", rec.lockedUntil)
	}
}

// Sweep removes records that are both unlocked and empty. It bounds memory
// growth under wide-scale credential scanning and runs from cron.
func (uc *AuthGuardUseCase) Sweep() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.now()
	removed := 0
	for ip, rec := range uc.records {
		if rec.lockedUntil.After(now) {
			continue
		}
		rec.attempts = pruneBefore(rec.attempts, now.Add(-uc.attemptWindow))
		if len(rec.attempts) == 0 {
			delete(uc.records, ip)
			removed++
		}
	}

	if removed > 0 {
		uc.logger.Debugw("swept idle auth records", "removed", removed)
	}
	return removed
}

// pruneBefore drops timestamps earlier than cutoff, preserving order.
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if !t.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
