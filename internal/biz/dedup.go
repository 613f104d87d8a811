package biz

import (
	"sync"
	"time"

	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DedupEntry records the first observation of a request key.
type DedupEntry struct {
	SeenAt            time.Time
	OriginalRequestID string
}

// DedupResult is the outcome of a check-and-record call.
type DedupResult struct {
	Duplicate         bool
	OriginalRequestID string
}

// DeduplicatorUseCase suppresses near-simultaneous duplicates of the same
// privileged request. Entries expire after the dedup window; the expirable
// LRU's size bound doubles as a memory cap and its reaper acts as the
// background sweep.
//
// The key folds together action, subject and params, so differently-shaped
// requests on the same subject can collapse into one bucket when optional
// fields are absent. Worth revisiting with product input before changing.
type DeduplicatorUseCase struct {
	window time.Duration

	mu      sync.Mutex
	entries *expirable.LRU[string, DedupEntry]

	logger *log.Helper
	now    func() time.Time
}

// NewDeduplicatorUseCase creates the deduplicator from configuration.
func NewDeduplicatorUseCase(c *conf.Dedup, logger log.Logger) *DeduplicatorUseCase {
	maxEntries := c.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 2048
	}

	return &DeduplicatorUseCase{
		window:  c.Window,
		entries: expirable.NewLRU[string, DedupEntry](maxEntries, nil, c.Window),
		logger:  log.NewHelper(logger),
		now:     time.Now,
	}
}

// CheckAndRecord atomically tests key against the unexpired entries and
// inserts it when absent. Two concurrent calls with the same key cannot
// both pass: the mutex makes the check-then-insert a single step.
func (uc *DeduplicatorUseCase) CheckAndRecord(key, requestID string) DedupResult {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.now()

	if entry, ok := uc.entries.Get(key); ok {
		// Freshness check independent of the store's own expiry, so a stale
		// entry the reaper has not collected yet is still treated as absent.
		if now.Sub(entry.SeenAt) < uc.window {
			uc.logger.Infow("suppressed duplicate request",
				"key", key,
				"original_request_id", entry.OriginalRequestID)
			return DedupResult{Duplicate: true, OriginalRequestID: entry.OriginalRequestID}
		}
	}

	uc.entries.Add(key, DedupEntry{SeenAt: now, OriginalRequestID: requestID})
	return DedupResult{}
}

// Len reports the number of stored entries, expired or not.
func (uc *DeduplicatorUseCase) Len() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.entries.Len()
}
