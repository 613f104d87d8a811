package biz

import (
	"sync"
	"time"

	"RankGate/internal/conf"
	"RankGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// AuditLogUseCase keeps a bounded, queryable, newest-first record of
// operation outcomes. Insertion beyond the cap silently evicts the oldest
// entry; an independent age sweep evicts entries past max age. Whichever
// limit is hit first wins.
type AuditLogUseCase struct {
	cap    int
	maxAge time.Duration

	mu      sync.Mutex
	entries []*model.AuditEntry // newest first

	logger *log.Helper
	now    func() time.Time
}

// NewAuditLogUseCase creates the audit log from configuration.
func NewAuditLogUseCase(c *conf.Audit, logger log.Logger) *AuditLogUseCase {
	capacity := c.Cap
	if capacity <= 0 {
		capacity = 500
	}

	return &AuditLogUseCase{
		cap:    capacity,
		maxAge: c.MaxAge,
		logger: log.NewHelper(logger),
		now:    time.Now,
	}
}

// Add records an operation outcome. The entry receives its id and
// timestamp here and is immutable afterwards.
func (uc *AuditLogUseCase) Add(action, subjectID string, success bool, errMsg, originatorIP string) *model.AuditEntry {
	entry := &model.AuditEntry{
		ID:           uuid.NewString(),
		Timestamp:    uc.now(),
		Action:       action,
		SubjectID:    subjectID,
		Success:      success,
		Error:        errMsg,
		OriginatorIP: originatorIP,
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.entries = append([]*model.AuditEntry{entry}, uc.entries...)
	if len(uc.entries) > uc.cap {
		uc.entries = uc.entries[:uc.cap]
	}

	return entry
}

// Query returns one page of entries matching the filter, applying filters
// before pagination. Total counts the filtered set, not the page.
func (uc *AuditLogUseCase) Query(f model.AuditFilter) *model.AuditPage {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	matched := make([]*model.AuditEntry, 0, len(uc.entries))
	for _, e := range uc.entries {
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.Success != nil && e.Success != *f.Success {
			continue
		}
		if f.SubjectID != "" && e.SubjectID != f.SubjectID {
			continue
		}
		matched = append(matched, e)
	}

	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var page []*model.AuditEntry
	if offset < len(matched) {
		end := offset + f.Limit
		if f.Limit <= 0 || end > len(matched) {
			end = len(matched)
		}
		page = matched[offset:end]
	} else {
		page = []*model.AuditEntry{}
	}

	return &model.AuditPage{
		Entries: page,
		Total:   len(matched),
		Limit:   f.Limit,
		Offset:  offset,
	}
}

// Stats aggregates outcome counts over the retained entries.
func (uc *AuditLogUseCase) Stats() *model.AuditStats {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	stats := &model.AuditStats{
		Total:    len(uc.entries),
		ByAction: make(map[string]int),
	}
	for _, e := range uc.entries {
		if e.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
		stats.ByAction[e.Action]++
	}
	return stats
}

// Sweep evicts entries older than the configured max age. Entries are
// newest first, so eviction truncates the tail. Runs from cron.
func (uc *AuditLogUseCase) Sweep() int {
	if uc.maxAge <= 0 {
		return 0
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	cutoff := uc.now().Add(-uc.maxAge)
	kept := len(uc.entries)
	for kept > 0 && uc.entries[kept-1].Timestamp.Before(cutoff) {
		kept--
	}

	removed := len(uc.entries) - kept
	if removed > 0 {
		uc.entries = uc.entries[:kept]
		uc.logger.Debugw("swept aged audit entries", "removed", removed)
	}
	return removed
}
