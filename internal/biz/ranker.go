package biz

import (
	"context"
	"fmt"
	"strconv"

	"RankGate/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// GroupClient talks to the external group-management API. Implementations
// live in the data layer; what constitutes a valid rank transition is the
// upstream's concern, not this layer's.
type GroupClient interface {
	// GetMemberRank returns the member's current rank in the group.
	GetMemberRank(ctx context.Context, userID int64) (int, error)
	// SetMemberRank moves the member to the given rank.
	SetMemberRank(ctx context.Context, userID int64, rank int) error
}

// RankChangeRequest is one inbound privileged rank operation.
type RankChangeRequest struct {
	Action    string // model.AuditActionPromote, Demote or SetRank
	UserID    int64
	Rank      int    // target rank for SET_RANK; ignored otherwise
	RequestID string // assigned when the caller sends none
	CallerIP  string
}

// RankChangeResult reports a completed rank change.
type RankChangeResult struct {
	SubjectID string `json:"subject_id"`
	OldRank   int    `json:"old_rank"`
	NewRank   int    `json:"new_rank"`
	RequestID string `json:"request_id"`
}

// RankerUseCase runs the privileged pipeline: deduplication, cooldown,
// then the upstream group call. Authentication and rate limiting already
// happened in middleware by the time a request reaches here. Every outcome
// lands in the audit log; only successes start the cooldown clock and fire
// a webhook.
type RankerUseCase struct {
	group    GroupClient
	dedup    *DeduplicatorUseCase
	cooldown *CooldownTrackerUseCase
	audit    *AuditLogUseCase
	notifier *WebhookNotifierUseCase

	logger *log.Helper
}

// NewRankerUseCase wires the pipeline together.
func NewRankerUseCase(
	group GroupClient,
	dedup *DeduplicatorUseCase,
	cooldown *CooldownTrackerUseCase,
	audit *AuditLogUseCase,
	notifier *WebhookNotifierUseCase,
	logger log.Logger,
) *RankerUseCase {
	return &RankerUseCase{
		group:    group,
		dedup:    dedup,
		cooldown: cooldown,
		audit:    audit,
		notifier: notifier,
		logger:   log.NewHelper(logger),
	}
}

// ChangeRank executes one rank operation. Terminal rejections (duplicate,
// cooldown) surface immediately as structured errors and are never retried
// here.
func (uc *RankerUseCase) ChangeRank(ctx context.Context, req *RankChangeRequest) (*RankChangeResult, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	subject := strconv.FormatInt(req.UserID, 10)

	if res := uc.dedup.CheckAndRecord(dedupKey(req), req.RequestID); res.Duplicate {
		return nil, newDuplicateRequestError(res.OriginalRequestID)
	}

	if status := uc.cooldown.CheckCooldown(subject); status.Active {
		return nil, newCooldownActiveError(status.RemainingSeconds)
	}

	oldRank, err := uc.group.GetMemberRank(ctx, req.UserID)
	if err != nil {
		uc.audit.Add(req.Action, subject, false, err.Error(), req.CallerIP)
		return nil, fmt.Errorf("failed to look up member %d: %w", req.UserID, err)
	}

	newRank, err := uc.targetRank(req, oldRank)
	if err != nil {
		uc.audit.Add(req.Action, subject, false, err.Error(), req.CallerIP)
		return nil, err
	}

	if err := uc.group.SetMemberRank(ctx, req.UserID, newRank); err != nil {
		uc.audit.Add(req.Action, subject, false, err.Error(), req.CallerIP)
		return nil, fmt.Errorf("failed to set rank for member %d: %w", req.UserID, err)
	}

	// A failed or rejected operation must not start the cooldown clock.
	uc.cooldown.RecordChange(subject)
	entry := uc.audit.Add(req.Action, subject, true, "", req.CallerIP)

	uc.logger.Infow("rank changed",
		"action", req.Action,
		"subject_id", subject,
		"old_rank", oldRank,
		"new_rank", newRank,
		"request_id", req.RequestID)

	uc.notifier.Send(model.NewRankChangedPayload(&model.RankChangedEvent{
		Action:    req.Action,
		SubjectID: subject,
		OldRank:   oldRank,
		NewRank:   newRank,
		ChangedAt: entry.Timestamp,
	}))

	return &RankChangeResult{
		SubjectID: subject,
		OldRank:   oldRank,
		NewRank:   newRank,
		RequestID: req.RequestID,
	}, nil
}

func (uc *RankerUseCase) targetRank(req *RankChangeRequest, oldRank int) (int, error) {
	switch req.Action {
	case model.AuditActionPromote:
		return oldRank + 1, nil
	case model.AuditActionDemote:
		if oldRank <= 1 {
			return 0, fmt.Errorf("member is already at the lowest rank")
		}
		return oldRank - 1, nil
	case model.AuditActionSetRank:
		if req.Rank <= 0 {
			return 0, fmt.Errorf("target rank must be positive, got %d", req.Rank)
		}
		return req.Rank, nil
	default:
		return 0, fmt.Errorf("unknown action %q", req.Action)
	}
}

// dedupKey folds action, subject and the optional rank param into one key.
// PROMOTE and DEMOTE carry no rank, so their param segment stays empty.
func dedupKey(req *RankChangeRequest) string {
	param := ""
	if req.Action == model.AuditActionSetRank {
		param = strconv.Itoa(req.Rank)
	}
	return req.Action + "|" + strconv.FormatInt(req.UserID, 10) + "|" + param
}
