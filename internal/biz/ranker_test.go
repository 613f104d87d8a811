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
	"github.com/stretchr/testify/require"
)

// fakeGroupClient serves scripted ranks without hitting the network.
type fakeGroupClient struct {
	ranks      map[int64]int
	getErr     error
	setErr     error
	setCalls   int
	lastSetTo  int
	lastUserID int64
}

func (f *fakeGroupClient) GetMemberRank(_ context.Context, userID int64) (int, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.ranks[userID], nil
}

func (f *fakeGroupClient) SetMemberRank(_ context.Context, userID int64, rank int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls++
	f.lastUserID = userID
	f.lastSetTo = rank
	f.ranks[userID] = rank
	return nil
}

type rankerFixture struct {
	uc       *RankerUseCase
	group    *fakeGroupClient
	cooldown *CooldownTrackerUseCase
	audit    *AuditLogUseCase
	notifier *WebhookNotifierUseCase
}

func newRankerFixture(cooldownDuration time.Duration) *rankerFixture {
	logger := log.NewStdLogger(os.Stdout)

	group := &fakeGroupClient{ranks: map[int64]int{123: 5}}
	dedup := NewDeduplicatorUseCase(&conf.Dedup{Window: 5 * time.Second, MaxEntries: 64}, logger)
	cooldown := NewCooldownTrackerUseCase(&conf.Cooldown{Duration: cooldownDuration}, logger)
	audit := NewAuditLogUseCase(&conf.Audit{Cap: 50, MaxAge: time.Hour}, logger)
	notifier := NewWebhookNotifierUseCase(&conf.Webhook{Url: "https://hooks.example.com/x", QueueSize: 10}, nil, logger)

	return &rankerFixture{
		uc:       NewRankerUseCase(group, dedup, cooldown, audit, notifier, logger),
		group:    group,
		cooldown: cooldown,
		audit:    audit,
		notifier: notifier,
	}
}

func TestChangeRank_Promote(t *testing.T) {
	fx := newRankerFixture(0)

	res, err := fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action: model.AuditActionPromote,
		UserID: 123,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, res.OldRank)
	assert.Equal(t, 6, res.NewRank)
	assert.Equal(t, "123", res.SubjectID)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, 6, fx.group.lastSetTo)

	// Success lands in the audit log and queues a webhook.
	stats := fx.audit.Stats()
	assert.Equal(t, 1, stats.Successful)
	assert.Equal(t, 1, fx.notifier.QueueLen())
}

func TestChangeRank_Demote(t *testing.T) {
	fx := newRankerFixture(0)

	res, err := fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action: model.AuditActionDemote,
		UserID: 123,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.NewRank)
}

func TestChangeRank_DemoteAtFloor(t *testing.T) {
	fx := newRankerFixture(0)
	fx.group.ranks[123] = 1

	_, err := fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action: model.AuditActionDemote,
		UserID: 123,
	})
	assert.Error(t, err)
	assert.Equal(t, 0, fx.group.setCalls)

	// The rejected demotion is audited as a failure.
	assert.Equal(t, 1, fx.audit.Stats().Failed)
}

func TestChangeRank_SetRank(t *testing.T) {
	fx := newRankerFixture(0)

	res, err := fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action: model.AuditActionSetRank,
		UserID: 123,
		Rank:   9,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, res.NewRank)
}

func TestChangeRank_SetRankRejectsNonPositive(t *testing.T) {
	fx := newRankerFixture(0)

	_, err := fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action: model.AuditActionSetRank,
		UserID: 123,
		Rank:   0,
	})
	assert.Error(t, err)
}

func TestChangeRank_DuplicateSuppressed(t *testing.T) {
	fx := newRankerFixture(0)

	first, err := fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action:    model.AuditActionPromote,
		UserID:    123,
		RequestID: "req-1",
	})
	require.NoError(t, err)

	_, err = fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action:    model.AuditActionPromote,
		UserID:    123,
		RequestID: "req-2",
	})
	assert.True(t, IsDuplicateRequest(err))
	assert.Contains(t, err.Error(), first.RequestID)
	assert.Equal(t, 1, fx.group.setCalls)
}

func TestChangeRank_CooldownBlocksSecondChange(t *testing.T) {
	fx := newRankerFixture(time.Minute)

	_, err := fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action:    model.AuditActionPromote,
		UserID:    123,
		RequestID: "req-1",
	})
	require.NoError(t, err)

	// A different action dodges dedup but hits the per-subject cooldown.
	_, err = fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action:    model.AuditActionDemote,
		UserID:    123,
		RequestID: "req-2",
	})
	assert.True(t, IsCooldownActive(err))
	assert.True(t, RetryAfterSeconds(err) > 0)
}

func TestChangeRank_UpstreamFailureDoesNotStartCooldown(t *testing.T) {
	fx := newRankerFixture(time.Minute)
	fx.group.setErr = errors.New("upstream 500")

	_, err := fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action: model.AuditActionPromote,
		UserID: 123,
	})
	assert.Error(t, err)

	assert.False(t, fx.cooldown.CheckCooldown("123").Active)
	assert.Equal(t, 1, fx.audit.Stats().Failed)
	assert.Equal(t, 0, fx.notifier.QueueLen())
}

func TestChangeRank_LookupFailureAudited(t *testing.T) {
	fx := newRankerFixture(0)
	fx.group.getErr = errors.New("member not found")

	_, err := fx.uc.ChangeRank(context.Background(), &RankChangeRequest{
		Action: model.AuditActionPromote,
		UserID: 123,
	})
	assert.Error(t, err)
	assert.Equal(t, 1, fx.audit.Stats().Failed)
}
