package biz

import (
	"os"
	"testing"
	"time"

	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
)

func newTestCooldown(d time.Duration) (*CooldownTrackerUseCase, *time.Time) {
	logger := log.NewStdLogger(os.Stdout)
	uc := NewCooldownTrackerUseCase(&conf.Cooldown{Duration: d}, logger)

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return current }
	return uc, &current
}

func TestCheckCooldown_DisabledAtZero(t *testing.T) {
	uc, _ := newTestCooldown(0)

	uc.RecordChange("123")
	status := uc.CheckCooldown("123")
	assert.False(t, status.Active)
}

func TestCheckCooldown_ActiveAfterChange(t *testing.T) {
	uc, clock := newTestCooldown(time.Minute)

	uc.RecordChange("123")
	*clock = clock.Add(10 * time.Second)

	status := uc.CheckCooldown("123")
	assert.True(t, status.Active)
	assert.Equal(t, int64(50), status.RemainingSeconds)
}

func TestCheckCooldown_ExpiresAfterDuration(t *testing.T) {
	uc, clock := newTestCooldown(time.Minute)

	uc.RecordChange("123")
	*clock = clock.Add(time.Minute)

	assert.False(t, uc.CheckCooldown("123").Active)
}

func TestCheckCooldown_UnknownSubject(t *testing.T) {
	uc, _ := newTestCooldown(time.Minute)

	assert.False(t, uc.CheckCooldown("999").Active)
}

func TestCheckCooldown_PerSubject(t *testing.T) {
	uc, _ := newTestCooldown(time.Minute)

	uc.RecordChange("123")

	assert.True(t, uc.CheckCooldown("123").Active)
	assert.False(t, uc.CheckCooldown("456").Active)
}

func TestCooldownSweep_RemovesOnlyStaleEntries(t *testing.T) {
	uc, clock := newTestCooldown(time.Minute)

	uc.RecordChange("old")
	*clock = clock.Add(2 * time.Minute)
	uc.RecordChange("fresh")

	removed := uc.Sweep()
	assert.Equal(t, 1, removed)
	assert.True(t, uc.CheckCooldown("fresh").Active)
}

func TestCooldownSweep_DisabledAtZero(t *testing.T) {
	uc, _ := newTestCooldown(0)

	assert.Equal(t, 0, uc.Sweep())
}
