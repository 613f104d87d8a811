package biz

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"RankGate/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRateLimitRepo is a mock implementation of RateLimitRepo for testing.
type MockRateLimitRepo struct {
	mock.Mock
}

func (m *MockRateLimitRepo) IncrementHits(ctx context.Context, ip string, window time.Duration) (int64, error) {
	args := m.Called(ctx, ip, window)
	return args.Get(0).(int64), args.Error(1)
}

func newTestRateLimiter(repo RateLimitRepo, max int) *RateLimiterUseCase {
	logger := log.NewStdLogger(os.Stdout)
	return NewRateLimiterUseCase(&conf.RateLimit{Window: time.Minute, Max: max}, repo, logger)
}

func TestRateLimitCheck_UnderLimit(t *testing.T) {
	mockRepo := new(MockRateLimitRepo)
	uc := newTestRateLimiter(mockRepo, 30)

	ctx := context.Background()
	mockRepo.On("IncrementHits", ctx, "1.2.3.4", time.Minute).Return(int64(10), nil)

	assert.NoError(t, uc.Check(ctx, "1.2.3.4"))
	mockRepo.AssertExpectations(t)
}

func TestRateLimitCheck_AtLimit(t *testing.T) {
	mockRepo := new(MockRateLimitRepo)
	uc := newTestRateLimiter(mockRepo, 30)

	ctx := context.Background()
	// The 30th request of the window is still allowed.
	mockRepo.On("IncrementHits", ctx, "1.2.3.4", time.Minute).Return(int64(30), nil)

	assert.NoError(t, uc.Check(ctx, "1.2.3.4"))
}

func TestRateLimitCheck_Exceeded(t *testing.T) {
	mockRepo := new(MockRateLimitRepo)
	uc := newTestRateLimiter(mockRepo, 30)

	ctx := context.Background()
	mockRepo.On("IncrementHits", ctx, "1.2.3.4", time.Minute).Return(int64(31), nil)

	err := uc.Check(ctx, "1.2.3.4")
	assert.Equal(t, ReasonRateLimited, reasonOf(err))
	assert.Equal(t, int64(60), RetryAfterSeconds(err))
}

func TestRateLimitCheck_StoreFailureDegradesOpen(t *testing.T) {
	mockRepo := new(MockRateLimitRepo)
	uc := newTestRateLimiter(mockRepo, 30)

	ctx := context.Background()
	mockRepo.On("IncrementHits", ctx, "1.2.3.4", time.Minute).Return(int64(0), errors.New("redis down"))

	// Losing the counter store must not reject operators.
	assert.NoError(t, uc.Check(ctx, "1.2.3.4"))
}

func TestRateLimitCheck_DisabledAtZeroMax(t *testing.T) {
	uc := newTestRateLimiter(nil, 0)

	assert.NoError(t, uc.Check(context.Background(), "1.2.3.4"))
}
