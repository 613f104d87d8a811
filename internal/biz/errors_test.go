package biz

import (
	"fmt"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
)

// reasonOf shortens reason assertions in the package tests.
func reasonOf(err error) string {
	return errors.Reason(err)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, int64(900), RetryAfterSeconds(newLockedOutError(900)))
	assert.Equal(t, int64(42), RetryAfterSeconds(newCooldownActiveError(42)))
	assert.Equal(t, int64(60), RetryAfterSeconds(newRateLimitedError(60)))

	// Errors without the metadata carry no hint.
	assert.Equal(t, int64(0), RetryAfterSeconds(newInvalidCredentialError()))
	assert.Equal(t, int64(0), RetryAfterSeconds(fmt.Errorf("plain error")))
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, 401, errors.Code(newMissingCredentialError()))
	assert.Equal(t, 403, errors.Code(newInvalidCredentialError()))
	assert.Equal(t, 403, errors.Code(newIPDeniedError("1.2.3.4")))
	assert.Equal(t, 429, errors.Code(newLockedOutError(900)))
	assert.Equal(t, 429, errors.Code(newDuplicateRequestError("req-1")))
	assert.Equal(t, 429, errors.Code(newCooldownActiveError(10)))
	assert.Equal(t, 429, errors.Code(newRateLimitedError(60)))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsLockedOut(newLockedOutError(1)))
	assert.True(t, IsDuplicateRequest(newDuplicateRequestError("req-1")))
	assert.True(t, IsCooldownActive(newCooldownActiveError(1)))

	assert.False(t, IsLockedOut(newRateLimitedError(1)))
	assert.False(t, IsDuplicateRequest(nil))
}
