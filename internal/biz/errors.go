package biz

import (
	"fmt"
	"strconv"

	"github.com/go-kratos/kratos/v2/errors"
)

// Error reasons surfaced to HTTP callers. The service layer maps these to
// the structured rejection body; the codes below follow the status mapping
// 401 missing credential, 403 invalid credential / IP denied, 429 for
// lockout, duplicates, cooldown and rate limiting.
const (
	ReasonMissingCredential = "MISSING_CREDENTIAL"
	ReasonInvalidCredential = "INVALID_CREDENTIAL"
	ReasonIPDenied          = "IP_DENIED"
	ReasonLockedOut         = "LOCKED_OUT"
	ReasonDuplicateRequest  = "DUPLICATE_REQUEST"
	ReasonCooldownActive    = "COOLDOWN_ACTIVE"
	ReasonRateLimited       = "RATE_LIMIT_EXCEEDED"
)

// metadataRetryAfter carries the retry hint (seconds) on 429 errors.
const metadataRetryAfter = "retry_after"

func newMissingCredentialError() error {
	return errors.New(401, ReasonMissingCredential, "no API key supplied")
}

func newInvalidCredentialError() error {
	return errors.New(403, ReasonInvalidCredential, "invalid API key")
}

func newIPDeniedError(ip string) error {
	return errors.New(403, ReasonIPDenied, fmt.Sprintf("IP %s is not on the allowlist", ip))
}

func newLockedOutError(retryAfter int64) error {
	return errors.New(429, ReasonLockedOut,
		fmt.Sprintf("too many failed attempts, retry in %ds", retryAfter)).
		WithMetadata(map[string]string{metadataRetryAfter: strconv.FormatInt(retryAfter, 10)})
}

func newDuplicateRequestError(originalRequestID string) error {
	return errors.New(429, ReasonDuplicateRequest,
		fmt.Sprintf("duplicate of request %s", originalRequestID))
}

func newCooldownActiveError(remaining int64) error {
	return errors.New(429, ReasonCooldownActive,
		fmt.Sprintf("subject is cooling down, retry in %ds", remaining)).
		WithMetadata(map[string]string{metadataRetryAfter: strconv.FormatInt(remaining, 10)})
}

func newRateLimitedError(retryAfter int64) error {
	return errors.New(429, ReasonRateLimited,
		fmt.Sprintf("rate limit exceeded, retry in %ds", retryAfter)).
		WithMetadata(map[string]string{metadataRetryAfter: strconv.FormatInt(retryAfter, 10)})
}

// RetryAfterSeconds extracts the retry hint from a structured error.
// It returns 0 when the error carries none.
func RetryAfterSeconds(err error) int64 {
	se := errors.FromError(err)
	if se == nil {
		return 0
	}
	v, ok := se.Metadata[metadataRetryAfter]
	if !ok {
		return 0
	}
	n, convErr := strconv.ParseInt(v, 10, 64)
	if convErr != nil {
		return 0
	}
	return n
}

// IsLockedOut reports whether err is a lockout rejection.
func IsLockedOut(err error) bool {
	return errors.Reason(err) == ReasonLockedOut
}

// IsDuplicateRequest reports whether err is a duplicate-request rejection.
func IsDuplicateRequest(err error) bool {
	return errors.Reason(err) == ReasonDuplicateRequest
}

// IsCooldownActive reports whether err is a cooldown rejection.
func IsCooldownActive(err error) bool {
	return errors.Reason(err) == ReasonCooldownActive
}
