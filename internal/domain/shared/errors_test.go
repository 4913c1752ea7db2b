package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", ErrMalformedPayload)

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
}

func TestDomainError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError("notification", "Emit", ErrServiceUnavailable, "publish failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, "notification.Emit: publish failed: connection refused", err.Error())
}

func TestPolicyKinds(t *testing.T) {
	assert.True(t, IsPolicyDenied(ErrWorkloadDenied))
	assert.True(t, IsPolicyDenied(ErrMissingPrerequisites))
	assert.False(t, IsPolicyDenied(ErrAlreadyRegistered))
	assert.True(t, errors.Is(ErrCourseNotActive, ErrNoOp))
}
