package errs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maxpoletaev/gridlink/errs"
)

func TestServerError_Classification(t *testing.T) {
	err := errs.NewServerError(errs.CodeTargetNotMember, "com.hazelcast.spi.exception.TargetNotMemberException", "gone", nil)

	assert.True(t, err.Retryable())
	assert.ErrorIs(t, err, errs.ErrTargetNotMember)
	assert.ErrorIs(t, err, errs.ErrRetryable)
	assert.ErrorIs(t, err, errs.ErrServer)
	assert.ErrorIs(t, err, errs.ErrClient)
	assert.Equal(t, "com.hazelcast.spi.exception.TargetNotMemberException: gone", err.Error())
}

func TestServerError_NotRetryable(t *testing.T) {
	err := errs.NewServerError(errs.CodeIllegalArgument, "java.lang.IllegalArgumentException", "", nil)

	assert.False(t, err.Retryable())
	assert.ErrorIs(t, err, errs.ErrServer)
	assert.Equal(t, "java.lang.IllegalArgumentException", err.Error())
}

func TestServerError_UnknownCode(t *testing.T) {
	err := errs.NewServerError(12345, "x.Y", "boom", nil)

	assert.False(t, err.Retryable())
	assert.ErrorIs(t, err, errs.ErrServer)
}

func TestServerError_Cause(t *testing.T) {
	cause := errs.NewServerError(errs.CodeInstanceNotActive, "x.NotActive", "", nil)
	err := errs.NewServerError(errs.CodeIllegalState, "x.State", "", nil)
	err.Cause = cause

	var target *errs.ServerError
	assert.True(t, errors.As(err, &target))
	assert.ErrorIs(t, err, errs.ErrInstanceNotActive)
}

func TestAuthenticationHierarchy(t *testing.T) {
	assert.ErrorIs(t, errs.ErrCredentialsFailed, errs.ErrAuthentication)
	assert.ErrorIs(t, errs.ErrNotAllowedInCluster, errs.ErrAuthentication)
	assert.ErrorIs(t, errs.ErrHeartbeatTimeout, errs.ErrIO)
	assert.NotErrorIs(t, errs.ErrDisconnected, errs.ErrClientNotActive)
}
