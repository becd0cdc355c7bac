package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		code  ErrorCode
		check func(error) bool
	}{
		{-809000, IsAlreadyExistsError},
		{-809000 - 13, IsAlreadyExistsError}, // errno folded into the low digits
		{-810000, IsAlreadyExistsError},
		{-310000, IsFileNotFoundError},
		{-808000, IsFileNotFoundError},
		{-818000, IsPermissionDeniedError},
		{-821000, IsCollectionNotEmptyError},
		{-826000, IsAuthError},
		{-827000, IsAuthError},
		{-993000, IsAuthError},
		{-511000, IsNetworkTimeoutError},
		{-520013, IsNetworkTimeoutError}, // storage-side timeout with errno folded in
		{-305111, IsNetworkTimeoutError}, // connect timeout with errno folded in
		{-1815000, IsNegotiationError},
		{-99999000, IsProtocolError}, // unmapped codes fall back to protocol errors
	}

	for _, test := range tests {
		err := TranslateError(test.code, "test")
		assert.Error(t, err, "code %d", test.code)
		assert.True(t, test.check(err), "code %d mapped to %T", test.code, err)
	}
}

func TestTranslateErrorNonNegative(t *testing.T) {
	assert.NoError(t, TranslateError(0, ""))
	assert.NoError(t, TranslateError(3, "a file descriptor"))
}

func TestErrorTypeChecks(t *testing.T) {
	assert.True(t, IsWireFormatError(NewWireFormatError("x")))
	assert.False(t, IsWireFormatError(NewAuthError("x")))
	assert.True(t, IsCancelledError(NewCancelledError("x")))
	assert.True(t, IsNotSupportedError(NewNotSupportedError("SetExecutable")))
	assert.True(t, IsDuplicateDataError(NewDuplicateDataError("x")))
	assert.True(t, IsRecoverableError(NewNetworkTimeoutError("x")))
	assert.True(t, IsRecoverableError(NewNetworkFailureError("x")))
	assert.False(t, IsRecoverableError(NewAuthError("x")))
}
