package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferErrorMatchesSentinelByKind(t *testing.T) {
	err := &TransferError{Kind: KindMissingField, Field: "checksum"}
	wrapped := fmt.Errorf("receive: %w", err)

	assert.True(t, errors.Is(wrapped, ErrMissingField))
	assert.False(t, errors.Is(wrapped, ErrUnknownCategory))
	assert.Equal(t, KindMissingField, KindOf(wrapped))
	assert.Equal(t, "MissingField: checksum", err.Error())
}

func TestTransferErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewError(KindWriteFailure, cause)

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrWriteFailure)
	assert.Equal(t, "WriteFailure: disk full", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(errors.New("boom")))
	assert.Equal(t, KindNone, KindOf(nil))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "File verification failed", UserMessage(NewError(KindIntegrityMismatch, nil)))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Equal(t, "", UserMessage(nil))
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "PayloadTooLarge", KindPayloadTooLarge.String())
	assert.Equal(t, "ErrorKind(42)", ErrorKind(42).String())
}
