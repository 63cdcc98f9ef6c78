package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed transfer for programmatic handling.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindMalformedEnvelope
	KindMissingField
	KindUnknownCategory
	KindMalformedEncoding
	KindWriteFailure
	KindIntegrityMismatch
	KindPayloadTooLarge
)

var kindNames = map[ErrorKind]string{
	KindNone:              "None",
	KindMalformedEnvelope: "MalformedEnvelope",
	KindMissingField:      "MissingField",
	KindUnknownCategory:   "UnknownCategory",
	KindMalformedEncoding: "MalformedEncoding",
	KindWriteFailure:      "WriteFailure",
	KindIntegrityMismatch: "IntegrityMismatch",
	KindPayloadTooLarge:   "PayloadTooLarge",
}

// short user-facing messages
var kindMessages = map[ErrorKind]string{
	KindMalformedEnvelope: "Invalid QR code format",
	KindMissingField:      "QR code is missing file information",
	KindUnknownCategory:   "QR code has an unknown file category",
	KindMalformedEncoding: "QR code file content is corrupted",
	KindWriteFailure:      "Failed to save file",
	KindIntegrityMismatch: "File verification failed",
	KindPayloadTooLarge:   "File is too large for a QR code",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// TransferError is returned by every step of the envelope pipeline.
// Field is set for KindMissingField and KindUnknownCategory.
type TransferError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *TransferError) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is reports a match for any TransferError of the same kind, so the
// sentinels below work with errors.Is regardless of field or cause.
func (e *TransferError) Is(target error) bool {
	t, ok := target.(*TransferError)
	return ok && t.Kind == e.Kind
}

// Message returns a short human-readable description of the failure.
func (e *TransferError) Message() string {
	return kindMessages[e.Kind]
}

var (
	ErrMalformedEnvelope = &TransferError{Kind: KindMalformedEnvelope}
	ErrMissingField      = &TransferError{Kind: KindMissingField}
	ErrUnknownCategory   = &TransferError{Kind: KindUnknownCategory}
	ErrMalformedEncoding = &TransferError{Kind: KindMalformedEncoding}
	ErrWriteFailure      = &TransferError{Kind: KindWriteFailure}
	ErrIntegrityMismatch = &TransferError{Kind: KindIntegrityMismatch}
	ErrPayloadTooLarge   = &TransferError{Kind: KindPayloadTooLarge}
)

// NewError wraps cause as a TransferError of the given kind.
func NewError(kind ErrorKind, cause error) *TransferError {
	return &TransferError{Kind: kind, Err: cause}
}

// KindOf extracts the ErrorKind from err, or KindNone.
func KindOf(err error) ErrorKind {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindNone
}

// UserMessage returns the short message for err, falling back to err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TransferError
	if errors.As(err, &te) {
		if msg := te.Message(); msg != "" {
			return msg
		}
	}
	return err.Error()
}
