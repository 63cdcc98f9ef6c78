package transfer

import (
	"errors"

	"github.com/moyoez/qrdrop/types"
)

// State of a Receiver.
type State int32

const (
	StateScanning State = iota
	StateProcessing
	StateDone
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "Scanning"
	case StateProcessing:
		return "Processing"
	case StateDone:
		return "Done"
	case StateRejected:
		return "Rejected"
	}
	return "Unknown"
}

// ErrBusy is returned when decoded text arrives while a transfer is in flight
// or after the receiver finished.
var ErrBusy = errors.New("receiver is not scanning")

// Result is the outcome of one decoded frame.
type Result struct {
	State  State
	Record types.FileRecord
	Err    error
}

// Kind is the transfer error kind of a rejected result.
func (r Result) Kind() types.ErrorKind {
	return types.KindOf(r.Err)
}

// Message is the short text shown to the user.
func (r Result) Message() string {
	switch r.State {
	case StateDone:
		return "File received successfully"
	case StateRejected:
		return types.UserMessage(r.Err)
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return ""
}
