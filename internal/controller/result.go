package controller

import (
	"fmt"

	"github.com/jetsetgo/sidekick-setup/internal/form"
)

// FailureReason classifies a failed save
type FailureReason int

const (
	// ReasonTransport means no response body was obtained
	ReasonTransport FailureReason = iota + 1
	// ReasonParse means the body was not JSON
	ReasonParse
	// ReasonStatus means the reply status was not "success"
	ReasonStatus
)

func (r FailureReason) String() string {
	switch r {
	case ReasonTransport:
		return "transport"
	case ReasonParse:
		return "parse"
	case ReasonStatus:
		return "status"
	default:
		return "unknown"
	}
}

// SaveResult is either Success or Failure
type SaveResult interface {
	saveResult()
}

// Success is a save the server acknowledged
type Success struct{}

// Failure is any other outcome
type Failure struct {
	Reason FailureReason
	// Status is the reply status for ReasonStatus
	Status string
	Err    error
}

func (Success) saveResult() {}
func (Failure) saveResult() {}

func (f Failure) Error() string {
	switch {
	case f.Err != nil:
		return fmt.Sprintf("save failed (%s): %v", f.Reason, f.Err)
	case f.Reason == ReasonStatus:
		return fmt.Sprintf("save failed: status %q", f.Status)
	default:
		return fmt.Sprintf("save failed (%s)", f.Reason)
	}
}

func (f Failure) Unwrap() error { return f.Err }

// Interpret turns the outcome of a save request into a SaveResult
func Interpret(body []byte, err error) SaveResult {
	if err != nil {
		return Failure{Reason: ReasonTransport, Err: err}
	}
	reply, err := form.ParseReply(body)
	if err != nil {
		return Failure{Reason: ReasonParse, Err: err}
	}
	if !reply.OK() {
		return Failure{Reason: ReasonStatus, Status: reply.Status}
	}
	return Success{}
}
