package agents

import (
	"errors"
	"fmt"

	"github.com/va6996/aifns/llm"
)

// Conditions that end a conversation. Match them with errors.Is.
var (
	ErrTruncated           = errors.New("message too long")
	ErrUnknownCapability   = errors.New("unknown capability")
	ErrMalformedArguments  = errors.New("malformed function call arguments")
	ErrUnknownFinishReason = errors.New("unknown finish reason")
	ErrTurnBudgetExceeded  = errors.New("turn budget exceeded")
	ErrModel               = errors.New("model request failed")
)

var reasonCodes = map[error]string{
	ErrTruncated:           "truncated",
	ErrUnknownCapability:   "unknown_capability",
	ErrMalformedArguments:  "malformed_arguments",
	ErrUnknownFinishReason: "unknown_finish_reason",
	ErrTurnBudgetExceeded:  "turn_budget_exceeded",
	ErrModel:               "model_error",
}

// Error is a fatal conversation error. Kind is one of the Err* values above.
type Error struct {
	Kind         error
	Capability   string
	FinishReason llm.FinishReason
	Turn         int
	Err          error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	switch {
	case e.Kind == ErrTurnBudgetExceeded:
		msg = fmt.Sprintf("%s after %d function calls", msg, e.Turn)
	case e.Capability != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Capability)
	case e.FinishReason != "":
		msg = fmt.Sprintf("%s: %s", msg, e.FinishReason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns a stable machine-readable name for the error kind
func (e *Error) Code() string {
	if code, ok := reasonCodes[e.Kind]; ok {
		return code
	}
	return "unknown"
}
