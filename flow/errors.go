package flow

import "errors"

// ErrMaxStepsExceeded indicates that a run reached the configured step
// bound without pausing or completing. This guards against transition
// tables that cycle without an exit.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// EngineError represents a configuration or execution error from the Engine.
type EngineError struct {
	Message string
	Code    string
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
