package errors

import sterrors "errors"

var (
	ErrServiceRequired     = sterrors.New("evbridge: event service is required")
	ErrHandlerRequired     = sterrors.New("evbridge: handler function is required")
	ErrTypeNameRequired    = sterrors.New("evbridge: message type name is required")
	ErrPayloadRequired     = sterrors.New("evbridge: event payload is required")
	ErrPublisherRequired   = sterrors.New("evbridge: publisher is required")
	ErrDestinationRequired = sterrors.New("evbridge: destination topic is required")
	ErrConfigRequired      = sterrors.New("evbridge: config is required")
	ErrLoggerRequired      = sterrors.New("evbridge: logger is required")
)

// ConfigValidationError wraps the individual validation failures discovered
// while checking a Config so callers can report them together.
type ConfigValidationError struct {
	Issues []error
}

func (e *ConfigValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "evbridge: invalid config"
	}
	msg := "evbridge: invalid config:"
	for _, issue := range e.Issues {
		msg += " " + issue.Error() + ";"
	}
	return msg[:len(msg)-1]
}

func (e *ConfigValidationError) Unwrap() []error {
	return e.Issues
}
