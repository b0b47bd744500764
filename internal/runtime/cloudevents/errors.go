package cloudevents

import (
	"errors"
	"fmt"
)

// Decode- and registration-time error taxonomy. The two decode conditions are
// deliberately distinct so a consumer can dead-letter malformed envelopes but
// log-and-skip (or fail fast on) events of an unknown type.

var (
	// ErrMalformedEnvelope matches any envelope that is missing required
	// attributes or whose payload cannot be parsed.
	ErrMalformedEnvelope = errors.New("evbridge: malformed envelope")

	// ErrUnroutableMessage matches a well-formed envelope whose type has no
	// registered handler or registry entry.
	ErrUnroutableMessage = errors.New("evbridge: unroutable message")

	// ErrDuplicateRegistration matches a repeated type registration when the
	// registry operates in strict mode.
	ErrDuplicateRegistration = errors.New("evbridge: duplicate type registration")
)

// MalformedEnvelopeError reports an envelope that failed decoding or
// validation. Attribute names the offending attribute when known.
type MalformedEnvelopeError struct {
	Attribute string
	Cause     error
}

func (e *MalformedEnvelopeError) Error() string {
	switch {
	case e.Attribute != "" && e.Cause != nil:
		return fmt.Sprintf("evbridge: malformed envelope: attribute %q: %v", e.Attribute, e.Cause)
	case e.Attribute != "":
		return fmt.Sprintf("evbridge: malformed envelope: attribute %q is required", e.Attribute)
	case e.Cause != nil:
		return fmt.Sprintf("evbridge: malformed envelope: %v", e.Cause)
	}
	return "evbridge: malformed envelope"
}

func (e *MalformedEnvelopeError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrMalformedEnvelope) work for wrapped instances.
func (e *MalformedEnvelopeError) Is(target error) bool {
	if target == ErrMalformedEnvelope {
		return true
	}
	_, ok := target.(*MalformedEnvelopeError)
	return ok
}

// UnroutableMessageError reports a decoded envelope whose type attribute has
// no registered consumer.
type UnroutableMessageError struct {
	EventType string
}

func (e *UnroutableMessageError) Error() string {
	return fmt.Sprintf("evbridge: unroutable message: no registration for type %q", e.EventType)
}

// Is makes errors.Is(err, ErrUnroutableMessage) work for wrapped instances.
func (e *UnroutableMessageError) Is(target error) bool {
	if target == ErrUnroutableMessage {
		return true
	}
	_, ok := target.(*UnroutableMessageError)
	return ok
}

// DuplicateRegistrationError reports a repeated registration rejected by a
// strict-mode registry.
type DuplicateRegistrationError struct {
	TypeName string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("evbridge: duplicate registration for type %q", e.TypeName)
}

// Is makes errors.Is(err, ErrDuplicateRegistration) work for wrapped instances.
func (e *DuplicateRegistrationError) Is(target error) bool {
	if target == ErrDuplicateRegistration {
		return true
	}
	_, ok := target.(*DuplicateRegistrationError)
	return ok
}

// IsMalformed reports whether err represents a malformed envelope.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedEnvelope)
}

// IsUnroutable reports whether err represents an unroutable message.
func IsUnroutable(err error) bool {
	return errors.Is(err, ErrUnroutableMessage)
}
