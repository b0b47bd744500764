// Package cloudevents implements the CloudEvents v1.0 envelope used on the
// wire by this library: the attribute schema, the flattened JSON encoding, and
// the decode-time error taxonomy. Transports see only the serialized form;
// everything else in the library works with the Event type defined here.
package cloudevents

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	idspkg "github.com/evbridge/evbridge/internal/runtime/ids"
)

// SpecVersion is the CloudEvents specification version implemented.
const SpecVersion = "1.0"

// ContentTypeJSON is the content type the codec writes by default.
const ContentTypeJSON = "application/json"

// Event represents a CloudEvents v1.0 compliant event.
// See https://github.com/cloudevents/spec/blob/v1.0/spec.md for details.
type Event struct {
	// Required attributes.

	// SpecVersion is the CloudEvents specification version, always "1.0".
	SpecVersion string `json:"specversion"`

	// Type describes the kind of occurrence, e.g. "io.cloudevents.demo.user.loggedIn".
	Type string `json:"type"`

	// Source identifies the logical publisher. It names identity, never routing.
	Source string `json:"source"`

	// ID uniquely identifies the event. Generated as a ULID when absent.
	ID string `json:"id"`

	// Optional attributes.

	// Time is the creation timestamp, set at encode time.
	Time time.Time `json:"time,omitempty"`

	// DataContentType describes the encoding of Data, e.g. "application/json".
	DataContentType *string `json:"datacontenttype,omitempty"`

	// DataSchema identifies the schema that Data adheres to.
	DataSchema *string `json:"dataschema,omitempty"`

	// Subject carries the event's natural key within the source, when one exists.
	Subject *string `json:"subject,omitempty"`

	// Data is the domain payload, opaque to addressing and registry logic.
	Data any `json:"data,omitempty"`

	// Extensions holds CloudEvents extension attributes. Values are
	// header-safe strings so they can cross transport header mechanisms
	// unchanged. Reserved attribute names are rejected as extension keys.
	Extensions map[string]string `json:"extensions,omitempty"`
}

// reservedAttributes are the CloudEvents context attribute names that must
// never appear as extension keys.
var reservedAttributes = map[string]bool{
	"specversion":     true,
	"type":            true,
	"source":          true,
	"id":              true,
	"time":            true,
	"datacontenttype": true,
	"dataschema":      true,
	"subject":         true,
	"data":            true,
	"data_base64":     true,
}

// IsReservedAttribute reports whether key names a core CloudEvents attribute
// and therefore cannot be used as an extension key.
func IsReservedAttribute(key string) bool {
	return reservedAttributes[key]
}

// New creates an event with the required attributes populated: a fresh ULID
// id, the current UTC time, and a JSON data content type.
func New(eventType, source string, data any) Event {
	ct := ContentTypeJSON
	return Event{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		Source:          source,
		ID:              idspkg.New(),
		Time:            Now(),
		DataContentType: &ct,
		Data:            data,
		Extensions:      make(map[string]string),
	}
}

// NewWithID creates an event with a caller-supplied id.
func NewWithID(id, eventType, source string, data any) Event {
	evt := New(eventType, source, data)
	evt.ID = id
	return evt
}

// WithSubject sets the subject attribute and returns the event.
func (e Event) WithSubject(subject string) Event {
	e.Subject = &subject
	return e
}

// WithDataContentType sets the data content type and returns the event.
func (e Event) WithDataContentType(contentType string) Event {
	e.DataContentType = &contentType
	return e
}

// WithDataSchema sets the data schema and returns the event.
func (e Event) WithDataSchema(schema string) Event {
	e.DataSchema = &schema
	return e
}

// WithExtension sets an extension attribute and returns the event. Reserved
// attribute names are ignored; use the typed fields for those.
func (e Event) WithExtension(key, value string) Event {
	if IsReservedAttribute(key) {
		return e
	}
	if e.Extensions == nil {
		e.Extensions = make(map[string]string)
	}
	e.Extensions[key] = value
	return e
}

// Extension returns the extension value for key and whether it was present.
func (e Event) Extension(key string) (string, bool) {
	if e.Extensions == nil {
		return "", false
	}
	v, ok := e.Extensions[key]
	return v, ok
}

// Validate checks that the event carries all required CloudEvents attributes.
// It returns a MalformedEnvelopeError naming the first missing attribute.
func (e Event) Validate() error {
	switch {
	case e.SpecVersion == "":
		return &MalformedEnvelopeError{Attribute: "specversion"}
	case e.SpecVersion != SpecVersion:
		return &MalformedEnvelopeError{
			Attribute: "specversion",
			Cause:     fmt.Errorf("must be %q, got %q", SpecVersion, e.SpecVersion),
		}
	case e.Type == "":
		return &MalformedEnvelopeError{Attribute: "type"}
	case e.Source == "":
		return &MalformedEnvelopeError{Attribute: "source"}
	case e.ID == "":
		return &MalformedEnvelopeError{Attribute: "id"}
	}
	return nil
}

// Clone creates a deep copy of the event. Data is shared, attributes and
// extensions are copied.
func (e Event) Clone() Event {
	cloned := e

	if e.DataContentType != nil {
		v := *e.DataContentType
		cloned.DataContentType = &v
	}
	if e.DataSchema != nil {
		v := *e.DataSchema
		cloned.DataSchema = &v
	}
	if e.Subject != nil {
		v := *e.Subject
		cloned.Subject = &v
	}
	if e.Extensions != nil {
		cloned.Extensions = make(map[string]string, len(e.Extensions))
		for k, v := range e.Extensions {
			cloned.Extensions[k] = v
		}
	}

	return cloned
}

// MarshalJSON emits the flattened CloudEvents JSON format: extension
// attributes appear as top-level keys next to the core attributes.
func (e Event) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 8+len(e.Extensions))

	m["specversion"] = e.SpecVersion
	m["type"] = e.Type
	m["source"] = e.Source
	m["id"] = e.ID

	if !e.Time.IsZero() {
		m["time"] = e.Time.Format(TimeFormatNano)
	}
	if e.DataContentType != nil {
		m["datacontenttype"] = *e.DataContentType
	}
	if e.DataSchema != nil {
		m["dataschema"] = *e.DataSchema
	}
	if e.Subject != nil {
		m["subject"] = *e.Subject
	}
	if e.Data != nil {
		m["data"] = e.Data
	}

	for k, v := range e.Extensions {
		if IsReservedAttribute(k) {
			continue
		}
		m[k] = v
	}

	return json.Marshal(m)
}

// UnmarshalJSON parses the flattened CloudEvents JSON format. Unknown
// top-level keys are collected as extension attributes; scalar values are
// coerced to their string form so decoding stays forward compatible with
// producers that write typed extensions.
func (e *Event) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	if raw, ok := m["specversion"]; ok {
		if err := json.Unmarshal(raw, &e.SpecVersion); err != nil {
			return fmt.Errorf("invalid specversion: %w", err)
		}
	}
	if raw, ok := m["type"]; ok {
		if err := json.Unmarshal(raw, &e.Type); err != nil {
			return fmt.Errorf("invalid type: %w", err)
		}
	}
	if raw, ok := m["source"]; ok {
		if err := json.Unmarshal(raw, &e.Source); err != nil {
			return fmt.Errorf("invalid source: %w", err)
		}
	}
	if raw, ok := m["id"]; ok {
		if err := json.Unmarshal(raw, &e.ID); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
	}

	if raw, ok := m["time"]; ok {
		var timeStr string
		if err := json.Unmarshal(raw, &timeStr); err != nil {
			return fmt.Errorf("invalid time: %w", err)
		}
		t, err := ParseTime(timeStr)
		if err != nil {
			return fmt.Errorf("invalid time format: %w", err)
		}
		e.Time = t
	}
	if raw, ok := m["datacontenttype"]; ok {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("invalid datacontenttype: %w", err)
		}
		e.DataContentType = &v
	}
	if raw, ok := m["dataschema"]; ok {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("invalid dataschema: %w", err)
		}
		e.DataSchema = &v
	}
	if raw, ok := m["subject"]; ok {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("invalid subject: %w", err)
		}
		e.Subject = &v
	}
	if raw, ok := m["data"]; ok {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("invalid data: %w", err)
		}
		e.Data = v
	}

	e.Extensions = make(map[string]string)
	for k, raw := range m {
		if IsReservedAttribute(k) || k == "extensions" {
			continue
		}
		e.Extensions[k] = coerceExtensionValue(raw)
	}

	return nil
}

// coerceExtensionValue turns a raw JSON extension value into its string form.
// Strings are unquoted; numbers and booleans keep their literal spelling.
func coerceExtensionValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return string(raw)
}
