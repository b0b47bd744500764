package cloudevents

import "time"

// Time format constants for CloudEvents.
const (
	// TimeFormat is the standard CloudEvents time format (RFC3339).
	TimeFormat = time.RFC3339

	// TimeFormatNano is the RFC3339 format with nanosecond precision.
	TimeFormatNano = time.RFC3339Nano
)

// ParseTime parses a CloudEvents time attribute. RFC3339 with or without
// sub-second precision is accepted.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeFormatNano, s); err == nil {
		return t, nil
	}
	return time.Parse(TimeFormat, s)
}

// FormatTime formats a time value for the envelope. Zero times format to the
// empty string so optional attributes stay absent.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}

// Now returns the current UTC time.
func Now() time.Time {
	return time.Now().UTC()
}
