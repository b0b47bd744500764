package cloudevents

// Extension attribute keys owned by this library. Keys follow the CloudEvents
// extension naming rules (lowercase, header-safe) so they survive transports
// that map extensions onto native headers.
const (
	// ExtTraceParent is the W3C Trace Context traceparent header.
	ExtTraceParent = "traceparent"

	// ExtTraceState is the W3C Trace Context tracestate header.
	ExtTraceState = "tracestate"

	// ExtCorrelationID is a correlation identifier for request tracing.
	ExtCorrelationID = "correlationid"

	// ExtOriginalTopic stores the original destination when dead-lettered.
	ExtOriginalTopic = "originaltopic"

	// ExtErrorMessage stores the last processing error when dead-lettered.
	ExtErrorMessage = "errormessage"
)

func setExtension(evt *Event, key, value string) {
	if evt.Extensions == nil {
		evt.Extensions = make(map[string]string)
	}
	evt.Extensions[key] = value
}

// TraceParent returns the traceparent extension, or "" when absent.
func TraceParent(evt Event) string {
	v, _ := evt.Extension(ExtTraceParent)
	return v
}

// SetTraceParent sets the traceparent extension.
func SetTraceParent(evt *Event, traceparent string) {
	setExtension(evt, ExtTraceParent, traceparent)
}

// TraceState returns the tracestate extension, or "" when absent.
func TraceState(evt Event) string {
	v, _ := evt.Extension(ExtTraceState)
	return v
}

// SetTraceState sets the tracestate extension.
func SetTraceState(evt *Event, tracestate string) {
	setExtension(evt, ExtTraceState, tracestate)
}

// CorrelationID returns the correlation id extension, or "" when absent.
func CorrelationID(evt Event) string {
	v, _ := evt.Extension(ExtCorrelationID)
	return v
}

// SetCorrelationID sets the correlation id extension.
func SetCorrelationID(evt *Event, correlationID string) {
	setExtension(evt, ExtCorrelationID, correlationID)
}

// OriginalTopic returns the pre-dead-letter destination, or "" when absent.
func OriginalTopic(evt Event) string {
	v, _ := evt.Extension(ExtOriginalTopic)
	return v
}

// ErrorMessage returns the recorded processing error, or "" when absent.
func ErrorMessage(evt Event) string {
	v, _ := evt.Extension(ExtErrorMessage)
	return v
}

// PrepareForDeadLetter records the original destination and the failure on
// the event before it is forwarded to a dead-letter topic.
func PrepareForDeadLetter(evt *Event, originalTopic string, err error) {
	setExtension(evt, ExtOriginalTopic, originalTopic)
	if err != nil {
		setExtension(evt, ExtErrorMessage, err.Error())
	}
}

// DeadLetterTopic returns the dead-letter topic name for a destination.
// Convention: <topic>.dead
func DeadLetterTopic(topic string) string {
	return topic + ".dead"
}

// CopyTracingContext copies trace and correlation extensions from src to dst,
// so response events stay correlated with the event that caused them.
func CopyTracingContext(src Event, dst *Event) {
	if tp := TraceParent(src); tp != "" {
		SetTraceParent(dst, tp)
	}
	if ts := TraceState(src); ts != "" {
		SetTraceState(dst, ts)
	}
	if cid := CorrelationID(src); cid != "" {
		SetCorrelationID(dst, cid)
	}
}
