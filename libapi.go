package evbridge

import (
	runtimepkg "github.com/evbridge/evbridge/internal/runtime"
	addressingpkg "github.com/evbridge/evbridge/internal/runtime/addressing"
	ce "github.com/evbridge/evbridge/internal/runtime/cloudevents"
	configpkg "github.com/evbridge/evbridge/internal/runtime/config"
	errspkg "github.com/evbridge/evbridge/internal/runtime/errors"
	idspkg "github.com/evbridge/evbridge/internal/runtime/ids"
	jsoncodec "github.com/evbridge/evbridge/internal/runtime/jsoncodec"
	loggingpkg "github.com/evbridge/evbridge/internal/runtime/logging"
	metadatapkg "github.com/evbridge/evbridge/internal/runtime/metadata"
	registrypkg "github.com/evbridge/evbridge/internal/runtime/registry"
	tracingpkg "github.com/evbridge/evbridge/internal/runtime/tracing"
	transportpkg "github.com/evbridge/evbridge/transport"
)

type (
	Config              = configpkg.Config
	Service             = runtimepkg.Service
	ServiceDependencies = runtimepkg.ServiceDependencies

	MiddlewareBuilder      = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration = runtimepkg.MiddlewareRegistration
	RetryMiddlewareConfig  = runtimepkg.RetryMiddlewareConfig

	Metadata = metadatapkg.Metadata

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	HandlerInfo           = runtimepkg.HandlerInfo
	ConfigValidationError = errspkg.ConfigValidationError

	// CloudEvents types
	Event         = ce.Event
	EventHandler  = runtimepkg.EventHandler
	PublishOption = runtimepkg.PublishOption
	Subjecter     = runtimepkg.Subjecter

	// Envelope error types, distinguishable via errors.Is for dead-letter routing.
	MalformedEnvelopeError     = ce.MalformedEnvelopeError
	UnroutableMessageError     = ce.UnroutableMessageError
	DuplicateRegistrationError = ce.DuplicateRegistrationError

	// Type registry
	TypeRegistry   = registrypkg.TypeRegistry
	RegistryEntry  = registrypkg.Entry
	RegistryOption = registrypkg.Option
	RegisterOption = registrypkg.RegisterOption

	// Addressing
	Address          = addressingpkg.Address
	AddressingConfig = addressingpkg.Config
	AddressResolver  = addressingpkg.Resolver

	// Trace context propagation
	TracePropagator = tracingpkg.Propagator

	// Transport plumbing (see the transport sub-packages)
	Transport             = transportpkg.Transport
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities
	TransportProvisioner  = transportpkg.Provisioner
)

var (
	NewService     = runtimepkg.NewService
	TryNewService  = runtimepkg.TryNewService
	ValidateConfig = configpkg.ValidateConfig

	DefaultMiddlewares      = runtimepkg.DefaultMiddlewares
	CorrelationIDMiddleware = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = runtimepkg.LogMessagesMiddleware
	TracerMiddleware        = runtimepkg.TracerMiddleware
	MetricsMiddleware       = runtimepkg.MetricsMiddleware
	RetryMiddleware         = runtimepkg.RetryMiddleware
	DeadLetterMiddleware    = runtimepkg.DeadLetterMiddleware
	RecovererMiddleware     = runtimepkg.RecovererMiddleware

	// CloudEvents constructors and helpers
	NewCloudEvent       = ce.New
	NewCloudEventWithID = ce.NewWithID

	// CloudEvents extension helpers
	TraceParent          = ce.TraceParent
	SetTraceParent       = ce.SetTraceParent
	TraceState           = ce.TraceState
	SetTraceState        = ce.SetTraceState
	GetCorrelationID     = ce.CorrelationID
	SetCorrelationID     = ce.SetCorrelationID
	OriginalTopic        = ce.OriginalTopic
	ErrorMessage         = ce.ErrorMessage
	PrepareForDeadLetter = ce.PrepareForDeadLetter
	DeadLetterTopic      = ce.DeadLetterTopic
	CopyTracingContext   = ce.CopyTracingContext
	IsReservedAttribute  = ce.IsReservedAttribute

	// Envelope error classification
	ErrMalformedEnvelope     = ce.ErrMalformedEnvelope
	ErrUnroutableMessage     = ce.ErrUnroutableMessage
	ErrDuplicateRegistration = ce.ErrDuplicateRegistration
	IsMalformed              = ce.IsMalformed
	IsUnroutable             = ce.IsUnroutable

	// Type registry options
	StrictRegistry = registrypkg.Strict
	WithTopic      = registrypkg.WithTopic
	WithEventType  = registrypkg.WithEventType

	// Modular transport registry.
	// Import individual transports via: _ "github.com/evbridge/evbridge/transport/kafka"
	// or all of them via: _ "github.com/evbridge/evbridge/transport/transports"
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build
	GetCapabilities          = transportpkg.GetCapabilities

	// Publish options
	WithEventID           = runtimepkg.WithEventID
	WithSubject           = runtimepkg.WithSubject
	WithDataContentType   = runtimepkg.WithDataContentType
	WithDataSchema        = runtimepkg.WithDataSchema
	WithExtension         = runtimepkg.WithExtension
	WithCorrelationID     = runtimepkg.WithCorrelationID
	WithTransportMetadata = runtimepkg.WithTransportMetadata

	// DecodeData decodes an event's data attribute into a Go value.
	DecodeData = runtimepkg.DecodeData

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrServiceRequired     = errspkg.ErrServiceRequired
	ErrHandlerRequired     = errspkg.ErrHandlerRequired
	ErrTypeNameRequired    = errspkg.ErrTypeNameRequired
	ErrPayloadRequired     = errspkg.ErrPayloadRequired
	ErrPublisherRequired   = errspkg.ErrPublisherRequired
	ErrDestinationRequired = errspkg.ErrDestinationRequired
	ErrConfigRequired      = errspkg.ErrConfigRequired
	ErrLoggerRequired      = errspkg.ErrLoggerRequired

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger

	NewMetadata = metadatapkg.New

	// TransportMetadataFromContext returns the transport headers of the
	// message currently being handled.
	TransportMetadataFromContext = metadatapkg.FromContext

	// NewEventID generates a unique event ID using ULID.
	NewEventID = idspkg.New
)

// CloudEvents attribute constants.
const (
	SpecVersion     = ce.SpecVersion
	ContentTypeJSON = ce.ContentTypeJSON

	// PlaceholderSource is the source attribute used when no identity is configured.
	PlaceholderSource = addressingpkg.PlaceholderSource
)

// CloudEvents extension keys owned by evbridge.
const (
	// ExtTraceParent is the W3C Trace Context traceparent header.
	ExtTraceParent = ce.ExtTraceParent

	// ExtTraceState is the W3C Trace Context tracestate header.
	ExtTraceState = ce.ExtTraceState

	// ExtCorrelationID is a correlation identifier for request tracing.
	ExtCorrelationID = ce.ExtCorrelationID

	// ExtOriginalTopic stores the original destination when dead-lettered.
	ExtOriginalTopic = ce.ExtOriginalTopic

	// ExtErrorMessage stores the last processing error when dead-lettered.
	ExtErrorMessage = ce.ExtErrorMessage
)

// TypedEventHandler receives the envelope plus its data attribute decoded into T.
type TypedEventHandler[T any] = runtimepkg.TypedEventHandler[T]

// ConsumeTyped registers a handler that receives the event data decoded into T.
// Data that does not decode into T is dead-lettered as malformed.
func ConsumeTyped[T any](svc *Service, typeName string, handler TypedEventHandler[T]) error {
	return runtimepkg.ConsumeTyped(svc, typeName, handler)
}
