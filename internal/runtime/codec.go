package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	addressingpkg "github.com/evbridge/evbridge/internal/runtime/addressing"
	ce "github.com/evbridge/evbridge/internal/runtime/cloudevents"
	errspkg "github.com/evbridge/evbridge/internal/runtime/errors"
	"github.com/evbridge/evbridge/internal/runtime/jsoncodec"
	metadatapkg "github.com/evbridge/evbridge/internal/runtime/metadata"
	registrypkg "github.com/evbridge/evbridge/internal/runtime/registry"
	tracingpkg "github.com/evbridge/evbridge/internal/runtime/tracing"
)

var protoJSONMarshalOptions = protojson.MarshalOptions{
	EmitUnpopulated: true,
}

// Subjecter is implemented by payload types that can derive their own
// CloudEvents subject attribute, typically the entity's natural key.
type Subjecter interface {
	EventSubject() string
}

// PublishOption configures a single encode/publish call.
type PublishOption func(*publishOptions)

type publishOptions struct {
	eventID         string
	subject         *string
	dataContentType *string
	dataSchema      *string
	extensions      map[string]string
	correlationID   string
	headers         metadatapkg.Metadata
}

// WithEventID overrides the generated event id.
func WithEventID(id string) PublishOption {
	return func(o *publishOptions) {
		o.eventID = id
	}
}

// WithSubject sets the CloudEvents subject attribute.
func WithSubject(subject string) PublishOption {
	return func(o *publishOptions) {
		o.subject = &subject
	}
}

// WithDataContentType sets the data content type (e.g., "application/json").
func WithDataContentType(contentType string) PublishOption {
	return func(o *publishOptions) {
		o.dataContentType = &contentType
	}
}

// WithDataSchema sets the data schema URI.
func WithDataSchema(schema string) PublishOption {
	return func(o *publishOptions) {
		o.dataSchema = &schema
	}
}

// WithExtension adds a CloudEvents extension attribute. Reserved attribute
// names are ignored.
func WithExtension(key, value string) PublishOption {
	return func(o *publishOptions) {
		if o.extensions == nil {
			o.extensions = make(map[string]string)
		}
		o.extensions[key] = value
	}
}

// WithCorrelationID sets the correlation ID for request tracing.
func WithCorrelationID(correlationID string) PublishOption {
	return func(o *publishOptions) {
		o.correlationID = correlationID
	}
}

// WithTransportMetadata adds raw transport headers to the outgoing message.
// Unlike extensions, these headers travel outside the envelope and are not
// part of the event.
func WithTransportMetadata(md metadatapkg.Metadata) PublishOption {
	return func(o *publishOptions) {
		o.headers = o.headers.WithAll(md)
	}
}

// Codec converts between domain payloads, CloudEvents envelopes, and transport
// messages. It binds the type registry, the address resolver, and the trace
// propagator; all publish and consume paths go through it. Safe for concurrent
// use.
type Codec struct {
	registry      *registrypkg.TypeRegistry
	resolver      *addressingpkg.Resolver
	propagator    *tracingpkg.Propagator
	nativeHeaders bool
}

// NewCodec constructs a codec over the given registry and resolver. When
// nativeHeaders is set, extension attributes are mirrored into transport
// metadata on encode.
func NewCodec(reg *registrypkg.TypeRegistry, resolver *addressingpkg.Resolver, nativeHeaders bool) *Codec {
	return &Codec{
		registry:      reg,
		resolver:      resolver,
		propagator:    tracingpkg.NewPropagator(),
		nativeHeaders: nativeHeaders,
	}
}

// Encode builds the envelope and transport message for one outgoing payload.
// The CloudEvents type and source attributes come from the registry and the
// resolver; the active trace context from ctx is injected as extension
// attributes before serialization.
func (c *Codec) Encode(ctx context.Context, typeName string, payload any, opts ...PublishOption) (ce.Event, *message.Message, error) {
	if typeName == "" {
		return ce.Event{}, nil, errspkg.ErrTypeNameRequired
	}
	if payload == nil {
		return ce.Event{}, nil, errspkg.ErrPayloadRequired
	}

	data, err := encodePayload(payload)
	if err != nil {
		return ce.Event{}, nil, fmt.Errorf("failed to encode payload for %q: %w", typeName, err)
	}

	evt := ce.New(c.registry.EventType(typeName), c.resolver.Source(typeName), data)

	if s, ok := payload.(Subjecter); ok {
		if subject := s.EventSubject(); subject != "" {
			evt = evt.WithSubject(subject)
		}
	}
	po := applyPublishOptions(&evt, opts)

	if ctx != nil {
		c.propagator.Inject(ctx, evt.Extensions)
	}

	msg, err := c.EncodeEvent(ctx, evt)
	if err != nil {
		return ce.Event{}, nil, err
	}
	for k, v := range metadatapkg.ToWatermill(po.headers) {
		msg.Metadata.Set(k, v)
	}
	return evt, msg, nil
}

// EncodeEvent serializes a fully-formed envelope into a transport message.
// Core attributes are mirrored into ce_-prefixed metadata so transports and
// middleware can inspect them without parsing the payload.
func (c *Codec) EncodeEvent(ctx context.Context, evt ce.Event) (*message.Message, error) {
	if err := evt.Validate(); err != nil {
		return nil, err
	}

	payload, err := jsoncodec.Marshal(evt)
	if err != nil {
		return nil, &ce.MalformedEnvelopeError{Cause: err}
	}

	msg := message.NewMessage(evt.ID, payload)

	msg.Metadata.Set(metadataKeySpecVersion, evt.SpecVersion)
	msg.Metadata.Set(metadataKeyType, evt.Type)
	msg.Metadata.Set(metadataKeySource, evt.Source)
	msg.Metadata.Set(metadataKeyID, evt.ID)
	if !evt.Time.IsZero() {
		msg.Metadata.Set(metadataKeyTime, evt.Time.Format(time.RFC3339Nano))
	}
	if evt.DataContentType != nil {
		msg.Metadata.Set(metadataKeyDataContentType, *evt.DataContentType)
	}
	if evt.Subject != nil {
		msg.Metadata.Set(metadataKeySubject, *evt.Subject)
	}
	if evt.DataSchema != nil {
		msg.Metadata.Set(metadataKeyDataSchema, *evt.DataSchema)
	}

	if c.nativeHeaders {
		for k, v := range metadatapkg.ToWatermill(metadatapkg.Metadata(evt.Extensions)) {
			msg.Metadata.Set(k, v)
		}
	}

	if ctx != nil {
		msg.SetContext(ctx)
	}

	return msg, nil
}

// Decode parses a transport message back into an envelope. A payload that
// cannot be parsed, or an envelope missing required attributes, yields a
// MalformedEnvelopeError so the caller can dead-letter the message.
func (c *Codec) Decode(msg *message.Message) (ce.Event, error) {
	var evt ce.Event
	if err := jsoncodec.Unmarshal(msg.Payload, &evt); err != nil {
		return ce.Event{}, &ce.MalformedEnvelopeError{Cause: err}
	}

	// Binary-mode transports may carry the id as a header rather than in the
	// body. The transport message UUID is not an attribute carrier, so an
	// envelope with neither fails validation below.
	if evt.ID == "" {
		if id := msg.Metadata.Get(metadataKeyID); id != "" {
			evt.ID = id
		}
	}

	if err := evt.Validate(); err != nil {
		return ce.Event{}, err
	}
	return evt, nil
}

// Route resolves a decoded envelope back to its registry entry. A well-formed
// envelope whose type attribute has no registration yields an
// UnroutableMessageError, distinguishable from decode failures.
func (c *Codec) Route(evt ce.Event) (registrypkg.Entry, error) {
	entry, ok := c.registry.ByEventType(evt.Type)
	if !ok {
		return registrypkg.Entry{}, &ce.UnroutableMessageError{EventType: evt.Type}
	}
	return entry, nil
}

// Destination returns the destination topic for an outgoing type name.
func (c *Codec) Destination(typeName string) string {
	return c.resolver.Destination(typeName)
}

// Extract reads trace context from the envelope's extensions into ctx.
func (c *Codec) Extract(ctx context.Context, evt ce.Event) context.Context {
	return c.propagator.Extract(ctx, evt.Extensions)
}

// DecodeData unmarshals the envelope's data attribute into v. The data has
// already been through a JSON round trip, so this re-marshals before decoding
// into the target type.
func DecodeData(evt ce.Event, v any) error {
	if evt.Data == nil {
		return errspkg.ErrPayloadRequired
	}

	if pm, ok := v.(proto.Message); ok {
		raw, err := jsoncodec.Marshal(evt.Data)
		if err != nil {
			return fmt.Errorf("failed to re-encode event data: %w", err)
		}
		return protojson.Unmarshal(raw, pm)
	}

	raw, err := jsoncodec.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("failed to re-encode event data: %w", err)
	}
	return jsoncodec.Unmarshal(raw, v)
}

// encodePayload prepares the data attribute. Proto messages go through
// protojson so their canonical JSON form lands on the wire; everything else is
// carried as-is and serialized with the envelope.
func encodePayload(payload any) (any, error) {
	if pm, ok := payload.(proto.Message); ok {
		raw, err := protoJSONMarshalOptions.Marshal(pm)
		if err != nil {
			return nil, err
		}
		var decoded any
		if err := jsoncodec.Unmarshal(raw, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	}
	return payload, nil
}

func applyPublishOptions(evt *ce.Event, opts []PublishOption) publishOptions {
	var po publishOptions
	for _, opt := range opts {
		opt(&po)
	}

	if po.eventID != "" {
		evt.ID = po.eventID
	}
	if po.subject != nil {
		evt.Subject = po.subject
	}
	if po.dataContentType != nil {
		evt.DataContentType = po.dataContentType
	}
	if po.dataSchema != nil {
		evt.DataSchema = po.dataSchema
	}
	if po.correlationID != "" {
		ce.SetCorrelationID(evt, po.correlationID)
	}
	for k, v := range po.extensions {
		*evt = evt.WithExtension(k, v)
	}
	return po
}

// Metadata keys mirroring core CloudEvents attributes on transport messages.
const (
	metadataKeySpecVersion     = "ce_specversion"
	metadataKeyType            = "ce_type"
	metadataKeySource          = "ce_source"
	metadataKeyID              = "ce_id"
	metadataKeyTime            = "ce_time"
	metadataKeyDataContentType = "ce_datacontenttype"
	metadataKeySubject         = "ce_subject"
	metadataKeyDataSchema      = "ce_dataschema"
)
