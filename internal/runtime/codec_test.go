package runtime

import (
	"context"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/types/known/structpb"

	addressingpkg "github.com/evbridge/evbridge/internal/runtime/addressing"
	ce "github.com/evbridge/evbridge/internal/runtime/cloudevents"
	"github.com/evbridge/evbridge/internal/runtime/jsoncodec"
	metadatapkg "github.com/evbridge/evbridge/internal/runtime/metadata"
)

type userLoggedIn struct {
	ID string `json:"id"`
}

type orderShipped struct {
	OrderID string `json:"order_id"`
}

func (o orderShipped) EventSubject() string { return o.OrderID }

func TestEncodeEndToEndScenario(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{
		TransportIdentity:   "svc-a",
		UseTypeNameForTopic: true,
	}, false)

	evt, msg, err := codec.Encode(context.Background(), "UserLoggedIn", userLoggedIn{ID: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if evt.Source != "svc-a" {
		t.Fatalf("unexpected source: %s", evt.Source)
	}
	if evt.Type != "io.cloudevents.demo.user.loggedIn" {
		t.Fatalf("unexpected type: %s", evt.Type)
	}
	if evt.ID == "" || evt.Time.IsZero() {
		t.Fatal("expected id and time to be populated")
	}
	if !strings.Contains(string(msg.Payload), "abc123") {
		t.Fatalf("payload does not contain the domain data: %s", msg.Payload)
	}
	if got := codec.Destination("UserLoggedIn"); got != "io.cloudevents.demo.user.loggedIn" {
		t.Fatalf("unexpected destination: %s", got)
	}
}

func TestEncodeSenderOverrideAffectsIdentityOnly(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{
		SenderAddress:       "X",
		TransportIdentity:   "svc-a",
		UseTypeNameForTopic: true,
	}, false)

	evt, _, err := codec.Encode(context.Background(), "UserLoggedIn", userLoggedIn{ID: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if evt.Source != "X" {
		t.Fatalf("expected override source, got %s", evt.Source)
	}
	if got := codec.Destination("UserLoggedIn"); got != "io.cloudevents.demo.user.loggedIn" {
		t.Fatalf("override leaked into routing, destination: %s", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{TransportIdentity: "svc-a"}, false)

	_, msg, err := codec.Encode(context.Background(), "UserLoggedIn", userLoggedIn{ID: "abc123"})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	decoded, err := codec.Decode(msg)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.Type != "io.cloudevents.demo.user.loggedIn" {
		t.Fatalf("unexpected type after round trip: %s", decoded.Type)
	}

	var payload userLoggedIn
	if err := DecodeData(decoded, &payload); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if payload.ID != "abc123" {
		t.Fatalf("payload not preserved, got %+v", payload)
	}
}

func TestEncodeDerivesSubjectFromPayload(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{TransportIdentity: "svc-a"}, false)

	evt, _, err := codec.Encode(context.Background(), "OrderShipped", orderShipped{OrderID: "order-7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Subject == nil || *evt.Subject != "order-7" {
		t.Fatalf("expected subject from payload, got %v", evt.Subject)
	}
}

func TestEncodeAppliesPublishOptions(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{TransportIdentity: "svc-a"}, false)

	evt, _, err := codec.Encode(context.Background(), "UserLoggedIn", userLoggedIn{ID: "abc123"},
		WithEventID("fixed-id"),
		WithSubject("user-abc123"),
		WithDataSchema("https://example.com/schemas/user"),
		WithExtension("tenant", "acme"),
		WithCorrelationID("corr-1"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if evt.ID != "fixed-id" {
		t.Fatalf("unexpected id: %s", evt.ID)
	}
	if evt.Subject == nil || *evt.Subject != "user-abc123" {
		t.Fatalf("unexpected subject: %v", evt.Subject)
	}
	if evt.DataSchema == nil || *evt.DataSchema != "https://example.com/schemas/user" {
		t.Fatalf("unexpected dataschema: %v", evt.DataSchema)
	}
	if v, _ := evt.Extension("tenant"); v != "acme" {
		t.Fatalf("unexpected tenant extension: %s", v)
	}
	if ce.CorrelationID(evt) != "corr-1" {
		t.Fatalf("unexpected correlation id: %s", ce.CorrelationID(evt))
	}
}

func TestEncodeAppliesTransportMetadata(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{TransportIdentity: "svc-a"}, false)

	evt, msg, err := codec.Encode(context.Background(), "UserLoggedIn", userLoggedIn{ID: "abc123"},
		WithTransportMetadata(metadatapkg.New("x-tenant", "acme")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Metadata.Get("x-tenant") != "acme" {
		t.Fatal("expected transport header on the outgoing message")
	}
	if _, ok := evt.Extension("x-tenant"); ok {
		t.Fatal("transport headers must not leak into envelope extensions")
	}
}

func TestEncodeProtoPayload(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{TransportIdentity: "svc-a"}, false)

	payload, err := structpb.NewStruct(map[string]any{"id": "abc123"})
	if err != nil {
		t.Fatalf("failed to build struct: %v", err)
	}

	_, msg, err := codec.Encode(context.Background(), "UserLoggedIn", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(msg.Payload), "abc123") {
		t.Fatalf("proto payload not serialized: %s", msg.Payload)
	}
}

func TestEncodeInjectsTraceContext(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{TransportIdentity: "svc-a"}, false)

	traceID, _ := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	spanID, _ := trace.SpanIDFromHex("b7ad6b7169203331")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	evt, _, err := codec.Encode(ctx, "UserLoggedIn", userLoggedIn{ID: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tp := ce.TraceParent(evt)
	if tp != "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01" {
		t.Fatalf("unexpected traceparent: %s", tp)
	}

	extracted := codec.Extract(context.Background(), evt)
	sc := trace.SpanContextFromContext(extracted)
	if !sc.IsValid() || sc.TraceID() != traceID {
		t.Fatal("trace context not extractable from envelope")
	}
}

func TestEncodeWithoutTraceContextOmitsTraceParent(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{TransportIdentity: "svc-a"}, false)

	evt, _, err := codec.Encode(context.Background(), "UserLoggedIn", userLoggedIn{ID: "abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp := ce.TraceParent(evt); tp != "" {
		t.Fatalf("expected no traceparent, got %s", tp)
	}
}

func TestEncodeNativeHeaderPropagation(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{TransportIdentity: "svc-a"}, true)

	_, msg, err := codec.Encode(context.Background(), "UserLoggedIn", userLoggedIn{ID: "abc123"},
		WithExtension("tenant", "acme"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Metadata.Get("tenant") != "acme" {
		t.Fatal("expected extension mirrored into transport metadata")
	}

	plain, _ := newTestCodec(t, addressingpkg.Config{TransportIdentity: "svc-a"}, false)
	_, msg, err = plain.Encode(context.Background(), "UserLoggedIn", userLoggedIn{ID: "abc123"},
		WithExtension("tenant", "acme"),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Metadata.Get("tenant") != "" {
		t.Fatal("extension mirrored although native propagation is disabled")
	}
	if msg.Metadata.Get("ce_type") == "" {
		t.Fatal("core attributes should always be mirrored")
	}
}

func TestDecodeMissingSourceIsMalformed(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{}, false)

	raw, err := jsoncodec.Marshal(map[string]any{
		"specversion": "1.0",
		"type":        "io.cloudevents.demo.user.loggedIn",
		"id":          "evt-1",
	})
	if err != nil {
		t.Fatalf("failed to build payload: %v", err)
	}

	_, err = codec.Decode(message.NewMessage("evt-1", raw))
	if !ce.IsMalformed(err) {
		t.Fatalf("expected malformed envelope error, got %v", err)
	}
	if ce.IsUnroutable(err) {
		t.Fatal("malformed must not match unroutable")
	}
}

func TestDecodeMissingIDIsMalformed(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{}, false)

	raw, err := jsoncodec.Marshal(map[string]any{
		"specversion": "1.0",
		"type":        "io.cloudevents.demo.user.loggedIn",
		"source":      "svc-a",
	})
	if err != nil {
		t.Fatalf("failed to build payload: %v", err)
	}

	// The transport message UUID must not stand in for the id attribute.
	_, err = codec.Decode(message.NewMessage("transport-uuid-1", raw))
	if !ce.IsMalformed(err) {
		t.Fatalf("expected malformed envelope error, got %v", err)
	}
}

func TestDecodeTakesIDFromTransportHeader(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{}, false)

	raw, err := jsoncodec.Marshal(map[string]any{
		"specversion": "1.0",
		"type":        "io.cloudevents.demo.user.loggedIn",
		"source":      "svc-a",
	})
	if err != nil {
		t.Fatalf("failed to build payload: %v", err)
	}

	msg := message.NewMessage("transport-uuid-1", raw)
	msg.Metadata.Set("ce_id", "evt-9")

	evt, err := codec.Decode(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.ID != "evt-9" {
		t.Fatalf("expected id from ce_id header, got %s", evt.ID)
	}
}

func TestDecodeUnparsablePayloadIsMalformed(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{}, false)

	_, err := codec.Decode(message.NewMessage("evt-1", []byte("not json")))
	if !ce.IsMalformed(err) {
		t.Fatalf("expected malformed envelope error, got %v", err)
	}
}

func TestDecodeToleratesUnknownExtensions(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{}, false)

	raw, err := jsoncodec.Marshal(map[string]any{
		"specversion": "1.0",
		"type":        "io.cloudevents.demo.user.loggedIn",
		"source":      "svc-a",
		"id":          "evt-1",
		"futureext":   "value",
	})
	if err != nil {
		t.Fatalf("failed to build payload: %v", err)
	}

	evt, err := codec.Decode(message.NewMessage("evt-1", raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := evt.Extension("futureext"); v != "value" {
		t.Fatalf("unknown extension lost: %s", v)
	}
}

func TestRouteUnregisteredTypeIsUnroutable(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{}, false)

	evt := ce.New("io.cloudevents.demo.unknown", "svc-a", nil)
	_, err := codec.Route(evt)
	if !ce.IsUnroutable(err) {
		t.Fatalf("expected unroutable error, got %v", err)
	}
	if ce.IsMalformed(err) {
		t.Fatal("unroutable must not match malformed")
	}
}

func TestRouteRegisteredType(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{}, false)

	evt := ce.New("io.cloudevents.demo.user.loggedIn", "svc-a", nil)
	entry, err := codec.Route(evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.TypeName != "UserLoggedIn" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestEncodeValidatesInput(t *testing.T) {
	codec, _ := newTestCodec(t, addressingpkg.Config{}, false)

	if _, _, err := codec.Encode(context.Background(), "", userLoggedIn{}); err == nil {
		t.Fatal("expected error for empty type name")
	}
	if _, _, err := codec.Encode(context.Background(), "UserLoggedIn", nil); err == nil {
		t.Fatal("expected error for nil payload")
	}
}
