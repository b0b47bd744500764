package runtime

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	ce "github.com/evbridge/evbridge/internal/runtime/cloudevents"
	errspkg "github.com/evbridge/evbridge/internal/runtime/errors"
	metadatapkg "github.com/evbridge/evbridge/internal/runtime/metadata"
)

// EventHandler is the callback signature for CloudEvents consumers. Return
// nil to acknowledge the message; any error triggers the retry middleware,
// except malformed-envelope and unroutable-message errors, which are routed
// to the dead-letter queue.
type EventHandler func(ctx context.Context, evt ce.Event) error

// ConsumeEvents registers a handler for the topic registered under typeName.
// Incoming messages are decoded and validated before the handler runs:
//   - a payload that fails to parse, or an envelope missing required
//     attributes, is dead-lettered as malformed;
//   - a well-formed envelope whose type attribute has no registration is
//     dead-lettered as unroutable;
//   - a registered type other than typeName on the same topic is skipped.
func (s *Service) ConsumeEvents(typeName string, handler EventHandler) error {
	if s == nil {
		return errspkg.ErrServiceRequired
	}
	if handler == nil {
		return errspkg.ErrHandlerRequired
	}
	if typeName == "" {
		return errspkg.ErrTypeNameRequired
	}

	topic := s.registry.Topic(typeName)
	if err := s.EnsureSubscription(context.Background(), topic); err != nil {
		return fmt.Errorf("failed to provision subscription for %q: %w", topic, err)
	}

	handlerName := fmt.Sprintf("cloudevents-%s", typeName)

	s.router.AddNoPublisherHandler(
		handlerName,
		topic,
		s.subscriber,
		s.wrapEventHandler(typeName, handler),
	)

	s.handlersMu.Lock()
	s.handlers = append(s.handlers, HandlerInfo{
		Name:     handlerName,
		TypeName: typeName,
		Topic:    topic,
	})
	s.handlersMu.Unlock()

	return nil
}

// wrapEventHandler adapts an EventHandler to the Watermill handler contract,
// applying the decode and routing pipeline on the way in.
func (s *Service) wrapEventHandler(typeName string, handler EventHandler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ctx := msg.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		evt, err := s.codec.Decode(msg)
		if err != nil {
			s.Logger.Error("Failed to decode envelope", err, messageFields(msg))
			return err
		}

		entry, err := s.codec.Route(evt)
		if err != nil {
			s.Logger.Error("No registration for event type", err, map[string]any{
				"event_id":   evt.ID,
				"event_type": evt.Type,
			})
			return err
		}
		if entry.TypeName != typeName {
			// Another registered type sharing the topic. Not ours; ack it.
			s.Logger.Debug("Skipping event for other type", map[string]any{
				"event_id":   evt.ID,
				"event_type": evt.Type,
				"handled_by": entry.TypeName,
			})
			return nil
		}

		ctx = s.codec.Extract(ctx, evt)
		ctx = metadatapkg.NewContext(ctx, metadatapkg.FromWatermill(msg.Metadata))
		return handler(ctx, evt)
	}
}

func messageFields(msg *message.Message) map[string]any {
	return map[string]any{
		"message_uuid": msg.UUID,
		"metadata":     msg.Metadata,
	}
}

// TypedEventHandler receives the envelope plus its data attribute decoded
// into T.
type TypedEventHandler[T any] func(ctx context.Context, evt ce.Event, payload T) error

// ConsumeTyped registers a handler that receives the event data decoded into
// T. Data that does not decode into T is dead-lettered as malformed.
func ConsumeTyped[T any](s *Service, typeName string, handler TypedEventHandler[T]) error {
	if handler == nil {
		return errspkg.ErrHandlerRequired
	}

	return s.ConsumeEvents(typeName, func(ctx context.Context, evt ce.Event) error {
		var payload T
		if err := DecodeData(evt, &payload); err != nil {
			return &ce.MalformedEnvelopeError{Attribute: "data", Cause: err}
		}
		return handler(ctx, evt, payload)
	})
}
