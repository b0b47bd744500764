package runtime

import (
	"context"
	"fmt"

	ce "github.com/evbridge/evbridge/internal/runtime/cloudevents"
	errspkg "github.com/evbridge/evbridge/internal/runtime/errors"
)

// Publish encodes the payload as a CloudEvents envelope for typeName and
// publishes it to the resolved destination topic. The envelope's source
// attribute and the destination are resolved independently: a configured
// sender address changes the source only, never where the message goes.
func (s *Service) Publish(ctx context.Context, typeName string, payload any, opts ...PublishOption) error {
	if s == nil {
		return errspkg.ErrServiceRequired
	}
	if s.publisher == nil {
		return errspkg.ErrPublisherRequired
	}

	evt, msg, err := s.codec.Encode(ctx, typeName, payload, opts...)
	if err != nil {
		return err
	}

	destination := s.codec.Destination(typeName)
	if err := s.EnsureTopic(ctx, destination); err != nil {
		return fmt.Errorf("failed to provision topic %q: %w", destination, err)
	}

	s.Logger.Debug("Publishing event", loggingFields(evt, destination))
	return s.publisher.Publish(destination, msg)
}

// PublishEvent publishes a fully-formed envelope. The destination is the
// topic registered for the envelope's type attribute; unregistered types fall
// back to the type attribute itself as topic.
func (s *Service) PublishEvent(ctx context.Context, evt ce.Event) error {
	if s == nil {
		return errspkg.ErrServiceRequired
	}

	destination := evt.Type
	if entry, ok := s.registry.ByEventType(evt.Type); ok {
		destination = s.resolver.Destination(entry.TypeName)
	}
	return s.PublishEventTo(ctx, destination, evt)
}

// PublishEventTo publishes a fully-formed envelope to an explicit topic,
// bypassing destination resolution. Used for dead-lettering and replays.
func (s *Service) PublishEventTo(ctx context.Context, topic string, evt ce.Event) error {
	if s == nil {
		return errspkg.ErrServiceRequired
	}
	if s.publisher == nil {
		return errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return errspkg.ErrDestinationRequired
	}

	msg, err := s.codec.EncodeEvent(ctx, evt)
	if err != nil {
		return err
	}

	if err := s.EnsureTopic(ctx, topic); err != nil {
		return fmt.Errorf("failed to provision topic %q: %w", topic, err)
	}

	s.Logger.Debug("Publishing event", loggingFields(evt, topic))
	return s.publisher.Publish(topic, msg)
}

func loggingFields(evt ce.Event, topic string) map[string]any {
	return map[string]any{
		"event_id":   evt.ID,
		"event_type": evt.Type,
		"source":     evt.Source,
		"topic":      topic,
	}
}
