// Package transport defines the core interfaces and types for evbridge
// transports. Each transport implementation (kafka, rabbitmq, nats, etc.)
// lives in its own sub-package and registers itself with the transport
// registry.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a builder.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Builder is the function signature for creating a transport from config.
// Each transport package should provide a Builder function that can be registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the configuration values needed by transports.
// This interface allows transports to access only the config they need
// without depending on the full config package.
type Config interface {
	// GetPubSubSystem returns the transport type name.
	GetPubSubSystem() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string

	// RabbitMQ
	GetRabbitMQURL() string

	// NATS
	GetNATSURL() string

	// HTTP
	GetHTTPServerAddress() string
	GetHTTPPublisherURL() string
}

// Provisioner is implemented by transports that can create topics and
// subscriptions on the broker. Provisioning is idempotent: ensuring a
// resource that already exists succeeds without side effects.
type Provisioner interface {
	// EnsureTopic creates the topic if the broker requires pre-declared
	// topics and it does not exist yet.
	EnsureTopic(ctx context.Context, topic string) error

	// EnsureSubscription creates the durable subscription binding the
	// topic to this consumer, if the broker requires one.
	EnsureSubscription(ctx context.Context, topic string) error
}

// CapabilitiesProvider is implemented by transports that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
