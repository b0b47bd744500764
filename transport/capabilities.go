package transport

// Capabilities describes the features supported by a transport backend.
// Use this to introspect what operations are available at runtime.
type Capabilities struct {
	// SupportsProvisioning indicates the transport can create topics and
	// subscriptions on demand. When false, EnsureTopic and
	// EnsureSubscription are no-ops.
	SupportsProvisioning bool

	// SupportsOrdering indicates the transport guarantees message ordering.
	// When true, messages within a partition/stream are delivered in order.
	SupportsOrdering bool

	// SupportsNativeHeaders indicates the transport carries message metadata
	// in native headers, so extension attributes survive outside the payload.
	SupportsNativeHeaders bool

	// SupportsAck indicates the transport supports explicit message acknowledgment.
	SupportsAck bool

	// SupportsNack indicates the transport supports negative acknowledgment (redelivery).
	SupportsNack bool

	// SupportsPartitioning indicates the transport supports message partitioning.
	SupportsPartitioning bool

	// MaxMessageSize is the maximum message size in bytes (0 = unlimited/unknown).
	MaxMessageSize int64

	// Name is the human-readable name of the transport.
	Name string
}

// SupportsReliableDelivery returns true if the transport supports at-least-once
// delivery semantics (ack + nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// Predefined capability sets for common transports.
var (
	// ChannelCapabilities for in-memory Go channel transport.
	ChannelCapabilities = Capabilities{
		Name:                  "channel",
		SupportsProvisioning:  true,
		SupportsOrdering:      true,
		SupportsNativeHeaders: true,
		SupportsAck:           true,
		SupportsNack:          true,
	}

	// KafkaCapabilities for Apache Kafka transport.
	KafkaCapabilities = Capabilities{
		Name:                  "kafka",
		SupportsOrdering:      true,
		SupportsNativeHeaders: true,
		SupportsAck:           true,
		SupportsPartitioning:  true,
		MaxMessageSize:        1048576, // Default 1MB
	}

	// RabbitMQCapabilities for RabbitMQ/AMQP transport.
	RabbitMQCapabilities = Capabilities{
		Name:                  "rabbitmq",
		SupportsOrdering:      true,
		SupportsNativeHeaders: true,
		SupportsAck:           true,
		SupportsNack:          true,
	}

	// NATSCapabilities for NATS Core transport.
	NATSCapabilities = Capabilities{
		Name:                  "nats",
		SupportsNativeHeaders: true,
		MaxMessageSize:        1048576, // Default 1MB
	}

	// NATSJetStreamCapabilities for NATS JetStream transport.
	NATSJetStreamCapabilities = Capabilities{
		Name:                  "nats-jetstream",
		SupportsProvisioning:  true,
		SupportsOrdering:      true,
		SupportsNativeHeaders: true,
		SupportsAck:           true,
		SupportsNack:          true,
		MaxMessageSize:        1048576, // Default 1MB
	}

	// HTTPCapabilities for HTTP-based transport.
	HTTPCapabilities = Capabilities{
		Name:                  "http",
		SupportsNativeHeaders: true,
	}
)
