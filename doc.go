// Package evbridge is a transport-agnostic CloudEvents layer on top of
// Watermill. It encodes application payloads into CloudEvents v1.0 JSON
// envelopes, resolves destination topics from a type registry, propagates
// W3C trace context through envelope extensions, and routes undecodable or
// unroutable messages to a dead-letter queue.
//
// The library separates identity from routing: SenderAddress overrides the
// source attribute stamped into outgoing envelopes but never changes the
// destination topic, so two services can share routing configuration while
// reporting distinct identities.
//
// # Transports
//
// Evbridge reads the target transport from Config.PubSubSystem and builds it
// from the transport registry:
//   - channel: In-memory Go channels for testing
//   - kafka: High-throughput streaming with consumer groups
//   - rabbitmq: AMQP-based durable queues
//   - nats: High-performance messaging
//   - nats-jetstream: NATS streams with durable consumers and provisioning
//   - http: Request/response messaging
//
// Transports register themselves on import:
//
//	import _ "github.com/evbridge/evbridge/transport/transports"
//
// Transports that implement transport.Provisioner (channel, nats-jetstream)
// create topics and subscriptions on demand; for the rest EnsureTopic and
// EnsureSubscription are no-ops.
//
// # Usage
//
// A minimal setup fills Config, creates a Service, registers event types and
// handlers, and calls Start:
//
//	svc := evbridge.NewService(&evbridge.Config{
//		PubSubSystem:        "channel",
//		Source:              "svc-orders",
//		UseTypeNameForTopic: true,
//	}, logger, ctx, evbridge.ServiceDependencies{})
//
//	svc.RegisterType("OrderPlaced",
//		evbridge.WithEventType("com.example.order.placed"),
//		evbridge.WithTopic("orders"))
//
//	svc.ConsumeEvents("OrderPlaced", handleOrderPlaced)
//	go svc.Start(ctx)
//	svc.Publish(ctx, "OrderPlaced", order)
//
// # Middleware
//
// The default middleware chain includes correlation ID injection, structured
// logging, OpenTelemetry tracing, Prometheus metrics, retry with exponential
// backoff, dead-letter forwarding, and panic recovery. Custom middleware can
// be added via ServiceDependencies.Middlewares.
package evbridge
