// Package transports imports all built-in transports for auto-registration.
// Import this package to have all transports registered with the default registry.
package transports

import (
	// Import all transports for side-effect registration
	_ "github.com/evbridge/evbridge/transport/channel"
	_ "github.com/evbridge/evbridge/transport/http"
	_ "github.com/evbridge/evbridge/transport/jetstream"
	_ "github.com/evbridge/evbridge/transport/kafka"
	_ "github.com/evbridge/evbridge/transport/nats"
	_ "github.com/evbridge/evbridge/transport/rabbitmq"
)
