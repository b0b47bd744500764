// Package addressing decides, for every outgoing message type, which
// destination topic to publish to and which source attribute to stamp on the
// envelope. The two decisions are independent: a sender-address override
// changes how the service identifies itself, never where messages are routed.
package addressing

import (
	registrypkg "github.com/evbridge/evbridge/internal/runtime/registry"
)

// PlaceholderSource is used when nothing else can supply a source attribute.
// Resolution never fails; it degrades to this fixed identity.
const PlaceholderSource = "urn:evbridge:anonymous"

// Config is the connection-scoped addressing configuration. It is captured by
// value at resolver construction and immutable afterwards; changing the
// original struct has no effect on an existing resolver.
type Config struct {
	// SenderAddress overrides the source attribute on every outgoing
	// envelope. It never influences destination selection.
	SenderAddress string

	// TransportIdentity is the transport's own identity or queue address,
	// used as the source attribute when no SenderAddress is set.
	TransportIdentity string

	// UseTypeNameForTopic routes outgoing messages to the registry's topic
	// for their type instead of the transport default destination.
	UseTypeNameForTopic bool

	// DefaultDestination is the transport's pre-existing default queue or
	// topic, used when type-name routing is disabled.
	DefaultDestination string
}

// Address is a resolved (source attribute, destination topic) pair.
type Address struct {
	Source      string
	Destination string
}

// Resolver computes addresses from the type registry and an immutable config
// snapshot. Safe for concurrent use.
type Resolver struct {
	registry *registrypkg.TypeRegistry
	cfg      Config
}

// NewResolver builds a resolver over the given registry. cfg is copied.
func NewResolver(reg *registrypkg.TypeRegistry, cfg Config) *Resolver {
	return &Resolver{registry: reg, cfg: cfg}
}

// Config returns the resolver's configuration snapshot.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve computes the source attribute and destination topic for typeName.
//
// Source precedence, highest first: SenderAddress, TransportIdentity, the
// registry's CloudEvents type for typeName, PlaceholderSource.
//
// Destination: the registry topic when UseTypeNameForTopic is set, else the
// transport's DefaultDestination, else the registry topic as final fallback.
// SenderAddress is deliberately absent from this chain.
func (r *Resolver) Resolve(typeName string) Address {
	return Address{
		Source:      r.Source(typeName),
		Destination: r.Destination(typeName),
	}
}

// Source resolves only the source attribute for typeName.
func (r *Resolver) Source(typeName string) string {
	if r.cfg.SenderAddress != "" {
		return r.cfg.SenderAddress
	}
	if r.cfg.TransportIdentity != "" {
		return r.cfg.TransportIdentity
	}
	if typeName != "" {
		return r.registry.EventType(typeName)
	}
	return PlaceholderSource
}

// Destination resolves only the destination topic for typeName.
func (r *Resolver) Destination(typeName string) string {
	if r.cfg.UseTypeNameForTopic {
		return r.registry.Topic(typeName)
	}
	if r.cfg.DefaultDestination != "" {
		return r.cfg.DefaultDestination
	}
	return r.registry.Topic(typeName)
}
