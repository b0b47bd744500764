// Package registry maps domain message type names to their destination topic
// and CloudEvents type attribute. The table is populated during startup and
// read concurrently by the resolver and codec afterwards.
package registry

import (
	"sync"

	ce "github.com/evbridge/evbridge/internal/runtime/cloudevents"
)

// Entry is one type registration: the canonical type name plus the resolved
// topic and CloudEvents type attribute. Unset fields fall back to TypeName.
type Entry struct {
	TypeName  string
	Topic     string
	EventType string
}

// TypeRegistry resolves type names to topics and CloudEvents type attributes.
// Registration is intended for single-threaded startup configuration; lookups
// are safe for concurrent use at any time.
type TypeRegistry struct {
	mu          sync.RWMutex
	entries     map[string]Entry
	byEventType map[string]string
	strict      bool
}

// Option configures a TypeRegistry at construction time.
type Option func(*TypeRegistry)

// Strict makes repeated registration of the same type name an error instead
// of last-write-wins.
func Strict() Option {
	return func(r *TypeRegistry) {
		r.strict = true
	}
}

// New constructs an empty registry. The default mode is permissive:
// re-registering a type overwrites the previous entry and unregistered
// lookups fall back to the type name itself.
func New(opts ...Option) *TypeRegistry {
	r := &TypeRegistry{
		entries:     make(map[string]Entry),
		byEventType: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterOption customises a single registration.
type RegisterOption func(*Entry)

// WithTopic overrides the destination topic for the type.
func WithTopic(topic string) RegisterOption {
	return func(e *Entry) {
		e.Topic = topic
	}
}

// WithEventType overrides the CloudEvents type attribute for the type.
func WithEventType(eventType string) RegisterOption {
	return func(e *Entry) {
		e.EventType = eventType
	}
}

// Register adds or replaces the entry for typeName. In permissive mode the
// last registration wins; in strict mode a repeated type name returns a
// DuplicateRegistrationError and leaves the existing entry untouched.
func (r *TypeRegistry) Register(typeName string, opts ...RegisterOption) error {
	entry := Entry{TypeName: typeName}
	for _, opt := range opts {
		opt(&entry)
	}
	if entry.Topic == "" {
		entry.Topic = typeName
	}
	if entry.EventType == "" {
		entry.EventType = typeName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[typeName]; ok {
		if r.strict {
			return &ce.DuplicateRegistrationError{TypeName: typeName}
		}
		delete(r.byEventType, prev.EventType)
	}

	r.entries[typeName] = entry
	r.byEventType[entry.EventType] = typeName
	return nil
}

// Topic returns the destination topic for typeName. Unregistered types
// resolve to the type name itself.
func (r *TypeRegistry) Topic(typeName string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.entries[typeName]; ok {
		return entry.Topic
	}
	return typeName
}

// EventType returns the CloudEvents type attribute for typeName.
// Unregistered types resolve to the type name itself.
func (r *TypeRegistry) EventType(typeName string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.entries[typeName]; ok {
		return entry.EventType
	}
	return typeName
}

// Lookup returns the entry registered for typeName.
func (r *TypeRegistry) Lookup(typeName string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[typeName]
	return entry, ok
}

// ByEventType returns the entry whose CloudEvents type attribute matches
// eventType. Used on the consume path to route decoded envelopes back to a
// registered type.
func (r *TypeRegistry) ByEventType(eventType string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeName, ok := r.byEventType[eventType]
	if !ok {
		return Entry{}, false
	}
	return r.entries[typeName], true
}

// Names returns the registered type names.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// IsStrict reports whether the registry rejects duplicate registrations.
func (r *TypeRegistry) IsStrict() bool {
	return r.strict
}
