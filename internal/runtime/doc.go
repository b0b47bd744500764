// Package runtime contains the event service implementation: the envelope
// codec, publish and consume paths, and the router middleware chain. The
// public API surface is re-exported from the repository root package; import
// that instead of this one.
package runtime
