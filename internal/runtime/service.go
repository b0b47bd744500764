package runtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"

	addressingpkg "github.com/evbridge/evbridge/internal/runtime/addressing"
	configpkg "github.com/evbridge/evbridge/internal/runtime/config"
	errspkg "github.com/evbridge/evbridge/internal/runtime/errors"
	loggingpkg "github.com/evbridge/evbridge/internal/runtime/logging"
	registrypkg "github.com/evbridge/evbridge/internal/runtime/registry"
	transportpkg "github.com/evbridge/evbridge/transport"
)

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

// ServiceDependencies holds the optional collaborators that the Service can use.
// Leave fields nil to use the defaults.
type ServiceDependencies struct {
	// Middlewares are appended after the default middleware chain.
	Middlewares []MiddlewareRegistration

	// DisableDefaultMiddlewares skips registering the default middleware chain when true.
	DisableDefaultMiddlewares bool

	// TransportRegistry overrides the registry used to build the transport.
	TransportRegistry *transportpkg.Registry

	// Transport supplies a pre-built transport directly, bypassing the registry.
	Transport *transportpkg.Transport
}

// HandlerInfo describes one registered consumer.
type HandlerInfo struct {
	Name     string
	TypeName string
	Topic    string
}

// Service binds the type registry, address resolver, envelope codec, and a
// Watermill router over the configured transport. Construct it once at
// startup; the configuration is copied and later mutation of the original
// struct has no effect.
type Service struct {
	Conf   configpkg.Config
	Logger loggingpkg.ServiceLogger

	registry *registrypkg.TypeRegistry
	resolver *addressingpkg.Resolver
	codec    *Codec

	publisher   message.Publisher
	subscriber  message.Subscriber
	provisioner transportpkg.Provisioner
	router      *message.Router

	handlers   []HandlerInfo
	handlersMu sync.RWMutex

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex
	httpCtx       context.Context
	httpCancel    context.CancelFunc
}

// NewService constructs a Service for the supplied configuration, panicking on
// invalid config or transport failure. Register types and consumers on the
// returned Service before calling Start.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) *Service {
	s, err := TryNewService(conf, log, ctx, deps)
	if err != nil {
		panic(err)
	}
	return s
}

// TryNewService is NewService with an error return instead of a panic.
func TryNewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) (*Service, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	wmLogger := loggingpkg.NewWatermillAdapter(log)
	log.Info("Creating event service", loggingpkg.LogFields{
		"pubsub_system": conf.PubSubSystem,
		"config":        conf.String(),
	})

	var regOpts []registrypkg.Option
	if conf.StrictTypeRegistry {
		regOpts = append(regOpts, registrypkg.Strict())
	}
	typeRegistry := registrypkg.New(regOpts...)

	resolver := addressingpkg.NewResolver(typeRegistry, addressingpkg.Config{
		SenderAddress:       conf.SenderAddress,
		TransportIdentity:   conf.Source,
		UseTypeNameForTopic: conf.UseTypeNameForTopic,
		DefaultDestination:  conf.DefaultDestination,
	})

	s := &Service{
		Conf:     *conf,
		Logger:   log,
		registry: typeRegistry,
		resolver: resolver,
		codec:    NewCodec(typeRegistry, resolver, conf.NativeHeaderPropagation),
	}

	var trans transportpkg.Transport
	if deps.Transport != nil {
		trans = *deps.Transport
	} else {
		transportRegistry := deps.TransportRegistry
		if transportRegistry == nil {
			transportRegistry = transportpkg.DefaultRegistry
		}
		var err error
		trans, err = transportRegistry.Build(ctx, &s.Conf, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to build transport: %w", err)
		}
	}

	s.publisher = trans.Publisher
	s.subscriber = trans.Subscriber
	s.provisioner = detectProvisioner(trans)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}
	s.router = router
	s.router.AddPlugin(plugin.SignalsHandler)

	if err := s.registerConfiguredMiddlewares(deps); err != nil {
		return nil, err
	}

	return s, nil
}

// detectProvisioner finds a Provisioner implementation on either side of the
// transport. The publisher wins when both implement it.
func detectProvisioner(t transportpkg.Transport) transportpkg.Provisioner {
	if p, ok := t.Publisher.(transportpkg.Provisioner); ok {
		return p
	}
	if p, ok := t.Subscriber.(transportpkg.Provisioner); ok {
		return p
	}
	return nil
}

// RegisterType maps a domain type name to its destination topic and
// CloudEvents type attribute. With StrictTypeRegistry enabled, repeated
// registration of the same name fails; otherwise the last registration wins.
func (s *Service) RegisterType(typeName string, opts ...registrypkg.RegisterOption) error {
	if s == nil {
		return errspkg.ErrServiceRequired
	}
	if typeName == "" {
		return errspkg.ErrTypeNameRequired
	}
	return s.registry.Register(typeName, opts...)
}

// TypeRegistry exposes the service's type registry for lookups.
func (s *Service) TypeRegistry() *registrypkg.TypeRegistry {
	return s.registry
}

// ResolveAddress returns the source attribute and destination topic that
// Publish would use for typeName.
func (s *Service) ResolveAddress(typeName string) addressingpkg.Address {
	return s.resolver.Resolve(typeName)
}

// EnsureTopic asks the transport to create the topic if it supports
// provisioning. Transports without provisioning support succeed immediately.
func (s *Service) EnsureTopic(ctx context.Context, topic string) error {
	if topic == "" {
		return errspkg.ErrDestinationRequired
	}
	if s.provisioner == nil {
		return nil
	}
	return s.provisioner.EnsureTopic(ctx, topic)
}

// EnsureSubscription asks the transport to create the durable subscription
// for the topic if it supports provisioning.
func (s *Service) EnsureSubscription(ctx context.Context, topic string) error {
	if topic == "" {
		return errspkg.ErrDestinationRequired
	}
	if s.provisioner == nil {
		return nil
	}
	return s.provisioner.EnsureSubscription(ctx, topic)
}

// Start runs the underlying Watermill router until the provided context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.startHTTPServers()
	return routerRun(s.router, ctx)
}

// Running returns a channel that is closed when the router is running and
// all handlers are active. Useful in tests and readiness checks.
func (s *Service) Running() chan struct{} {
	return s.router.Running()
}

// Stop closes the router and shuts down auxiliary HTTP servers.
func (s *Service) Stop() {
	if s == nil {
		return
	}
	if s.httpCancel != nil {
		s.httpCancel()
	}
	if s.router != nil {
		if err := s.router.Close(); err != nil && s.Logger != nil {
			s.Logger.Error("Failed to close router", err, nil)
		}
	}
}

// Handlers returns a snapshot of the registered consumer handlers.
func (s *Service) Handlers() []HandlerInfo {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()

	out := make([]HandlerInfo, len(s.handlers))
	copy(out, s.handlers)
	return out
}

// GetTransportCapabilities returns the capabilities of the configured transport.
func (s *Service) GetTransportCapabilities() transportpkg.Capabilities {
	if s == nil {
		return transportpkg.Capabilities{}
	}
	return transportpkg.GetCapabilities(s.Conf.PubSubSystem)
}

// RegisterHTTPHandler mounts an HTTP handler on the service-managed server
// for the given port. Servers start when the service starts.
func (s *Service) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	if s.httpServers == nil {
		s.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := s.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		s.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (s *Service) startHTTPServers() {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	if len(s.httpServers) == 0 {
		return
	}
	if s.httpCtx == nil {
		s.httpCtx, s.httpCancel = context.WithCancel(context.Background())
	}

	for port, mux := range s.httpServers {
		addr := fmt.Sprintf(":%d", port)
		server := &http.Server{Addr: addr, Handler: mux}

		s.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": addr})
		go func(server *http.Server) {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": server.Addr})
			}
		}(server)
		go func(server *http.Server) {
			<-s.httpCtx.Done()
			_ = server.Shutdown(context.Background())
		}(server)
	}
}
