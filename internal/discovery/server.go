package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Capabilities toggles the optional features the original OPC-UA stack
// would gate behind build-time #ifdefs (discovery, semaphore, multicast,
// multithreading). Modeled as runtime booleans per SPEC_FULL §9's design
// note, so a single binary can run with any combination enabled.
type Capabilities struct {
	SemaphoreEnabled        bool
	MulticastEnabled        bool
	ConsulBootstrapEnabled  bool
}

// Server ties the registry (C2), composer (C3), services (C4-C6), janitor
// (C9) and mDNS bridge (C10) together into one running discovery server.
// Grounded on internal/federation/manager.go's Manager: a handful of shared
// collaborators behind one struct, constructed once and started/stopped as
// a unit.
type Server struct {
	self          ApplicationDescription
	networkLayers []NetworkLayer
	endpoints     []EndpointDescription

	registry *Registry
	caps     Capabilities
	mdns     MdnsUpdater

	cleanupTimeout time.Duration
	sweepInterval  time.Duration

	logger *zap.Logger

	onRegister RegisterCallback
	cancel     context.CancelFunc
}

// MdnsUpdater is the C6 "mDNS update hook" collaborator: called once per
// discovery URL on register/unregister when this server is itself a
// DiscoveryServer and multicast is enabled. Implemented by *MdnsBridge
// (internal/discovery/mdns.go), wrapping joshuafuller/beacon.
type MdnsUpdater interface {
	Update(serverURI, mdnsServerName, discoveryURL string, isFirst, isLast, isOnline bool) error
}

// NoopMdnsUpdater is used when multicast is disabled.
type NoopMdnsUpdater struct{}

func (NoopMdnsUpdater) Update(string, string, string, bool, bool, bool) error { return nil }

// Config bundles everything needed to construct a Server.
type Config struct {
	Self           ApplicationDescription
	NetworkLayers  []NetworkLayer
	Endpoints      []EndpointDescription
	Capabilities   Capabilities
	CleanupTimeout time.Duration // 0 disables timeout-based sweeping
	SweepInterval  time.Duration // how often the janitor (C9) runs; default 30s
}

func NewServer(cfg Config, mdns MdnsUpdater, logger *zap.Logger) *Server {
	if mdns == nil {
		mdns = NoopMdnsUpdater{}
	}
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = 30 * time.Second
	}
	return &Server{
		self:           cfg.Self,
		networkLayers:  cfg.NetworkLayers,
		endpoints:      cfg.Endpoints,
		registry:       NewRegistry(logger),
		caps:           cfg.Capabilities,
		mdns:           mdns,
		cleanupTimeout: cfg.CleanupTimeout,
		sweepInterval:  sweep,
		logger:         logger,
	}
}

// Start launches the janitor (C9) goroutine. It returns once the goroutine
// has been scheduled; stopping happens via Stop or context cancellation.
func (s *Server) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.janitorLoop(ctx)
}

// Stop cancels the janitor loop. Safe to call even if Start was never
// called.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// janitorLoop is C9: a ticker-driven sweep over the registry, grounded on
// internal/federation/discovery.go's startPeriodicDiscovery ticker idiom.
func (s *Server) janitorLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.registry.Sweep(time.Now(), s.cleanupTimeout, s.caps.SemaphoreEnabled, DefaultStatFunc)
		}
	}
}

// RegistrySize reports the current number of registered peers, mostly for
// admin/metrics surfaces.
func (s *Server) RegistrySize() int { return s.registry.Len() }

// SweepNow runs an out-of-band sweep immediately, used by SemaphoreWatcher
// to react to a semaphore file disappearing without waiting for the next
// ticker fire.
func (s *Server) SweepNow() {
	s.registry.Sweep(time.Now(), s.cleanupTimeout, s.caps.SemaphoreEnabled, DefaultStatFunc)
}
