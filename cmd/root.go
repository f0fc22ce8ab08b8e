package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tributary-ai-services/opcua-discovery/internal/config"
	"github.com/tributary-ai-services/opcua-discovery/internal/discovery"
	grpcimpl "github.com/tributary-ai-services/opcua-discovery/internal/grpc"
	"github.com/tributary-ai-services/opcua-discovery/internal/httpapi"
	"github.com/tributary-ai-services/opcua-discovery/internal/logger"
)

const shutdownTimeout = 30 * time.Second

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opcua-discovery",
		Short: "Run the OPC-UA Local Discovery Server",
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newClientCommand())

	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the discovery server (HTTP admin surface + gRPC health)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg := config.Load()
	log := logger.WithCapabilities(logger.New(cfg.LogLevel), cfg.Capabilities)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mdnsUpdater discovery.MdnsUpdater = discovery.NoopMdnsUpdater{}
	if cfg.Capabilities.MulticastEnabled {
		bridge, err := discovery.NewMdnsBridge(ctx, cfg.MdnsService, log)
		if err != nil {
			log.Warn("failed to start mdns bridge, continuing without multicast announcements", zap.Error(err))
		} else {
			mdnsUpdater = bridge
			defer func() { _ = bridge.Close() }()
		}
	}

	server := discovery.NewServer(cfg.DiscoveryConfig(), mdnsUpdater, log)
	server.Start(ctx)
	defer server.Stop()

	if cfg.Capabilities.SemaphoreEnabled && cfg.SemaphoreFilePath != "" {
		watcher, err := discovery.NewSemaphoreWatcher(log, server.SweepNow)
		if err != nil {
			log.Warn("failed to start semaphore watcher", zap.Error(err))
		} else if err := watcher.Watch(cfg.SemaphoreFilePath); err != nil {
			log.Warn("failed to watch semaphore file", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	}

	// registrationTargets starts as the single explicitly configured LDS (if
	// any); Consul bootstrap (below) appends any peers it discovers, so the
	// fleet self-registers against every known LDS, not just the configured
	// one (SPEC_FULL §4.11).
	var registrationTargets []string
	if cfg.Registration != nil && cfg.Registration.Enabled {
		registrationTargets = append(registrationTargets, cfg.Registration.EndpointURL)
	}

	var fleetPeers []string
	if cfg.Consul != nil && cfg.Consul.Enabled {
		bootstrap, err := discovery.NewConsulBootstrap(cfg.Consul.Address, cfg.Consul.Service, cfg.Consul.Tag, log)
		if err != nil {
			log.Warn("failed to create consul bootstrap client", zap.Error(err))
		} else if peers, err := bootstrap.DiscoverPeerLDS(); err != nil {
			log.Warn("consul peer LDS discovery failed", zap.Error(err))
		} else {
			log.Info("discovered peer LDS instances via consul", zap.Strings("peers", peers))
			fleetPeers = peers
			registrationTargets = append(registrationTargets, peers...)
		}
	}

	if len(registrationTargets) > 0 {
		self := cfg.Self
		interval := DefaultRegistrationInterval(cfg)
		delayFirst := time.Duration(0)
		if cfg.Registration != nil {
			delayFirst = cfg.Registration.DelayFirst
		}

		// One Scheduler per target: each Scheduler, like the Client it
		// drives, represents a single ongoing registration job (C7/C8 share
		// the "one connection at a time" model), so registering against N
		// LDS instances means N independent schedulers.
		for _, target := range dedupeNonEmpty(registrationTargets) {
			target := target
			client := discovery.NewClient(log)
			sched := discovery.NewScheduler(func(ctx context.Context, url string) error {
				reg := discovery.RegisteredServer{
					ServerURI:     self.ApplicationURI,
					ProductURI:    self.ProductURI,
					ServerNames:   []discovery.LocalizedText{self.ApplicationName},
					ServerType:    discovery.AppTypeServer,
					DiscoveryURLs: networkLayerURLs(cfg.NetworkLayers),
					IsOnline:      true,
				}
				return client.RegisterOnline(ctx, url, reg)
			}, log)

			if _, status := sched.AddPeriodicServerRegisterJob(ctx, target, interval, delayFirst); status != discovery.Good {
				log.Error("failed to start periodic self-registration",
					zap.String("target", target), zap.String("status", string(status)))
			}
			defer sched.Cancel()
		}
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpapi.NewServer(server, discovery.NewClient(log), fleetPeers, log).Handler(),
	}

	healthSrv := grpcimpl.NewServer(log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("http admin server listening", zap.Int("port", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", zap.Error(err))
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
		if err != nil {
			log.Fatal("failed to listen for gRPC health server", zap.Error(err))
		}
		healthSrv.SetServing("", true)
		if err := healthSrv.Serve(lis); err != nil {
			log.Error("grpc health server failed", zap.Error(err))
		}
	}()

	<-stop
	log.Info("shutting down discovery server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	healthSrv.GracefulStop()

	return nil
}

func networkLayerURLs(layers []discovery.NetworkLayer) []string {
	urls := make([]string, 0, len(layers))
	for _, l := range layers {
		urls = append(urls, l.DiscoveryURL)
	}
	return urls
}

// DefaultRegistrationInterval returns the configured registration interval,
// falling back to config.DefaultRegisterInterval for targets discovered via
// Consul that have no explicit Registration block of their own.
func DefaultRegistrationInterval(cfg *config.Config) time.Duration {
	if cfg.Registration != nil && cfg.Registration.Interval > 0 {
		return cfg.Registration.Interval
	}
	return config.DefaultRegisterInterval
}

// dedupeNonEmpty drops empty strings and repeats, preserving first-seen
// order, so a Consul peer list that happens to echo the primary endpoint
// doesn't start a second scheduler against the same target.
func dedupeNonEmpty(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
