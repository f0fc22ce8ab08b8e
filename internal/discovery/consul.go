package discovery

import (
	"fmt"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// ConsulBootstrap is C12: an optional startup-time source of peer LDS
// endpoints, replacing the teacher's stubbed discoverConsul
// (internal/federation/discovery.go) with a working catalog read. It never
// touches the wire contract of FindServers/GetEndpoints/RegisterServer --
// it only saves operators from hand-configuring peer LDS addresses.
type ConsulBootstrap struct {
	client  *consulapi.Client
	tag     string
	service string
	logger  *zap.Logger
}

func NewConsulBootstrap(addr, service, tag string, logger *zap.Logger) (*ConsulBootstrap, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}
	return &ConsulBootstrap{client: client, service: service, tag: tag, logger: logger}, nil
}

// DiscoverPeerLDS queries Consul's catalog for healthy instances of the
// configured service/tag and returns their endpoint URLs.
func (c *ConsulBootstrap) DiscoverPeerLDS() ([]string, error) {
	entries, _, err := c.client.Health().Service(c.service, c.tag, true, nil)
	if err != nil {
		return nil, fmt.Errorf("consul health.service(%s, %s): %w", c.service, c.tag, err)
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		addr := e.Service.Address
		if addr == "" {
			addr = e.Node.Address
		}
		url := fmt.Sprintf("http://%s:%d", addr, e.Service.Port)
		urls = append(urls, url)
	}
	if c.logger != nil {
		c.logger.Info("consul bootstrap discovered peer LDS endpoints", zap.Int("count", len(urls)))
	}
	return urls, nil
}
