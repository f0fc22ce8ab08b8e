package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuafuller/beacon/querier"
	"github.com/joshuafuller/beacon/responder"
	"go.uber.org/zap"
)

// MdnsBridge wraps a real mDNS responder/querier (github.com/joshuafuller/beacon)
// to satisfy the C6 "mDNS update hook" and the C10/FindServersOnNetwork
// client path described in SPEC_FULL §4.9. This repo does not reimplement
// RFC 6762/6763 itself -- announce/withdraw and network queries are
// delegated entirely to beacon.
type MdnsBridge struct {
	resp   *responder.Responder
	logger *zap.Logger

	serviceType string // e.g. "_opcua-tcp._tcp.local"
}

func NewMdnsBridge(ctx context.Context, serviceType string, logger *zap.Logger) (*MdnsBridge, error) {
	resp, err := responder.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create mdns responder: %w", err)
	}
	return &MdnsBridge{resp: resp, logger: logger, serviceType: serviceType}, nil
}

// Update implements MdnsUpdater (server.go). The first discovery URL for a
// server creates its TXT-record announcement on an online transition; the
// last discovery URL withdraws it on an offline transition. Intermediate
// URLs just refresh the TXT payload.
func (b *MdnsBridge) Update(serverURI, mdnsServerName, discoveryURL string, isFirst, isLast, isOnline bool) error {
	switch {
	case isOnline && isFirst:
		svc := &responder.Service{
			InstanceName: mdnsServerName,
			ServiceType:  b.serviceType,
			Port:         0,
			TXT: map[string]string{
				"serverUri":    serverURI,
				"discoveryUrl": discoveryURL,
			},
		}
		return b.resp.Register(svc)
	case isOnline:
		return b.resp.UpdateService(mdnsServerName, map[string]string{
			"serverUri":    serverURI,
			"discoveryUrl": discoveryURL,
		})
	case !isOnline && isLast:
		return b.resp.Unregister(mdnsServerName)
	default:
		return nil
	}
}

func (b *MdnsBridge) Close() error { return b.resp.Close() }

// FindServersOnNetwork answers the client-side-only service noted in
// SPEC_FULL §6: it is served from the live mDNS view of the network segment,
// not from the RegisteredServer registry, by issuing a real mDNS PTR/TXT
// query via beacon's querier.
func FindServersOnNetwork(ctx context.Context, timeout time.Duration) ([]ServerOnNetwork, error) {
	q, err := querier.New()
	if err != nil {
		return nil, fmt.Errorf("create mdns querier: %w", err)
	}
	defer func() { _ = q.Close() }()

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := q.Query(queryCtx, "_opcua-tcp._tcp.local", querier.RecordTypePTR)
	if err != nil {
		return nil, fmt.Errorf("mdns query: %w", err)
	}

	var out []ServerOnNetwork
	for _, rec := range resp.Records {
		if target := rec.AsPTR(); target != "" {
			out = append(out, ServerOnNetwork{RecordedServerName: target})
		}
	}
	return out, nil
}

// ServerOnNetwork is the FindServersOnNetworkResponse element.
type ServerOnNetwork struct {
	RecordedServerName string
	DiscoveryURL        string
	ServerCapabilities  []string
}
