package discovery

import (
	"testing"

	"go.uber.org/zap"
)

// S5 -- GetEndpoints fan-out.
func TestGetEndpointsFanOutByNetworkLayer(t *testing.T) {
	cfg := Config{
		Self:          ApplicationDescription{ApplicationURI: "urn:a"},
		NetworkLayers: []NetworkLayer{{DiscoveryURL: "u1"}, {DiscoveryURL: "u2"}},
		Endpoints: []EndpointDescription{
			{TransportProfileURI: "P1"},
			{TransportProfileURI: "P2"},
		},
	}
	s := NewServer(cfg, nil, zap.NewNop())

	resp := s.GetEndpoints(GetEndpointsRequest{ProfileURIs: []string{"P2"}})

	if resp.ServiceResult != Good {
		t.Fatalf("expected Good, got %s", resp.ServiceResult)
	}
	if len(resp.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints (1 relevant x 2 network layers), got %d", len(resp.Endpoints))
	}
	if resp.Endpoints[0].EndpointURL != "u1" || resp.Endpoints[1].EndpointURL != "u2" {
		t.Fatalf("expected fan-out in network-layer order, got %+v", resp.Endpoints)
	}
}

func TestGetEndpointsPinnedURLClonesOnce(t *testing.T) {
	cfg := Config{
		NetworkLayers: []NetworkLayer{{DiscoveryURL: "u1"}, {DiscoveryURL: "u2"}},
		Endpoints:     []EndpointDescription{{TransportProfileURI: "P1"}},
	}
	s := NewServer(cfg, nil, zap.NewNop())

	resp := s.GetEndpoints(GetEndpointsRequest{EndpointURL: "pinned"})

	if len(resp.Endpoints) != 1 || resp.Endpoints[0].EndpointURL != "pinned" {
		t.Fatalf("expected single clone mirroring endpointUrl, got %+v", resp.Endpoints)
	}
}

func TestGetEndpointsNoneRelevantReturnsEmptySuccessfully(t *testing.T) {
	cfg := Config{Endpoints: []EndpointDescription{{TransportProfileURI: "P1"}}}
	s := NewServer(cfg, nil, zap.NewNop())

	resp := s.GetEndpoints(GetEndpointsRequest{ProfileURIs: []string{"unknown"}})

	if resp.ServiceResult != Good {
		t.Fatalf("expected Good, got %s", resp.ServiceResult)
	}
	if len(resp.Endpoints) != 0 {
		t.Fatalf("expected no endpoints, got %d", len(resp.Endpoints))
	}
}
