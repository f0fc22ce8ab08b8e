package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestClientGetEndpointsRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GetEndpointsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(GetEndpointsResponse{
			ServiceResult: Good,
			Endpoints:     []EndpointDescription{{EndpointURL: req.EndpointURL}},
		})
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop())
	resp, err := c.GetEndpoints(context.Background(), srv.URL, GetEndpointsRequest{EndpointURL: "pinned"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Endpoints) != 1 || resp.Endpoints[0].EndpointURL != "pinned" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestClientFindServersOnNetworkRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"servers": []ServerOnNetwork{{RecordedServerName: "peer.local"}},
		})
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop())
	servers, err := c.FindServersOnNetwork(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(servers) != 1 || servers[0].RecordedServerName != "peer.local" {
		t.Fatalf("unexpected response: %+v", servers)
	}
}

func TestClientBusyConnectionGuardAppliesToFindServersOnNetwork(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"servers": []ServerOnNetwork{}})
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.FindServersOnNetwork(context.Background(), srv.URL)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first call never reached the server")
	}

	_, err := c.FindServers(context.Background(), "http://a-different-endpoint", FindServersRequest{})
	if err == nil {
		t.Fatal("expected busy-connection error for a different endpoint while FindServersOnNetwork is in flight")
	}

	close(release)
	wg.Wait()
}

func TestClientBusyConnectionGuard(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		_ = json.NewEncoder(w).Encode(FindServersResponse{ServiceResult: Good})
	}))
	defer srv.Close()

	c := NewClient(zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.FindServers(context.Background(), srv.URL, FindServersRequest{})
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first call never reached the server")
	}

	_, err := c.FindServers(context.Background(), "http://a-different-endpoint", FindServersRequest{})
	if err == nil {
		t.Fatal("expected busy-connection error for a different endpoint")
	}

	close(release)
	wg.Wait()
}
