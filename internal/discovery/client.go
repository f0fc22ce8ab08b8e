package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client is C8: the LDS client side of the discovery protocol. Grounded on
// original_source/ua_client_discovery.c's connect/send/disconnect/reset
// lifecycle and its "busy with a different endpoint" guard, and on
// internal/federation/service.go's HTTPClient for the concrete HTTP
// transport (this repo's stand-in for the OPC-UA binary transport, which
// §1 treats as external).
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.Mutex
	busyURL string // non-empty while a call is in flight
}

func NewClient(logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// acquire implements the busy-connection guard: a call to a different
// endpointURL while one is already in flight fails immediately with
// BadInvalidArgument (SPEC_FULL §4.7, §6).
func (c *Client) acquire(endpointURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busyURL != "" && c.busyURL != endpointURL {
		return fmt.Errorf("%s: busy with a call to %s", BadInvalidArgument, c.busyURL)
	}
	c.busyURL = endpointURL
	return nil
}

// release implements the "disconnect, reset" half of the lifecycle.
func (c *Client) release() {
	c.mu.Lock()
	c.busyURL = ""
	c.mu.Unlock()
}

// GetEndpoints performs a full connect->call->disconnect->reset cycle
// against a remote server's admin endpoint.
func (c *Client) GetEndpoints(ctx context.Context, endpointURL string, req GetEndpointsRequest) (GetEndpointsResponse, error) {
	if err := c.acquire(endpointURL); err != nil {
		return GetEndpointsResponse{}, err
	}
	defer c.release()

	var resp GetEndpointsResponse
	if err := c.postJSON(ctx, endpointURL+"/api/v1/discovery/get-endpoints", req, &resp); err != nil {
		return GetEndpointsResponse{}, err
	}
	return resp, nil
}

// FindServers performs the connect/call/disconnect/reset cycle for
// FindServers.
func (c *Client) FindServers(ctx context.Context, endpointURL string, req FindServersRequest) (FindServersResponse, error) {
	if err := c.acquire(endpointURL); err != nil {
		return FindServersResponse{}, err
	}
	defer c.release()

	var resp FindServersResponse
	if err := c.postJSON(ctx, endpointURL+"/api/v1/discovery/find-servers", req, &resp); err != nil {
		return FindServersResponse{}, err
	}
	return resp, nil
}

// FindServersOnNetwork performs the connect/call/disconnect/reset cycle for
// FindServersOnNetwork, grounded on original_source/ua_client_discovery.c's
// UA_Client_findServersOnNetwork (SPEC_FULL §4.7 lists it alongside
// GetEndpoints/FindServers as subject to the same busy-connection guard).
func (c *Client) FindServersOnNetwork(ctx context.Context, endpointURL string) ([]ServerOnNetwork, error) {
	if err := c.acquire(endpointURL); err != nil {
		return nil, err
	}
	defer c.release()

	var resp struct {
		Servers []ServerOnNetwork `json:"servers"`
	}
	if err := c.postJSON(ctx, endpointURL+"/api/v1/discovery/find-servers-on-network", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

// RegisterOnline performs one self-registration attempt against a remote
// LDS. This is the RegisterFunc the scheduler (C7) drives.
func (c *Client) RegisterOnline(ctx context.Context, endpointURL string, self RegisteredServer) error {
	if err := c.acquire(endpointURL); err != nil {
		return err
	}
	defer c.release()

	self.IsOnline = true
	req := RegisterServerRequest{Server: self}
	var resp RegisterServerResponse
	if err := c.postJSON(ctx, endpointURL+"/api/v1/discovery/register-server", req, &resp); err != nil {
		return err
	}
	if resp.ServiceResult != Good {
		return fmt.Errorf("register-server: %s", resp.ServiceResult)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call %s: %w", url, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: unexpected status %d", url, httpResp.StatusCode)
	}
	return json.NewDecoder(httpResp.Body).Decode(out)
}
