// Package testutil provides testing utilities and helpers for the discovery server.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tributary-ai-services/opcua-discovery/internal/config"
	"github.com/tributary-ai-services/opcua-discovery/internal/discovery"
)

// Test configuration constants
const (
	// TestTimeout is the default timeout for test operations
	TestTimeout = 5 * time.Second
	// TestHTTPPort is the default HTTP port for tests
	TestHTTPPort = 8080
	// TestGRPCPort is the default gRPC port for tests
	TestGRPCPort = 50051
	// TestHealthCheckPort is the default health check port for tests
	TestHealthCheckPort = 8082
	// WaitConditionTickInterval is the tick interval for waiting on conditions
	WaitConditionTickInterval = 10 * time.Millisecond
)

// CreateTestServerDescription creates an ApplicationDescription for use as
// "self" in discovery.Server tests.
func CreateTestServerDescription(applicationURI string) discovery.ApplicationDescription {
	return discovery.ApplicationDescription{
		ApplicationURI:  applicationURI,
		ProductURI:      applicationURI + ":product",
		ApplicationType: discovery.AppTypeDiscoveryServer,
		ApplicationName: discovery.LocalizedText{Locale: "en", Text: "Test Discovery Server"},
	}
}

// CreateTestRegisteredServer creates a minimally valid RegisteredServer for
// register/unregister test fixtures.
func CreateTestRegisteredServer(serverURI string, discoveryURLs ...string) discovery.RegisteredServer {
	return discovery.RegisteredServer{
		ServerURI:     serverURI,
		ProductURI:    serverURI + ":product",
		ServerNames:   []discovery.LocalizedText{{Locale: "en", Text: serverURI}},
		ServerType:    discovery.AppTypeServer,
		DiscoveryURLs: discoveryURLs,
		IsOnline:      true,
	}
}

// CreateTestConfig builds a discovery.Config suitable for NewServer in tests.
func CreateTestConfig(applicationURI string) discovery.Config {
	return discovery.Config{
		Self:           CreateTestServerDescription(applicationURI),
		CleanupTimeout: time.Hour,
		SweepInterval:  time.Minute,
	}
}

// CreateMockLDSServer creates an httptest server that serves every request
// with handler and is closed at test cleanup, for exercising
// internal/discovery.Client against a fake Local Discovery Server.
func CreateMockLDSServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	return server
}

// DecodeJSONBody is a small helper for mock handlers built with CreateMockLDSServer.
func DecodeJSONBody(t *testing.T, r *http.Request, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
}

// GetTestLogger returns a no-op zap logger for tests that don't need output.
func GetTestLogger() *zap.Logger {
	return zap.NewNop()
}

// GetTestLoggerWithOutput returns a zap development logger, which writes to
// stderr rather than to the test log.
func GetTestLoggerWithOutput(t *testing.T) *zap.Logger {
	t.Helper()
	core, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return core
}

// WaitForCondition polls condition until it returns true or timeout elapses,
// failing the test if the timeout is reached first.
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(WaitConditionTickInterval)
	}
	t.Fatalf("timed out waiting for condition: %s", message)
}

// CreateTestAppConfig builds a full config.Config for command-layer tests.
func CreateTestAppConfig() *config.Config {
	return &config.Config{
		HTTPPort:        TestHTTPPort,
		GRPCPort:        TestGRPCPort,
		HealthCheckPort: TestHealthCheckPort,
		LogLevel:        "debug",
		Version:         "test",
		Self:            CreateTestServerDescription("urn:test:discovery"),
		CleanupTimeout:  time.Hour,
		SweepInterval:   time.Minute,
		MdnsService:     "_opcua-tcp._tcp.local",
	}
}
