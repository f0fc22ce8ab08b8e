// Package config provides configuration management for the discovery server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tributary-ai-services/opcua-discovery/internal/discovery"
)

// Default configuration constants
const (
	// DefaultHTTPPort is the default admin HTTP/JSON port
	DefaultHTTPPort = 8080
	// DefaultGRPCPort is the default gRPC health port
	DefaultGRPCPort = 50051
	// DefaultHealthCheckPort is the default health check port
	DefaultHealthCheckPort = 8082
	// DefaultCleanupTimeout is the default registry entry expiry
	DefaultCleanupTimeout = 60 * time.Minute
	// DefaultSweepInterval is the default janitor tick
	DefaultSweepInterval = 30 * time.Second
	// DefaultRegisterInterval is the default periodic self-registration interval
	DefaultRegisterInterval = 10 * time.Minute
	// DefaultRegisterDelay is the default delay before the first self-registration attempt
	DefaultRegisterDelay = 500 * time.Millisecond
	// DefaultMdnsServiceType is the default mDNS service type announced/queried
	DefaultMdnsServiceType = "_opcua-tcp._tcp.local"
	// DefaultFilePermissions is the default file permissions for config files
	DefaultFilePermissions = 0600
)

// Config holds all configuration for the discovery server
type Config struct {
	HTTPPort        int
	GRPCPort        int
	HealthCheckPort int
	LogLevel        string
	Version         string

	Self          discovery.ApplicationDescription
	NetworkLayers []discovery.NetworkLayer
	Endpoints     []discovery.EndpointDescription

	CleanupTimeout time.Duration
	SweepInterval  time.Duration

	Capabilities      discovery.Capabilities
	MdnsService       string
	SemaphoreFilePath string

	Registration *RegistrationConfig `json:"registration,omitempty"`
	Consul       *ConsulConfig       `json:"consul,omitempty"`
}

// RegistrationConfig holds periodic self-registration-with-LDS settings (C7/C8)
type RegistrationConfig struct {
	Enabled     bool          `json:"enabled"`
	EndpointURL string        `json:"endpoint_url"`
	Interval    time.Duration `json:"interval"`
	DelayFirst  time.Duration `json:"delay_first"`
}

// ConsulConfig holds optional peer-LDS bootstrap settings (C12)
type ConsulConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	Service string `json:"service"`
	Tag     string `json:"tag"`
}

// Load reads configuration from environment variables with defaults
func Load() *Config {
	cfg := &Config{
		HTTPPort:        getEnvAsInt("HTTP_PORT", DefaultHTTPPort),
		GRPCPort:        getEnvAsInt("GRPC_PORT", DefaultGRPCPort),
		HealthCheckPort: getEnvAsInt("HEALTH_CHECK_PORT", DefaultHealthCheckPort),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Version:         getEnv("VERSION", "dev"),

		Self: discovery.ApplicationDescription{
			ApplicationURI: getEnv("SELF_APPLICATION_URI", "urn:opcua-discovery:server"),
			ProductURI:     getEnv("SELF_PRODUCT_URI", "urn:opcua-discovery:product"),
			ApplicationName: discovery.LocalizedText{
				Locale: "en",
				Text:   getEnv("SELF_APPLICATION_NAME", "OPC-UA Discovery Server"),
			},
			ApplicationType:     discovery.AppTypeDiscoveryServer,
			DiscoveryProfileURI: getEnv("SELF_DISCOVERY_PROFILE_URI", ""),
		},
		NetworkLayers:  loadNetworkLayersFromEnv(),
		Endpoints:      loadEndpointsFromEnv(),
		CleanupTimeout: getEnvAsDuration("DISCOVERY_CLEANUP_TIMEOUT", DefaultCleanupTimeout),
		SweepInterval:  getEnvAsDuration("DISCOVERY_SWEEP_INTERVAL", DefaultSweepInterval),

		Capabilities: discovery.Capabilities{
			SemaphoreEnabled:       getEnvAsBool("DISCOVERY_SEMAPHORE_ENABLED", false),
			MulticastEnabled:       getEnvAsBool("DISCOVERY_MULTICAST_ENABLED", true),
			ConsulBootstrapEnabled: getEnvAsBool("DISCOVERY_CONSUL_ENABLED", false),
		},
		MdnsService:       getEnv("DISCOVERY_MDNS_SERVICE_TYPE", DefaultMdnsServiceType),
		SemaphoreFilePath: getEnv("DISCOVERY_SEMAPHORE_FILE_PATH", ""),
	}

	if getEnvAsBool("DISCOVERY_REGISTRATION_ENABLED", false) {
		cfg.Registration = &RegistrationConfig{
			Enabled:     true,
			EndpointURL: getEnv("DISCOVERY_REGISTRATION_ENDPOINT", ""),
			Interval:    getEnvAsDuration("DISCOVERY_REGISTRATION_INTERVAL", DefaultRegisterInterval),
			DelayFirst:  getEnvAsDuration("DISCOVERY_REGISTRATION_DELAY", DefaultRegisterDelay),
		}
	}

	if cfg.Capabilities.ConsulBootstrapEnabled {
		cfg.Consul = &ConsulConfig{
			Enabled: true,
			Address: getEnv("CONSUL_ADDRESS", "127.0.0.1:8500"),
			Service: getEnv("CONSUL_LDS_SERVICE", "opcua-lds"),
			Tag:     getEnv("CONSUL_LDS_TAG", ""),
		}
	}

	return cfg
}

// loadNetworkLayersFromEnv loads the comma-separated DISCOVERY_URLS as this
// server's own network layer discovery URLs (SPEC_FULL §4.2 self-composition).
func loadNetworkLayersFromEnv() []discovery.NetworkLayer {
	urls := getEnvAsSlice("DISCOVERY_URLS", []string{})
	layers := make([]discovery.NetworkLayer, 0, len(urls))
	for _, u := range urls {
		layers = append(layers, discovery.NetworkLayer{DiscoveryURL: u})
	}
	return layers
}

// loadEndpointsFromEnv populates the endpoints GetEndpoints (C5) serves.
// DISCOVERY_ENDPOINTS_JSON, when set, is a JSON array of
// discovery.EndpointDescription and takes full control of SecurityPolicyURI
// etc. per endpoint. Otherwise DISCOVERY_ENDPOINT_URLS (comma-separated) is
// read and each URL becomes an endpoint using the uniform security settings
// from DISCOVERY_ENDPOINT_SECURITY_POLICY_URI/_SECURITY_MODE/
// _TRANSPORT_PROFILE_URI -- the common case of one security configuration
// shared across every listener.
func loadEndpointsFromEnv() []discovery.EndpointDescription {
	if raw := os.Getenv("DISCOVERY_ENDPOINTS_JSON"); raw != "" {
		var endpoints []discovery.EndpointDescription
		if err := json.Unmarshal([]byte(raw), &endpoints); err == nil {
			return endpoints
		}
	}

	urls := getEnvAsSlice("DISCOVERY_ENDPOINT_URLS", nil)
	if len(urls) == 0 {
		return nil
	}

	policyURI := getEnv("DISCOVERY_ENDPOINT_SECURITY_POLICY_URI", "http://opcfoundation.org/UA/SecurityPolicy#None")
	securityMode := getEnv("DISCOVERY_ENDPOINT_SECURITY_MODE", "None")
	transportProfile := getEnv("DISCOVERY_ENDPOINT_TRANSPORT_PROFILE_URI", "http://opcfoundation.org/UA-Profile/Transport/uatcp-uasc-uabinary")

	endpoints := make([]discovery.EndpointDescription, 0, len(urls))
	for _, u := range urls {
		endpoints = append(endpoints, discovery.EndpointDescription{
			EndpointURL:         u,
			SecurityPolicyURI:   policyURI,
			SecurityMode:        securityMode,
			TransportProfileURI: transportProfile,
		})
	}
	return endpoints
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filePath string) (*Config, error) {
	// #nosec G304 -- filePath is validated by caller
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(filePath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if httpPort := os.Getenv("HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			cfg.HTTPPort = port
		}
	}
	if grpcPort := os.Getenv("GRPC_PORT"); grpcPort != "" {
		if port, err := strconv.Atoi(grpcPort); err == nil {
			cfg.GRPCPort = port
		}
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

// DiscoveryConfig adapts the loaded Config into discovery.Config for
// discovery.NewServer.
func (c *Config) DiscoveryConfig() discovery.Config {
	return discovery.Config{
		Self:           c.Self,
		NetworkLayers:  c.NetworkLayers,
		Endpoints:      c.Endpoints,
		Capabilities:   c.Capabilities,
		CleanupTimeout: c.CleanupTimeout,
		SweepInterval:  c.SweepInterval,
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsSlice gets an environment variable as a string slice with a default value
func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}
