package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPPort != DefaultHTTPPort {
		t.Errorf("HTTPPort = %d, want %d", cfg.HTTPPort, DefaultHTTPPort)
	}
	if cfg.GRPCPort != DefaultGRPCPort {
		t.Errorf("GRPCPort = %d, want %d", cfg.GRPCPort, DefaultGRPCPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.CleanupTimeout != DefaultCleanupTimeout {
		t.Errorf("CleanupTimeout = %v, want %v", cfg.CleanupTimeout, DefaultCleanupTimeout)
	}
	if cfg.Capabilities.MulticastEnabled != true {
		t.Errorf("MulticastEnabled default = %v, want true", cfg.Capabilities.MulticastEnabled)
	}
	if cfg.Capabilities.SemaphoreEnabled != false {
		t.Errorf("SemaphoreEnabled default = %v, want false", cfg.Capabilities.SemaphoreEnabled)
	}
	if cfg.Registration != nil {
		t.Errorf("Registration should be nil unless explicitly enabled, got %+v", cfg.Registration)
	}
}

func TestLoadCustomEnv(t *testing.T) {
	envVars := map[string]string{
		"HTTP_PORT":                       "9090",
		"LOG_LEVEL":                       "debug",
		"DISCOVERY_URLS":                  "opc.tcp://a:4840,opc.tcp://b:4840",
		"DISCOVERY_REGISTRATION_ENABLED":  "true",
		"DISCOVERY_REGISTRATION_ENDPOINT": "http://lds.local:8080",
		"DISCOVERY_REGISTRATION_INTERVAL": "1m",
	}
	for k, v := range envVars {
		os.Setenv(k, v)
	}
	defer func() {
		for k := range envVars {
			os.Unsetenv(k)
		}
	}()

	cfg := Load()

	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if len(cfg.NetworkLayers) != 2 {
		t.Fatalf("expected 2 network layers, got %d", len(cfg.NetworkLayers))
	}
	if cfg.NetworkLayers[0].DiscoveryURL != "opc.tcp://a:4840" {
		t.Errorf("unexpected first network layer: %+v", cfg.NetworkLayers[0])
	}
	if cfg.Registration == nil || !cfg.Registration.Enabled {
		t.Fatal("expected registration to be enabled")
	}
	if cfg.Registration.EndpointURL != "http://lds.local:8080" {
		t.Errorf("unexpected registration endpoint: %s", cfg.Registration.EndpointURL)
	}
	if cfg.Registration.Interval != time.Minute {
		t.Errorf("Registration.Interval = %v, want 1m", cfg.Registration.Interval)
	}
}

func TestLoadPopulatesEndpointsFromURLList(t *testing.T) {
	os.Setenv("DISCOVERY_ENDPOINT_URLS", "opc.tcp://a:4840,opc.tcp://b:4840")
	os.Setenv("DISCOVERY_ENDPOINT_SECURITY_MODE", "SignAndEncrypt")
	defer os.Unsetenv("DISCOVERY_ENDPOINT_URLS")
	defer os.Unsetenv("DISCOVERY_ENDPOINT_SECURITY_MODE")

	cfg := Load()

	if len(cfg.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d: %+v", len(cfg.Endpoints), cfg.Endpoints)
	}
	if cfg.Endpoints[0].EndpointURL != "opc.tcp://a:4840" {
		t.Errorf("unexpected first endpoint URL: %+v", cfg.Endpoints[0])
	}
	if cfg.Endpoints[0].SecurityMode != "SignAndEncrypt" {
		t.Errorf("expected security mode override, got %+v", cfg.Endpoints[0])
	}
}

func TestLoadPopulatesEndpointsFromJSON(t *testing.T) {
	os.Setenv("DISCOVERY_ENDPOINTS_JSON", `[{"EndpointURL":"opc.tcp://c:4840","SecurityPolicyURI":"custom"}]`)
	defer os.Unsetenv("DISCOVERY_ENDPOINTS_JSON")

	cfg := Load()

	if len(cfg.Endpoints) != 1 || cfg.Endpoints[0].EndpointURL != "opc.tcp://c:4840" {
		t.Fatalf("unexpected endpoints from JSON: %+v", cfg.Endpoints)
	}
	if cfg.Endpoints[0].SecurityPolicyURI != "custom" {
		t.Errorf("expected SecurityPolicyURI from JSON, got %+v", cfg.Endpoints[0])
	}
}

func TestLoadFromFileAndEnvOverride(t *testing.T) {
	configContent := `{
		"HTTPPort": 9000,
		"GRPCPort": 9001,
		"LogLevel": "warn"
	}`

	tmpFile, err := os.CreateTemp("", "config-*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	cfg, err := LoadFromFile(tmpFile.Name())
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.HTTPPort != 9000 {
		t.Errorf("HTTPPort = %d, want 9000", cfg.HTTPPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %s, want warn", cfg.LogLevel)
	}

	os.Setenv("LOG_LEVEL", "error")
	defer os.Unsetenv("LOG_LEVEL")

	cfg, err = LoadFromFile(tmpFile.Name())
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("expected env override to win, LogLevel = %s, want error", cfg.LogLevel)
	}
}

func TestLoadFromFileInvalidJSON(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config-*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(`{"HTTPPort": 9000,}`); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	_, err = LoadFromFile(tmpFile.Name())
	if err == nil {
		t.Error("LoadFromFile() should return error for invalid JSON")
	}
}

func TestSaveAndReloadFile(t *testing.T) {
	cfg := &Config{
		HTTPPort: 9000,
		GRPCPort: 9001,
		LogLevel: "debug",
	}

	tmpFile, err := os.CreateTemp("", "config-save-*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	if err := cfg.SaveToFile(tmpFile.Name()); err != nil {
		t.Errorf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(tmpFile.Name())
	if err != nil {
		t.Errorf("Failed to load saved file: %v", err)
	}
	if loaded.HTTPPort != cfg.HTTPPort {
		t.Errorf("Saved HTTPPort = %d, want %d", loaded.HTTPPort, cfg.HTTPPort)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue bool
		expected     bool
	}{
		{"true string", "TEST_BOOL", "true", false, true},
		{"false string", "TEST_BOOL", "false", true, false},
		{"1 string", "TEST_BOOL", "1", false, true},
		{"0 string", "TEST_BOOL", "0", true, false},
		{"yes string", "TEST_BOOL", "yes", false, true},
		{"no string", "TEST_BOOL", "no", true, false},
		{"on string", "TEST_BOOL", "on", false, true},
		{"off string", "TEST_BOOL", "off", true, false},
		{"invalid string", "TEST_BOOL", "invalid", false, false},
		{"unset variable", "UNSET_VAR", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
				defer os.Unsetenv(tt.key)
			}

			result := getEnvAsBool(tt.key, tt.defaultValue)
			if result != tt.expected {
				t.Errorf("getEnvAsBool(%s, %v) = %v, want %v", tt.key, tt.defaultValue, result, tt.expected)
			}
		})
	}
}

func TestDiscoveryConfigAdapter(t *testing.T) {
	cfg := Load()
	dc := cfg.DiscoveryConfig()
	if dc.Self.ApplicationURI != cfg.Self.ApplicationURI {
		t.Errorf("DiscoveryConfig().Self mismatch: %+v vs %+v", dc.Self, cfg.Self)
	}
	if dc.CleanupTimeout != cfg.CleanupTimeout {
		t.Errorf("DiscoveryConfig().CleanupTimeout mismatch: %v vs %v", dc.CleanupTimeout, cfg.CleanupTimeout)
	}
}
