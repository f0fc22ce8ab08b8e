package discovery

import (
	"testing"

	"go.uber.org/zap"
)

// S3 -- Register then unregister.
func TestRegisterThenUnregister(t *testing.T) {
	s := newTestServer(t)

	reg := RegisteredServer{
		ServerURI:   "urn:b",
		ServerNames: []LocalizedText{{Locale: "en", Text: "B"}},
		DiscoveryURLs: []string{"u1"},
		IsOnline:    true,
	}

	resp := s.RegisterServer(RegisterServerRequest{Server: reg})
	if resp.ServiceResult != Good {
		t.Fatalf("expected Good, got %s", resp.ServiceResult)
	}
	if s.RegistrySize() != 1 {
		t.Fatalf("expected size 1, got %d", s.RegistrySize())
	}

	offline := reg
	offline.IsOnline = false
	resp = s.RegisterServer(RegisterServerRequest{Server: offline})
	if resp.ServiceResult != Good {
		t.Fatalf("expected Good on unregister, got %s", resp.ServiceResult)
	}
	if s.RegistrySize() != 0 {
		t.Fatalf("expected size 0, got %d", s.RegistrySize())
	}

	resp = s.RegisterServer(RegisterServerRequest{Server: offline})
	if resp.ServiceResult != BadNotFound {
		t.Fatalf("expected BadNotFound, got %s", resp.ServiceResult)
	}
}

// S4 -- Register missing pieces.
func TestRegisterMissingDiscoveryURLs(t *testing.T) {
	s := newTestServer(t)
	reg := RegisteredServer{ServerURI: "urn:b", ServerNames: []LocalizedText{{Locale: "en", Text: "B"}}, IsOnline: true}
	resp := s.RegisterServer(RegisterServerRequest{Server: reg})
	if resp.ServiceResult != BadDiscoveryUrlMissing {
		t.Fatalf("expected BadDiscoveryUrlMissing, got %s", resp.ServiceResult)
	}
}

func TestRegisterMissingServerName(t *testing.T) {
	s := newTestServer(t)
	reg := RegisteredServer{ServerURI: "urn:b", DiscoveryURLs: []string{"u1"}, IsOnline: true}
	resp := s.RegisterServer(RegisterServerRequest{Server: reg})
	if resp.ServiceResult != BadServerNameMissing {
		t.Fatalf("expected BadServerNameMissing, got %s", resp.ServiceResult)
	}
}

// Property 7 -- idempotent online register: callback fires only on insert, not on
// the following replace.
func TestRegisterCallbackFiresOnlyOnInsertAndRemove(t *testing.T) {
	s := newTestServer(t)
	var events []bool // true = register, false = unregister
	s.OnRegister(func(_ RegisteredServer, isRegister bool) {
		events = append(events, isRegister)
	})

	reg := RegisteredServer{ServerURI: "urn:b", ServerNames: []LocalizedText{{Locale: "en", Text: "B"}}, DiscoveryURLs: []string{"u1"}, IsOnline: true}

	s.RegisterServer(RegisterServerRequest{Server: reg}) // insert
	s.RegisterServer(RegisterServerRequest{Server: reg}) // replace, no callback

	if len(events) != 1 || events[0] != true {
		t.Fatalf("expected exactly one register callback, got %v", events)
	}
	if s.RegistrySize() != 1 {
		t.Fatalf("expected size 1 after idempotent re-register, got %d", s.RegistrySize())
	}

	offline := reg
	offline.IsOnline = false
	s.RegisterServer(RegisterServerRequest{Server: offline})

	if len(events) != 2 || events[1] != false {
		t.Fatalf("expected unregister callback to fire, got %v", events)
	}
}

// RegisterServer2's per-item result vector never accepts more than one
// MdnsDiscoveryConfiguration (SPEC_FULL Open Question 2).
func TestRegisterServer2OnlyFirstMdnsConfigAccepted(t *testing.T) {
	s := newTestServer(t)
	req := RegisterServerRequest{
		Server: RegisteredServer{ServerURI: "urn:b", DiscoveryURLs: []string{"u1"}, IsOnline: true},
		DiscoveryConfiguration: []MdnsDiscoveryConfiguration{
			{MdnsServerName: "first"},
			{MdnsServerName: "second"},
		},
	}
	resp := s.RegisterServer2(req)

	if resp.ServiceResult != Good {
		t.Fatalf("expected Good, got %s", resp.ServiceResult)
	}
	if len(resp.ConfigurationResults) != 2 {
		t.Fatalf("expected 2 per-item results, got %d", len(resp.ConfigurationResults))
	}
	if resp.ConfigurationResults[0] != Good {
		t.Fatalf("expected first item Good, got %s", resp.ConfigurationResults[0])
	}
	if resp.ConfigurationResults[1] != BadNotSupported {
		t.Fatalf("expected second item BadNotSupported even though well-formed, got %s", resp.ConfigurationResults[1])
	}
}

func TestRegisterSemaphoreMissingFailsRegistration(t *testing.T) {
	cfg := Config{
		Self:         ApplicationDescription{ApplicationURI: "urn:a"},
		Capabilities: Capabilities{SemaphoreEnabled: true},
	}
	s := NewServer(cfg, nil, zap.NewNop())

	reg := RegisteredServer{
		ServerURI:         "urn:b",
		ServerNames:       []LocalizedText{{Locale: "en", Text: "B"}},
		DiscoveryURLs:     []string{"u1"},
		SemaphoreFilePath: "/definitely/does/not/exist/semaphore",
		IsOnline:          true,
	}
	resp := s.RegisterServer(RegisterServerRequest{Server: reg})
	if resp.ServiceResult != BadSempahoreFileMissing {
		t.Fatalf("expected BadSempahoreFileMissing, got %s", resp.ServiceResult)
	}
}
