package discovery

import (
	"time"

	"go.uber.org/zap"
)

// RegisterServer handles the RegisterServer wire call: no discovery
// configuration, so the per-item result vector is always empty.
func (s *Server) RegisterServer(req RegisterServerRequest) RegisterServerResponse {
	result, _, _ := s.register(req)
	return RegisterServerResponse{ServiceResult: result}
}

// RegisterServer2 handles RegisterServer2: same procedure, but returns the
// per-configuration-item status vector.
func (s *Server) RegisterServer2(req RegisterServerRequest) RegisterServer2Response {
	result, configResults, diagnostics := s.register(req)
	return RegisterServer2Response{
		ServiceResult:        result,
		ConfigurationResults: configResults,
		DiagnosticInfos:      diagnostics,
	}
}

// register is the shared procedure behind both services, grounded step for
// step on original_source/ua_services_discovery.c's process_RegisterServer.
// The step order is load-bearing (SPEC_FULL §4.5) and is preserved exactly.
func (s *Server) register(req RegisterServerRequest) (StatusCode, []StatusCode, []string) {
	rec := req.Server

	// 1. Locate any existing entry (no side effect yet).
	_, hadExisting := s.registry.Lookup(rec.ServerURI)

	// 2. Process discovery configuration (RegisterServer2 only). Only the
	// first MdnsDiscoveryConfiguration is adopted; every later one -- even a
	// second well-formed one -- is BadNotSupported (SPEC_FULL §9, Open
	// Question 2).
	var acceptedMdns *MdnsDiscoveryConfiguration
	configResults := make([]StatusCode, 0, len(req.DiscoveryConfiguration))
	var diagnostics []string
	for i := range req.DiscoveryConfiguration {
		cfg := req.DiscoveryConfiguration[i]
		if acceptedMdns == nil {
			acceptedMdns = &cfg
			configResults = append(configResults, Good)
		} else {
			configResults = append(configResults, BadNotSupported)
			diagnostics = append(diagnostics, "only the first MdnsDiscoveryConfiguration item is honoured")
		}
	}

	// 3. Determine mDNS server name.
	mdnsServerName := ""
	switch {
	case acceptedMdns != nil:
		mdnsServerName = acceptedMdns.MdnsServerName
	case len(rec.ServerNames) > 0:
		mdnsServerName = rec.ServerNames[0].Text
	default:
		return BadServerNameMissing, configResults, diagnostics
	}

	// 4. Validate discovery URLs.
	if len(rec.DiscoveryURLs) == 0 {
		return BadDiscoveryUrlMissing, configResults, diagnostics
	}

	// 5. Semaphore check.
	if s.caps.SemaphoreEnabled && rec.SemaphoreFilePath != "" {
		if err := DefaultStatFunc(rec.SemaphoreFilePath); err != nil {
			return BadSempahoreFileMissing, configResults, diagnostics
		}
	}

	// 6. mDNS update hook: fires once per discovery URL when this instance
	// is itself a DiscoveryServer and multicast is enabled. The first URL
	// creates the TXT record on online transitions; the last removes it on
	// offline transitions (SPEC_FULL §9 notes the source's off-by-one here
	// and this repo implements the stated intent rather than the bug).
	if s.caps.MulticastEnabled && s.self.ApplicationType == AppTypeDiscoveryServer {
		last := len(rec.DiscoveryURLs) - 1
		for i, url := range rec.DiscoveryURLs {
			if err := s.mdns.Update(rec.ServerURI, mdnsServerName, url, i == 0, i == last, rec.IsOnline); err != nil && s.logger != nil {
				s.logger.Warn("mdns update hook failed", zap.String("server_uri", rec.ServerURI), zap.Error(err))
			}
		}
	}

	// 7. Dispatch by IsOnline.
	if !rec.IsOnline {
		if !hadExisting {
			if s.logger != nil {
				s.logger.Warn("unregister of unknown server", zap.String("server_uri", rec.ServerURI))
			}
			return BadNotFound, configResults, diagnostics
		}
		s.fireCallback(rec, false)
		s.registry.Remove(rec.ServerURI)
		return Good, configResults, diagnostics
	}

	rec.LastSeen = time.Now()
	isNew := s.registry.InsertOrReplace(rec)
	if isNew {
		s.fireCallback(rec, true)
	}
	if s.logger != nil {
		s.logger.Info("server registered", zap.String("server_uri", rec.ServerURI), zap.Bool("new", isNew))
	}
	return Good, configResults, diagnostics
}

func (s *Server) fireCallback(rec RegisteredServer, isRegister bool) {
	if s.onRegister != nil {
		s.onRegister(rec, isRegister)
	}
}

// OnRegister installs the register callback (fired only on insert or
// remove, never on a plain replace -- SPEC_FULL §4.5 step 7).
func (s *Server) OnRegister(cb RegisterCallback) {
	s.onRegister = cb
}
