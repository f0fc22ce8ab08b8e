package discovery

// FindServers implements C4 per SPEC_FULL §4.3. Grounded on
// original_source/ua_services_discovery.c's Service_FindServers: self is
// always placed first when included -- unconditionally for an empty filter,
// or once when this server's own applicationUri appears anywhere in the
// filter -- followed by the matched peers in request order; peers are
// scanned in registry insertion order when unfiltered.
func (s *Server) FindServers(req FindServersRequest) FindServersResponse {
	self := SelfDescription(s.self, s.networkLayers)

	if len(req.ServerURIs) == 0 {
		servers := []ApplicationDescription{self}
		s.registry.Iterate(func(rec RegisteredServer) bool {
			servers = append(servers, PeerDescription(req.LocaleIDs, rec))
			return true
		})
		return FindServersResponse{ServiceResult: Good, Servers: servers}
	}

	var servers []ApplicationDescription
	includedSelf := false
	for _, uri := range req.ServerURIs {
		if uri == self.ApplicationURI {
			includedSelf = true
			continue
		}
		if rec, ok := s.registry.Lookup(uri); ok {
			servers = append(servers, PeerDescription(req.LocaleIDs, rec))
		}
	}
	if includedSelf {
		servers = append([]ApplicationDescription{self}, servers...)
	}
	return FindServersResponse{ServiceResult: Good, Servers: servers}
}
