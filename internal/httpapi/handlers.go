package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tributary-ai-services/opcua-discovery/internal/discovery"
)

func (s *Server) handleFindServers(w http.ResponseWriter, r *http.Request) {
	var req discovery.FindServersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, s.discovery.FindServers(req))
}

func (s *Server) handleFindServersOnNetwork(w http.ResponseWriter, r *http.Request) {
	servers, err := discovery.FindServersOnNetwork(r.Context(), 2*time.Second)
	if err != nil {
		s.logger.Warn("find-servers-on-network failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"servers": servers})
}

func (s *Server) handleGetEndpoints(w http.ResponseWriter, r *http.Request) {
	var req discovery.GetEndpointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, s.discovery.GetEndpoints(req))
}

func (s *Server) handleRegisterServer(w http.ResponseWriter, r *http.Request) {
	var req discovery.RegisterServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	resp := s.discovery.RegisterServer(req)
	status := http.StatusOK
	if resp.ServiceResult != discovery.Good {
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleRegisterServer2(w http.ResponseWriter, r *http.Request) {
	var req discovery.RegisterServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	resp := s.discovery.RegisterServer2(req)
	status := http.StatusOK
	if resp.ServiceResult != discovery.Good {
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, resp)
}

// handleListServers reports this instance's local registry plus, when
// Consul-discovered fleet peers are configured, an aggregated view obtained
// by fanning FindServers out to each of them (SPEC_FULL §4.11). A peer that
// fails to answer is reported by URL rather than dropped silently.
func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	local := s.discovery.FindServers(discovery.FindServersRequest{})

	resp := map[string]interface{}{
		"count":   s.discovery.RegistrySize(),
		"servers": local.Servers,
	}

	if len(s.fleetPeers) == 0 || s.fleetClient == nil {
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	fleet := make(map[string]interface{}, len(s.fleetPeers))
	for _, peer := range s.fleetPeers {
		peerResp, err := s.fleetClient.FindServers(ctx, peer, discovery.FindServersRequest{})
		if err != nil {
			fleet[peer] = map[string]string{"error": err.Error()}
			continue
		}
		fleet[peer] = peerResp.Servers
	}
	resp["fleet"] = fleet

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}
