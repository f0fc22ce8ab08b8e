// Package httpapi is C11: the HTTP+JSON admin surface standing in for the
// binary OPC-UA transport this subsystem's specification treats as
// external. Router and middleware are grounded on the teacher's
// internal/http/server.go (gorilla/mux + logging/CORS middleware chain);
// the route table is grounded on internal/federation/http_handlers.go.
package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tributary-ai-services/opcua-discovery/internal/discovery"
)

type Server struct {
	discovery *discovery.Server
	logger    *zap.Logger

	// fleetClient and fleetPeers back the fleet-wide "list known servers"
	// aggregation (SPEC_FULL §4.11): when Consul bootstrap (C12) has
	// discovered sibling LDS instances, handleListServers fans FindServers
	// out to each of them via fleetClient in addition to the local registry.
	fleetClient *discovery.Client
	fleetPeers  []string
}

// NewServer builds the admin HTTP surface. fleetClient and fleetPeers may be
// nil/empty when no Consul bootstrap peers were discovered; the server then
// only ever reports its own local registry.
func NewServer(d *discovery.Server, fleetClient *discovery.Client, fleetPeers []string, logger *zap.Logger) *Server {
	return &Server{discovery: d, fleetClient: fleetClient, fleetPeers: fleetPeers, logger: logger}
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api/v1/discovery").Subrouter()
	api.HandleFunc("/find-servers", s.handleFindServers).Methods(http.MethodPost)
	api.HandleFunc("/find-servers-on-network", s.handleFindServersOnNetwork).Methods(http.MethodPost)
	api.HandleFunc("/get-endpoints", s.handleGetEndpoints).Methods(http.MethodPost)
	api.HandleFunc("/register-server", s.handleRegisterServer).Methods(http.MethodPost)
	api.HandleFunc("/register-server2", s.handleRegisterServer2).Methods(http.MethodPost)
	api.HandleFunc("/servers", s.handleListServers).Methods(http.MethodGet)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)

	return router
}

// loggingResponseWriter captures the status code so loggingMiddleware can
// log it after the handler runs, in the teacher's own http/server.go style.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		requestID := uuid.NewString()

		next.ServeHTTP(lrw, r)

		s.logger.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
