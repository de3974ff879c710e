package card

import (
	"log/slog"
	"net/http"
)

// Server handles HTTP requests for the extraction gateway and the session
// edit workflow.
type Server struct {
	service  *Service
	sessions Store
	mux      *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, sessions Store) *Server {
	return NewServerWithMux(service, sessions, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, sessions Store, mux *http.ServeMux) *Server {
	s := &Server{
		service:  service,
		sessions: sessions,
		mux:      mux,
	}
	s.registerRoutes()
	return s
}

// corsMiddleware adds CORS headers to responses. The client may be served
// from a different origin than the gateway, so every response carries the
// headers and preflight requests succeed with no body.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// setCORSHeaders sets permissive CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-Info, Apikey")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// Stateless extraction gateway
	s.mux.HandleFunc("POST /api/extract", s.handleExtract)

	// Record edit workflow (most specific paths first)
	s.mux.HandleFunc("POST /api/sessions/{id}/records/{rid}/edit", s.handleStartEdit)
	s.mux.HandleFunc("POST /api/sessions/{id}/records/{rid}/save", s.handleSaveRecord)
	s.mux.HandleFunc("POST /api/sessions/{id}/records/{rid}/cancel", s.handleCancelEdit)
	s.mux.HandleFunc("DELETE /api/sessions/{id}/records/{rid}", s.handleDeleteRecord)
	s.mux.HandleFunc("POST /api/sessions/{id}/records", s.handleAddRecord)
	s.mux.HandleFunc("PUT /api/sessions/{id}/records", s.handleUpdateRecords)

	// Session workflow
	s.mux.HandleFunc("POST /api/sessions/{id}/extract", s.handleSessionExtract)
	s.mux.HandleFunc("PUT /api/sessions/{id}/patient", s.handleUpdatePatient)
	s.mux.HandleFunc("POST /api/sessions/{id}/reset", s.handleReset)
	s.mux.HandleFunc("GET /api/sessions/{id}/document", s.handleDocument)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		s.mux.ServeHTTP(w, r)
	})(w, r)
}
