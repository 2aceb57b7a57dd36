// Package status exposes the operational HTTP surface: health,
// Prometheus metrics, and portfolio state.
package status

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"solana-pool-sniper/internal/portfolio"
	"solana-pool-sniper/internal/storage"
)

// Options configures a Server.
type Options struct {
	ListenAddr string
	Store      *portfolio.Store
	// Metrics serves GET /metrics. Nil disables the endpoint.
	Metrics http.Handler
	// SeenCount reports the detection dedupe set size. Nil reports 0.
	SeenCount func() int
	// Snipes backs GET /api/snipes when set; otherwise the endpoint
	// falls back to the portfolio store's file-based snipe log.
	Snipes storage.SnipeStore
	DryRun bool
	Mode   string
	Logger *log.Logger
}

// Server is the status HTTP server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	store      *portfolio.Store
	snipes     storage.SnipeStore
	seenCount  func() int
	dryRun     bool
	mode       string
	startedAt  time.Time
	logger     *log.Logger
}

// NewServer creates a status server with its routes configured.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		router:    mux.NewRouter(),
		store:     opts.Store,
		snipes:    opts.Snipes,
		seenCount: opts.SeenCount,
		dryRun:    opts.DryRun,
		mode:      opts.Mode,
		startedAt: time.Now(),
		logger:    logger,
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if opts.Metrics != nil {
		s.router.Handle("/metrics", opts.Metrics).Methods("GET")
	}
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/portfolio", s.handlePortfolio).Methods("GET")
	api.HandleFunc("/snipes", s.handleSnipes).Methods("GET")

	s.httpServer = &http.Server{
		Addr:         opts.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Printf("Status server listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "pool-sniper",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	seen := 0
	if s.seenCount != nil {
		seen = s.seenCount()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"mode":          s.mode,
		"dryRun":        s.dryRun,
		"uptimeSeconds": int64(time.Since(s.startedAt).Seconds()),
		"seenPools":     seen,
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	p, err := s.store.Load()
	if err != nil {
		s.logger.Printf("ERROR: load portfolio: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load portfolio")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSnipes(w http.ResponseWriter, r *http.Request) {
	if s.snipes == nil {
		records, err := s.store.SnipeLog()
		if err != nil {
			s.logger.Printf("ERROR: load snipe log: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to load snipe log")
			return
		}
		respondJSON(w, http.StatusOK, records)
		return
	}

	var (
		records interface{}
		err     error
	)
	if mint := r.URL.Query().Get("mint"); mint != "" {
		records, err = s.snipes.GetByMint(r.Context(), mint)
	} else {
		records, err = s.snipes.GetByTimeRange(r.Context(), 0, time.Now().UnixMilli())
	}
	if err != nil {
		s.logger.Printf("ERROR: load snipe records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load snipe records")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}
