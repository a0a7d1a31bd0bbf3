// Package api provides the REST endpoints for telegram batch ingestion.
package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"telegram_parser/internal/batch"
	"telegram_parser/internal/ingest"
)

// Config holds configuration for the ingest API server.
type Config struct {
	Port        int
	AuthEnabled bool
	APIKeys     []string
}

// Server exposes batch ingestion over HTTP.
type Server struct {
	ingestor    *ingest.Ingestor
	port        int
	authEnabled bool
	apiKeys     map[string]bool // Simple API key auth (when enabled).
}

// NewServer creates an ingest API server.
func NewServer(ing *ingest.Ingestor, cfg Config) *Server {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	return &Server{
		ingestor:    ing,
		port:        cfg.Port,
		authEnabled: cfg.AuthEnabled,
		apiKeys:     keys,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if s.authEnabled {
			r.Use(s.requireAPIKey)
		}
		r.Post("/upload/messages", s.handleUpload)
	})

	return r
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Ingest API starting at http://localhost%s", addr)
	if s.authEnabled {
		log.Printf("Authentication: ENABLED (API key required)")
	} else {
		log.Printf("Authentication: DISABLED (open access)")
	}
	return http.ListenAndServe(addr, s.Router())
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if !s.apiKeys[key] {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type uploadRequest struct {
	Messages  []string `json:"messages"`
	Source    string   `json:"source,omitempty"`
	BatchName string   `json:"batch_name,omitempty"`
}

type uploadResponse struct {
	BatchID       string `json:"batch_id"`
	Status        string `json:"status"`
	TotalMessages int    `json:"total_messages"`
	SavedCount    int    `json:"saved_count"`

	Stats *batch.Stats `json:"stats"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	if len(req.Messages) > batch.MaxBatchSize {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("batch exceeds the limit of %d messages", batch.MaxBatchSize))
		return
	}

	batchID := newBatchID()
	name := req.BatchName
	if name == "" {
		name = "api_upload_" + time.Now().Format("20060102_150405")
	}

	res, err := s.ingestor.Run(r.Context(), batchID, name, req.Messages)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "batch processing failed")
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		BatchID:       batchID,
		Status:        "processed",
		TotalMessages: len(req.Messages),
		SavedCount:    res.SavedCount,
		Stats:         res.Stats,
	})
}

func newBatchID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
