package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/texgraph/ai"
	"github.com/siherrmann/texgraph/model"
)

// Searcher answers retrieval queries. The root TexGraph type implements it.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]*model.Passage, error)
	SearchLatex(ctx context.Context, query string, k int) ([]*model.Passage, error)
}

// SearchRequest is the body of POST /search.
// Mathy is accepted for compatibility with older clients but has no effect,
// both channels are always probed.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
	Mathy bool   `json:"mathy"`
	Latex bool   `json:"latex"`
}

// Server exposes retrieval over HTTP.
type Server struct {
	searcher Searcher
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewServer creates a retrieval server around the given searcher.
func NewServer(searcher Searcher, logger *slog.Logger) *Server {
	server := &Server{
		searcher: searcher,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", server.handleSearch)
	mux.HandleFunc("/healthz", server.handleHealth)
	server.mux = mux

	return server
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server on the given address and blocks until
// the context is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("Retrieval server listening", slog.String("addr", addr))

	select {
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	requestID := uuid.NewString()

	var request SearchRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(request.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	s.logger.Info("Search request",
		slog.String("request_id", requestID),
		slog.Int("k", request.K),
		slog.Bool("latex", request.Latex),
	)

	var passages []*model.Passage
	if request.Latex {
		passages, err = s.searcher.SearchLatex(r.Context(), request.Query, request.K)
	} else {
		passages, err = s.searcher.Search(r.Context(), request.Query, request.K)
	}
	if err != nil {
		s.logger.Error("Search failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)

		status := http.StatusInternalServerError
		if errors.Is(err, ai.ErrProviderUnavailable) {
			status = http.StatusBadGateway
		}
		s.writeError(w, status, "search failed")
		return
	}

	if passages == nil {
		passages = []*model.Passage{}
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(passages)
	if err != nil {
		s.logger.Error("Encoding response failed", slog.String("request_id", requestID), slog.String("error", err.Error()))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
