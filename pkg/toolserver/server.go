package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/udahub/udahub/pkg/observability"
)

// Server exposes a Registry over HTTP: GET /tools lists definitions,
// POST /tools/{name} invokes one. It adds no semantics of its own; handler
// results and errors pass through unchanged.
type Server struct {
	registry *Registry
	addr     string
	server   *http.Server
}

// CallResult is the wire shape of a tool invocation response.
type CallResult struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewServer creates a tool server listening on addr.
func NewServer(registry *Registry, addr string) *Server {
	return &Server{registry: registry, addr: addr}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/tools", s.handleList)
	mux.HandleFunc("/tools/", s.handleCall)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	log.Printf("tool server listening addr=%s tools=%d", s.addr, len(s.registry.List()))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("tool server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.registry.List()})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/tools/")
	if name == "" {
		http.Error(w, "tool name required", http.StatusBadRequest)
		return
	}

	tool, err := s.registry.Get(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, CallResult{Error: err.Error()})
		return
	}

	var args Args
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, CallResult{Error: "malformed arguments: " + err.Error()})
			return
		}
	}
	if args == nil {
		args = Args{}
	}

	if err := tool.Schema.ValidateArgs(args); err != nil {
		observability.RecordToolCall(name, "invalid_args", 0)
		writeJSON(w, http.StatusBadRequest, CallResult{Error: err.Error()})
		return
	}

	start := time.Now()
	result, err := tool.Handler(r.Context(), args)
	duration := time.Since(start)
	if err != nil {
		observability.RecordToolCall(name, "error", duration)
		log.Printf("tool call failed tool=%s err=%v", name, err)
		writeJSON(w, http.StatusUnprocessableEntity, CallResult{Error: err.Error()})
		return
	}

	observability.RecordToolCall(name, "ok", duration)
	writeJSON(w, http.StatusOK, CallResult{Result: result})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("tool server write failed: %v", err)
	}
}
