// Package api serves the reader assistant and highlight store over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"fastlookup/internal/domain"
	"fastlookup/internal/highlight"
)

// maxBodyBytes bounds request bodies; search_text carries a whole book prefix.
const maxBodyBytes = 32 << 20

type Options struct {
	Addr           string
	AllowedOrigins []string
	Logger         *slog.Logger
}

type Server struct {
	assistant domain.Assistant
	store     highlight.Store
	log       *slog.Logger
	origins   []string
	srv       *http.Server
}

func NewServer(assistant domain.Assistant, store highlight.Store, opts Options) (*Server, error) {
	if assistant == nil {
		return nil, errors.New("missing assistant")
	}
	if store == nil {
		return nil, errors.New("missing highlight store")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{assistant: assistant, store: store, log: opts.Logger, origins: opts.AllowedOrigins}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/fast_lookup", s.handleLookup)
	mux.HandleFunc("/api/recap", s.handleRecap)
	mux.HandleFunc("/api/qa", s.handleQA)
	mux.HandleFunc("/add_highlight", s.handleAddHighlight)
	mux.HandleFunc("/highlights", s.handleListHighlights)
	mux.HandleFunc("/delete_highlight", s.handleDeleteHighlight)
	mux.HandleFunc("/healthz", s.handleHealth)
	return s.logRequests(s.cors(mux))
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()
	s.log.Info("api listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type lookupReq struct {
	Query      string `json:"query"`
	SearchText string `json:"search_text"`
}

type recapReq struct {
	SearchText string `json:"search_text"`
}

type qaReq struct {
	Query      string `json:"query"`
	SearchText string `json:"search_text"`
	// SelectedText is accepted for client compatibility but not used.
	SelectedText    string `json:"selected_text"`
	CurrentPageText string `json:"current_page_text"`
}

type resultResp struct {
	Result string `json:"result"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupReq
	if !decodePost(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, resultResp{Result: s.assistant.Lookup(r.Context(), req.Query, req.SearchText)})
}

func (s *Server) handleRecap(w http.ResponseWriter, r *http.Request) {
	var req recapReq
	if !decodePost(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, resultResp{Result: s.assistant.Recap(r.Context(), req.SearchText)})
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	var req qaReq
	if !decodePost(w, r, &req) {
		return
	}
	out := s.assistant.OpenEnded(r.Context(), req.Query, req.SearchText, req.CurrentPageText)
	writeJSON(w, http.StatusOK, resultResp{Result: out})
}

func (s *Server) handleAddHighlight(w http.ResponseWriter, r *http.Request) {
	var h highlight.Highlight
	if !decodePost(w, r, &h) {
		return
	}
	saved, err := s.store.Add(r.Context(), h)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleListHighlights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	hs, err := s.store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

type deleteReq struct {
	ID string `json:"id"`
}

func (s *Server) handleDeleteHighlight(w http.ResponseWriter, r *http.Request) {
	var req deleteReq
	if !decodePost(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	if err := s.store.Delete(r.Context(), req.ID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": req.ID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, highlight.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, highlight.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, highlight.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("highlight store failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodePost enforces POST and decodes a JSON body into v. It writes the
// error response itself and reports whether the handler should continue.
func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
