// Package api serves the agent over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Chative-commerce-agent/server/internal/agent/model"
	errx "github.com/Chative-commerce-agent/server/internal/core/error"
	logx "github.com/Chative-commerce-agent/server/pkg/logger"
)

const maxBodyBytes = 64 << 10

// Agent answers queries and forgets threads.
type Agent interface {
	Invoke(ctx context.Context, in model.QueryInput) (string, error)
	Reset(ctx context.Context, conversationID string) error
}

// Check reports whether one dependency is ready to serve.
type Check func(ctx context.Context) (bool, error)

type AskRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Query          string `json:"query"`
}

type AskResponse struct {
	ConversationID string `json:"conversation_id"`
	Answer         string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks"`
}

// Server is the HTTP front end of the turn pipeline.
type Server struct {
	agent  Agent
	checks map[string]Check
}

func NewServer(agent Agent, checks map[string]Check) *Server {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &Server{agent: agent, checks: checks}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/ask", s.handleAsk)
	mux.HandleFunc("DELETE /v1/conversations/{id}", s.handleReset)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.withLogging(mux)
}

// Run serves on addr until ctx is cancelled, then drains in-flight turns
// for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logx.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logx.Info().Msg("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(r.Context(), w, errx.Invalid("decode request: %v", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(r.Context(), w, errx.Invalid("query is required"))
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	answer, err := s.agent.Invoke(r.Context(), model.QueryInput{
		ConversationID: req.ConversationID,
		Query:          req.Query,
	})
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, AskResponse{ConversationID: req.ConversationID, Answer: answer})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.agent.Reset(r.Context(), id); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: make(map[string]bool, len(s.checks))}
	for name, check := range s.checks {
		ok, err := check(r.Context())
		if err != nil {
			logx.Ctx(r.Context()).Warn().Err(err).Str("check", name).Msg("Health check failed")
		}
		resp.Checks[name] = ok && err == nil
		if !resp.Checks[name] {
			resp.Status = "unavailable"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(r.Context(), w, status, resp)
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Ctx(ctx).Error().Err(err).Int("status", status).Msg("Request failed")
	}
	writeJSON(ctx, w, status, errorResponse{Error: errx.MessageOf(err)})
}

// writeJSON encodes v as the response body. Encoding errors mean the client
// went away and are only logged.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Ctx(ctx).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logx.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
