package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/summonlabs/summoner/internal/biz/repo"
	"github.com/summonlabs/summoner/internal/biz/usecase"
	"github.com/summonlabs/summoner/internal/service"
)

// Commands is the command surface exposed over HTTP
type Commands interface {
	Stats(ctx context.Context) *service.StatsReport
	Status(ctx context.Context) (*service.StatusReport, error)
	QuietHours() *service.QuietReport
	Summon(ctx context.Context, targetUserID, channelID string) (*service.SummonReport, error)
	Reload(force bool) (*service.ReloadReport, error)
	ResetUsed() error
	StopScheduler()
	Recheck(ctx context.Context) (*service.RecheckReport, error)
}

// Server provides the loopback admin API used by the MCP tools
type Server struct {
	commands Commands
	logger   *slog.Logger

	server *http.Server
	port   int
}

// SummonRequest is the body of POST /api/summon
type SummonRequest struct {
	UserID    string `json:"user_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

// NewServer creates a new API server
func NewServer(commands Commands, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		commands: commands,
		logger:   logger.With("component", "api"),
		port:     port,
	}
	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/quiet-hours", s.handleQuietHours)
	mux.HandleFunc("/api/summon", s.handleSummon)
	mux.HandleFunc("/api/reload", s.handleReload)
	mux.HandleFunc("/api/reset", s.handleReset)

	// Scheduler control
	mux.HandleFunc("/api/scheduler/stop", s.handleSchedulerStop)
	mux.HandleFunc("/api/scheduler/recheck", s.handleSchedulerRecheck)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Start serves on 127.0.0.1:port until Stop
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "port", s.port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// GetPort returns the server port
func (s *Server) GetPort() int {
	return s.port
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.commands.Stats(r.Context()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	report, err := s.commands.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, report)
}

func (s *Server) handleQuietHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.commands.QuietHours())
}

func (s *Server) handleSummon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SummonRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	report, err := s.commands.Summon(r.Context(), req.UserID, req.ChannelID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, report)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	force := false
	if f := r.URL.Query().Get("force"); f != "" {
		parsed, err := strconv.ParseBool(f)
		if err != nil {
			http.Error(w, "force must be a boolean", http.StatusBadRequest)
			return
		}
		force = parsed
	}

	report, err := s.commands.Reload(force)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, report)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.commands.ResetUsed(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"success": true})
}

func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.commands.StopScheduler()
	s.writeJSON(w, map[string]interface{}{"success": true})
}

func (s *Server) handleSchedulerRecheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	report, err := s.commands.Recheck(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, report)
}

// ============ Helpers ============

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrTargetNotFound),
		errors.Is(err, usecase.ErrChannelNotFound),
		errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repo.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
