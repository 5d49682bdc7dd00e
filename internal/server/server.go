// Package server hosts the skill over HTTP so the CLI and other processes can
// deliver intents and playback events to one long-running instance.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/thedittmer/podcast-skill/internal/bus"
	"github.com/thedittmer/podcast-skill/internal/feed"
	"github.com/thedittmer/podcast-skill/internal/models"
	"github.com/thedittmer/podcast-skill/internal/skill"
	"github.com/thedittmer/podcast-skill/internal/speech"
)

// Response is the body of every JSON reply. Spoken holds the lines the skill
// said while handling the request.
type Response struct {
	Spoken  []string      `json:"spoken"`
	Match   *models.Match `json:"match,omitempty"`
	Stopped *bool         `json:"stopped,omitempty"`
	Status  *skill.Status `json:"status,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type playRequest struct {
	Phrase string `json:"phrase"`
}

type latestEpisodeRequest struct {
	Utterance string `json:"utterance"`
}

// Server serializes requests so spoken lines are attributed to the request
// that produced them.
type Server struct {
	mu       sync.Mutex
	skill    *skill.Skill
	bus      *bus.Bus
	recorder *speech.Recorder
	logger   *slog.Logger
	handler  http.Handler
}

// New wires the routes. recorder must be one of the speakers the skill speaks
// through.
func New(sk *skill.Skill, b *bus.Bus, recorder *speech.Recorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		skill:    sk,
		bus:      b,
		recorder: recorder,
		logger:   logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /bus/{event}", s.handleEvent)
	mux.HandleFunc("POST /intents/play", s.handlePlay)
	mux.HandleFunc("POST /intents/latest-episodes", s.handleLatestEpisodes)
	mux.HandleFunc("POST /intents/latest-episode", s.handleLatestEpisode)
	mux.HandleFunc("POST /stop", s.handleStop)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.handler = mux
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on bind until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, bind string) error {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Feed fetches for every slot can take a while.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	s.logger.Info("http host listening", "address", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// serialize runs fn with the request lock held and collects what was spoken.
func (s *Server) serialize(fn func() error) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recorder.Drain()
	err := fn()
	spoken := s.recorder.Drain()
	if spoken == nil {
		spoken = []string{}
	}
	return spoken, err
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	event := bus.Canonical(r.PathValue("event"))
	spoken, err := s.serialize(func() error {
		return s.bus.Publish(r.Context(), event)
	})
	if errors.Is(err, bus.ErrNoSubscribers) {
		s.writeJSON(w, http.StatusNotFound, Response{Spoken: spoken, Error: err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("event handler failed", "event", event, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, Response{Spoken: spoken, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, Response{Spoken: spoken})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, Response{Spoken: []string{}, Error: err.Error()})
		return
	}
	if strings.TrimSpace(req.Phrase) == "" {
		s.writeJSON(w, http.StatusBadRequest, Response{Spoken: []string{}, Error: "phrase is required"})
		return
	}

	var match models.Match
	spoken, err := s.serialize(func() error {
		var err error
		match, err = s.skill.Play(r.Context(), req.Phrase)
		return err
	})
	resp := Response{Spoken: spoken, Match: &match}
	switch {
	case errors.Is(err, skill.ErrNoMatch):
		resp.Error = "no match"
		s.writeJSON(w, http.StatusNotFound, resp)
	case err != nil:
		resp.Error = err.Error()
		s.writeJSON(w, statusFor(err), resp)
	default:
		s.writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleLatestEpisodes(w http.ResponseWriter, r *http.Request) {
	spoken, err := s.serialize(func() error {
		return s.skill.LatestEpisodes(r.Context())
	})
	s.writeResult(w, spoken, err)
}

func (s *Server) handleLatestEpisode(w http.ResponseWriter, r *http.Request) {
	var req latestEpisodeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, Response{Spoken: []string{}, Error: err.Error()})
		return
	}
	spoken, err := s.serialize(func() error {
		return s.skill.LatestEpisode(r.Context(), req.Utterance)
	})
	s.writeResult(w, spoken, err)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var stopped bool
	spoken, err := s.serialize(func() error {
		var err error
		stopped, err = s.skill.Stop(r.Context())
		return err
	})
	if err != nil {
		s.writeJSON(w, statusFor(err), Response{Spoken: spoken, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, Response{Spoken: spoken, Stopped: &stopped})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.skill.Status()
	s.writeJSON(w, http.StatusOK, Response{Spoken: []string{}, Status: &status})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, Response{Spoken: []string{}})
}

func (s *Server) writeResult(w http.ResponseWriter, spoken []string, err error) {
	if err != nil {
		s.writeJSON(w, statusFor(err), Response{Spoken: spoken, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, Response{Spoken: spoken})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

// statusFor maps feed failures to 502 since the upstream host is at fault.
func statusFor(err error) int {
	if errors.Is(err, feed.ErrBadFeed) || errors.Is(err, feed.ErrUnreachable) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
