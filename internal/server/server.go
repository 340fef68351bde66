// Package server exposes the capture, analysis and generation flow over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/satindergrewal/voiceart/internal/audio"
	"github.com/satindergrewal/voiceart/internal/capture"
	"github.com/satindergrewal/voiceart/internal/features"
	"github.com/satindergrewal/voiceart/internal/history"
	"github.com/satindergrewal/voiceart/internal/logger"
	"github.com/satindergrewal/voiceart/internal/pipeline"
	"github.com/satindergrewal/voiceart/internal/recordings"
	"github.com/satindergrewal/voiceart/internal/stability"
	"github.com/satindergrewal/voiceart/internal/web"
)

// ImageGenerator renders a prompt to PNG bytes.
type ImageGenerator interface {
	Generate(ctx context.Context, req stability.GenerateRequest) ([]byte, error)
}

// PromptRefiner polishes a composed prompt. It never fails; on trouble it
// returns its input.
type PromptRefiner interface {
	Refine(ctx context.Context, prompt string) string
}

// CaptureHandler negotiates microphone captures and reports their progress.
type CaptureHandler interface {
	http.Handler
	Session(id string) (capture.Session, error)
}

// Server holds the collaborators behind the HTTP API. Capture, Images and
// Refiner are optional.
type Server struct {
	Analyzer   *pipeline.Analyzer
	Recordings *recordings.Store
	History    *history.Store
	Capture    CaptureHandler
	Images     ImageGenerator
	Refiner    PromptRefiner

	// ImageParams is the request template; Prompt is filled per call.
	ImageParams stability.GenerateRequest
	// MaxUploadBytes caps POST /api/recordings bodies.
	MaxUploadBytes int64

	Log *logger.Logger
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	})

	if s.Capture != nil {
		mux.Handle("/offer", s.Capture)
		mux.HandleFunc("GET /api/session/{id}", s.handleSession)
	}

	mux.HandleFunc("POST /api/recordings", s.handleUpload)
	mux.HandleFunc("GET /api/recordings", s.handleListRecordings)
	mux.HandleFunc("GET /api/recordings/{name}", s.handleRecording)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/images/{name}", s.handleImage)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	return mux
}

func (s *Server) log() *logger.Logger {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var de *audio.DecodeError
	var ife *features.InvalidFeatureError
	switch {
	case errors.As(err, &de), errors.As(err, &ife):
		return http.StatusUnprocessableEntity
	case errors.Is(err, recordings.ErrNotFound), errors.Is(err, capture.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, recordings.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, stability.ErrUnauthorized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
