package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/satindergrewal/voiceart/internal/audio"
	"github.com/satindergrewal/voiceart/internal/history"
	"github.com/satindergrewal/voiceart/internal/pipeline"
	"github.com/satindergrewal/voiceart/internal/recordings"
)

const defaultMaxUpload = 50 << 20

var formatPattern = regexp.MustCompile(`^[a-z0-9]{1,5}$`)

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Capture.Session(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleUpload stores an audio body as a recording. ?format= names the
// container (default wav); anything decodable is accepted.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "wav"
	}
	if !formatPattern.MatchString(format) {
		http.Error(w, "invalid format", http.StatusBadRequest)
		return
	}

	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}

	tmp, err := os.CreateTemp("", "voiceart-upload-*."+format)
	if err != nil {
		http.Error(w, "create temp file failed", http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, http.MaxBytesReader(w, r.Body, limit))
	tmp.Close()
	if err != nil {
		http.Error(w, "upload failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	clip, err := audio.DecodeFile(tmp.Name())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	rec, err := s.Recordings.Save(clip)
	if err != nil {
		s.log().Error("save upload failed", "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.log().Info("recording uploaded", "recording", rec.Name, "duration", clip.Duration().String())
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	list, err := s.Recordings.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []recordings.Recording{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	path, err := s.Recordings.Path(r.PathValue("name"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

type analyzeRequest struct {
	Recording string `json:"recording"`
}

type analyzeResponse struct {
	pipeline.Result
	Prompt         string `json:"prompt"`
	ComposedPrompt string `json:"composed_prompt"`
}

// handleAnalyze runs the pipeline on a stored recording. The refined prompt,
// when a refiner is configured, replaces the composed one in "prompt".
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Recording == "" {
		http.Error(w, "recording required", http.StatusBadRequest)
		return
	}
	path, err := s.Recordings.Path(req.Recording)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	inv := pipeline.NewInvocation(path)
	res, err := s.Analyzer.AnalyzeFile(inv)
	if err != nil {
		s.log().Warn("analysis failed", "recording", req.Recording, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	final := res.Prompt
	if s.Refiner != nil {
		final = s.Refiner.Refine(r.Context(), res.Prompt)
	}

	if s.History != nil {
		if err := s.History.Add(r.Context(), history.Entry{
			ID:          inv.ID.String(),
			Recording:   req.Recording,
			Prompt:      final,
			Descriptors: s.historyJSON(res.Descriptors),
			CreatedAt:   inv.CreatedAt,
		}); err != nil {
			s.log().Warn("history add failed", "error", err)
		}
	}

	s.log().Info("recording analyzed", "recording", req.Recording, "invocation", inv.ID.String())
	writeJSON(w, http.StatusOK, analyzeResponse{Result: res, Prompt: final, ComposedPrompt: res.Prompt})
}

// historyJSON encodes v for a history entry. An encoding failure is logged
// and leaves the column to its "{}" default.
func (s *Server) historyJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		s.log().Warn("history encode failed", "error", err)
		return ""
	}
	return string(b)
}

type generateRequest struct {
	Prompt    string `json:"prompt"`
	Recording string `json:"recording,omitempty"`
}

type generateResponse struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.Images == nil {
		http.Error(w, "image generation not configured", http.StatusServiceUnavailable)
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "prompt required", http.StatusBadRequest)
		return
	}

	params := s.ImageParams
	params.Prompt = req.Prompt
	png, err := s.Images.Generate(r.Context(), params)
	if err != nil {
		s.log().Error("image generation failed", "error", err)
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			code = http.StatusBadGateway
		}
		http.Error(w, err.Error(), code)
		return
	}

	name, err := s.Recordings.SaveImage(png)
	if err != nil {
		s.log().Error("store image failed", "error", err)
		http.Error(w, "store image failed", http.StatusInternalServerError)
		return
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, "image_"), ".png")

	if s.History != nil {
		if err := s.History.Add(r.Context(), history.Entry{
			ID:        id,
			Recording: req.Recording,
			Prompt:    req.Prompt,
			Image:     name,
		}); err != nil {
			s.log().Warn("history add failed", "error", err)
		}
	}

	s.log().Info("image generated", "image", name, "bytes", len(png))
	writeJSON(w, http.StatusOK, generateResponse{ID: id, Image: name})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	path, err := s.Recordings.ImagePath(r.PathValue("name"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeJSON(w, http.StatusOK, []history.Entry{})
		return
	}
	entries, err := s.History.Recent(r.Context(), 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
