package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/satindergrewal/voiceart/internal/audio"
	"github.com/satindergrewal/voiceart/internal/capture"
	"github.com/satindergrewal/voiceart/internal/history"
	"github.com/satindergrewal/voiceart/internal/logger"
	"github.com/satindergrewal/voiceart/internal/pipeline"
	"github.com/satindergrewal/voiceart/internal/recordings"
	"github.com/satindergrewal/voiceart/internal/stability"
)

type fakeImages struct {
	got stability.GenerateRequest
	err error
}

func (f *fakeImages) Generate(_ context.Context, req stability.GenerateRequest) ([]byte, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return []byte("\x89PNG fake"), nil
}

type upperRefiner struct{}

func (upperRefiner) Refine(_ context.Context, p string) string { return strings.ToUpper(p) }

type fakeCapture struct{ http.Handler }

func (fakeCapture) Session(id string) (capture.Session, error) {
	if id == "s1" {
		return capture.Session{ID: "s1", State: capture.StateDone, Recording: "audio_1_abcdef01.wav"}, nil
	}
	return capture.Session{}, capture.ErrSessionNotFound
}

func newServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := recordings.New(filepath.Join(dir, "audio"))
	require.NoError(t, err)
	hist, err := history.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { hist.Close() })

	return &Server{
		Analyzer:    pipeline.NewAnalyzer(),
		Recordings:  store,
		History:     hist,
		Capture:     fakeCapture{http.NotFoundHandler()},
		Images:      &fakeImages{},
		ImageParams: stability.GenerateRequest{Seed: 42, Steps: 30, CFGScale: 8, Width: 512, Height: 512, Samples: 1},
	}
}

func toneWAV(t *testing.T) []byte {
	t.Helper()
	s := make([]float64, audio.AnalysisSampleRate)
	for i := range s {
		s[i] = 0.4 * math.Sin(2*math.Pi*440*float64(i)/audio.AnalysisSampleRate)
	}
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, audio.EncodeWAV(f, audio.Clip{Samples: s, SampleRate: audio.AnalysisSampleRate}))
	require.NoError(t, f.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, bytes.NewReader(body)))
	return rec
}

func upload(t *testing.T, h http.Handler) recordings.Recording {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/recordings", toneWAV(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var r recordings.Recording
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

// --- UI & sessions ---

func TestIndex(t *testing.T) {
	h := newServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Generate Art from Voice")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", nil).Code)
}

func TestSession(t *testing.T) {
	h := newServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/api/session/s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var s capture.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, capture.StateDone, s.State)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/session/zz", nil).Code)
}

// --- Recordings ---

func TestUploadListServe(t *testing.T) {
	h := newServer(t).Handler()
	r := upload(t, h)

	rec := do(t, h, http.MethodGet, "/api/recordings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []recordings.Recording
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, r.Name, list[0].Name)

	rec = do(t, h, http.MethodGet, "/api/recordings/"+r.Name, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("RIFF")))
}

func TestUploadRejectsGarbageAndBadFormat(t *testing.T) {
	h := newServer(t).Handler()
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPost, "/api/recordings", []byte("not audio")).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/recordings?format=../x", []byte("x")).Code)
}

func TestEmptyListIsArray(t *testing.T) {
	rec := do(t, newServer(t).Handler(), http.MethodGet, "/api/recordings", nil)
	assert.JSONEq(t, "[]", rec.Body.String())
}

// --- Analyze ---

func TestAnalyze(t *testing.T) {
	srv := newServer(t)
	h := srv.Handler()
	r := upload(t, h)

	rec := do(t, h, http.MethodPost, "/api/analyze", []byte(`{"recording":"`+r.Name+`"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, strings.HasPrefix(got["prompt"].(string), "Create a "))
	assert.Equal(t, got["prompt"], got["composed_prompt"])
	assert.Contains(t, got, "features")
	assert.Contains(t, got, "descriptors")

	entries, err := srv.History.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, r.Name, entries[0].Recording)
	assert.Contains(t, entries[0].Descriptors, `"style"`)
}

func TestHistoryJSONLogsEncodeFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	srv := newServer(t)
	srv.Log = logger.NewCore(core)

	assert.Equal(t, "", srv.historyJSON(math.NaN()))
	require.Equal(t, 1, logs.FilterMessage("history encode failed").Len())

	assert.Equal(t, `{"a":1}`, srv.historyJSON(map[string]int{"a": 1}))
	assert.Equal(t, 1, logs.Len())
}

func TestAnalyzeRefines(t *testing.T) {
	srv := newServer(t)
	srv.Refiner = upperRefiner{}
	h := srv.Handler()
	r := upload(t, h)

	rec := do(t, h, http.MethodPost, "/api/analyze", []byte(`{"recording":"`+r.Name+`"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, strings.HasPrefix(got["prompt"].(string), "CREATE A "))
	assert.True(t, strings.HasPrefix(got["composed_prompt"].(string), "Create a "))
}

func TestAnalyzeErrors(t *testing.T) {
	h := newServer(t).Handler()
	tests := []struct {
		body string
		want int
	}{
		{`{}`, http.StatusBadRequest},
		{`nope`, http.StatusBadRequest},
		{`{"recording":"../../etc/passwd"}`, http.StatusBadRequest},
		{`{"recording":"audio_1_00000000.wav"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, do(t, h, http.MethodPost, "/api/analyze", []byte(tt.body)).Code, tt.body)
	}
}

// --- Generate ---

func TestGenerateStoresImageAndHistory(t *testing.T) {
	srv := newServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/generate", []byte(`{"prompt":"Create a thing","recording":"audio_1_abcdef01.wav"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Regexp(t, `^image_[0-9a-f-]{36}\.png$`, got.Image)
	assert.Equal(t, "image_"+got.ID+".png", got.Image)

	imgs := srv.Images.(*fakeImages)
	assert.Equal(t, "Create a thing", imgs.got.Prompt)
	assert.Equal(t, 42, imgs.got.Seed)
	assert.Equal(t, 512, imgs.got.Width)

	rec = do(t, h, http.MethodGet, "/api/images/"+got.Image, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\x89PNG fake", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/history", nil)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, got.Image, entries[0].Image)
}

func TestGenerateErrors(t *testing.T) {
	srv := newServer(t)
	srv.Images = &fakeImages{err: stability.ErrUnauthorized}
	h := srv.Handler()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/generate", []byte(`{"prompt":"x"}`)).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/generate", []byte(`{"prompt":" "}`)).Code)

	srv.Images = nil
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv.Handler(), http.MethodPost, "/api/generate", []byte(`{"prompt":"x"}`)).Code)
}

func TestImageNameValidated(t *testing.T) {
	h := newServer(t).Handler()
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/images/secret.png", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/images/image_00000000-0000-0000-0000-000000000000.png", nil).Code)
}
