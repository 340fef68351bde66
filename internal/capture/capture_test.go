package capture

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satindergrewal/voiceart/internal/audio"
	"github.com/satindergrewal/voiceart/internal/logger"
)

// fakeSource replays payloads and then returns io.EOF.
type fakeSource struct {
	payloads [][]byte
	reads    int
}

func (f *fakeSource) ReadPayload() ([]byte, error) {
	if f.reads >= len(f.payloads) {
		return nil, io.EOF
	}
	p := f.payloads[f.reads]
	f.reads++
	return p, nil
}

// fakeDecoder emits one 20 ms frame at half scale per payload.
type fakeDecoder struct{}

func (fakeDecoder) Decode(data []byte, pcm []int16) (int, error) {
	if string(data) == "bad" {
		return 0, errors.New("corrupt frame")
	}
	for i := 0; i < 960; i++ {
		pcm[i] = 16384
	}
	return 960, nil
}

func frames(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{0xfc}
	}
	return out
}

// --- Recorder ---

func TestRecorderStopsAtLimit(t *testing.T) {
	r := NewRecorder(48000, 5)
	assert.False(t, r.Write([]int16{1, 2, 3}))
	assert.True(t, r.Write([]int16{4, 5, 6, 7}))
	assert.True(t, r.Write([]int16{8}))
	assert.Equal(t, 5, r.Len())

	select {
	case <-r.Full():
	default:
		t.Fatal("Full not closed")
	}

	clip := r.Clip()
	assert.Equal(t, 48000, clip.SampleRate)
	assert.InDelta(t, audio.Int16ToFloat(5), clip.Samples[4], 1e-12)
}

func TestRecorderClipIsCopy(t *testing.T) {
	r := NewRecorder(48000, 10)
	r.Write([]int16{100})
	c := r.Clip()
	c.Samples[0] = 9
	assert.NotEqual(t, 9.0, r.Clip().Samples[0])
}

// --- record ---

func TestRecordFillsDuration(t *testing.T) {
	h := NewHandler(context.Background(), 100*time.Millisecond, nil, nil)
	src := &fakeSource{payloads: frames(20)}

	clip, err := h.record(src, fakeDecoder{}, logger.Nop())
	require.NoError(t, err)
	assert.Len(t, clip.Samples, 4800)
	assert.Equal(t, 100*time.Millisecond, clip.Duration())
	assert.Equal(t, 5, src.reads, "stops reading once full")
	assert.InDelta(t, 0.5, clip.Samples[0], 1e-9)
}

func TestRecordKeepsShortCapture(t *testing.T) {
	h := NewHandler(context.Background(), time.Second, nil, nil)
	src := &fakeSource{payloads: [][]byte{{1}, []byte("bad"), {}, {2}}}

	clip, err := h.record(src, fakeDecoder{}, logger.Nop())
	require.NoError(t, err)
	assert.Len(t, clip.Samples, 1920)
}

func TestRecordNothingIsDecodeError(t *testing.T) {
	h := NewHandler(context.Background(), time.Second, nil, nil)

	_, err := h.record(&fakeSource{}, fakeDecoder{}, logger.Nop())
	var de *audio.DecodeError
	assert.True(t, errors.As(err, &de))
}

// --- Sessions ---

func TestDeliverUpdatesSession(t *testing.T) {
	var gotID string
	h := NewHandler(context.Background(), time.Second, func(ctx context.Context, id string, clip audio.Clip) (string, error) {
		gotID = id
		return "audio_1_abcdef01.wav", nil
	}, nil)

	h.sessions.start("s1")
	s, err := h.Session("s1")
	require.NoError(t, err)
	assert.Equal(t, StateRecording, s.State)

	h.deliver("s1", audio.Clip{Samples: []float64{0}, SampleRate: 48000}, logger.Nop())
	s, err = h.Session("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", gotID)
	assert.Equal(t, StateDone, s.State)
	assert.Equal(t, "audio_1_abcdef01.wav", s.Recording)
}

func TestDeliverFailureMarksSession(t *testing.T) {
	h := NewHandler(context.Background(), time.Second, func(context.Context, string, audio.Clip) (string, error) {
		return "", errors.New("disk full")
	}, nil)

	h.sessions.start("s2")
	h.deliver("s2", audio.Clip{Samples: []float64{0}, SampleRate: 48000}, logger.Nop())

	s, err := h.Session("s2")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, s.State)
	assert.Equal(t, "disk full", s.Err)
}

func TestSessionNotFound(t *testing.T) {
	h := NewHandler(context.Background(), time.Second, nil, nil)
	_, err := h.Session("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionsPruneFinished(t *testing.T) {
	s := newSessions(time.Hour)
	base := time.Now()
	s.now = func() time.Time { return base }
	s.start("old-done")
	s.start("old-recording")
	s.finish("old-done", "x.wav", nil)

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	s.start("new")

	_, err := s.get("old-done")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.get("old-recording")
	assert.NoError(t, err)
}

// --- HTTP ---

func TestServeHTTPRejectsBadRequests(t *testing.T) {
	h := NewHandler(context.Background(), time.Second, nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/offer", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/offer", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/offer", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
