// Package capture records a short clip from the browser microphone over
// WebRTC.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"gopkg.in/hraban/opus.v2"

	"github.com/satindergrewal/voiceart/internal/audio"
	"github.com/satindergrewal/voiceart/internal/logger"
)

// maxFrameSamples fits the longest Opus frame (120 ms) at 48 kHz.
const maxFrameSamples = 5760

// stallGrace is how long past the capture duration a silent peer is kept
// before the capture is cut short.
const stallGrace = 5 * time.Second

var errPeerLost = errors.New("peer connection lost before audio arrived")

// OnClipFunc receives a finished capture and returns the stored recording
// name.
type OnClipFunc func(ctx context.Context, sessionID string, clip audio.Clip) (string, error)

// payloadReader yields successive RTP payloads.
type payloadReader interface {
	ReadPayload() ([]byte, error)
}

// frameDecoder turns one Opus payload into PCM and returns samples decoded.
type frameDecoder interface {
	Decode(data []byte, pcm []int16) (int, error)
}

// Handler serves WebRTC SDP negotiation for microphone capture.
type Handler struct {
	duration time.Duration
	onClip   OnClipFunc
	log      *logger.Logger
	sessions *sessions

	ctx context.Context
}

// NewHandler creates a capture handler. ctx bounds every capture started by
// the handler.
func NewHandler(ctx context.Context, duration time.Duration, onClip OnClipFunc, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		duration: duration,
		onClip:   onClip,
		log:      log,
		sessions: newSessions(time.Hour),
		ctx:      ctx,
	}
}

// Session returns a snapshot of the capture with the given id.
func (h *Handler) Session(id string) (Session, error) {
	return h.sessions.get(id)
}

type offerResponse struct {
	SessionID string                     `json:"session_id"`
	Answer    *webrtc.SessionDescription `json:"answer"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		pc.Close()
		http.Error(w, "add transceiver failed", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	log := h.log.With("session_id", id)
	h.sessions.start(id)
	fail := func(msg string, code int) {
		h.sessions.drop(id)
		pc.Close()
		http.Error(w, msg, code)
	}

	var started atomic.Bool
	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeAudio || started.Swap(true) {
			return
		}
		log.Info("capture started", "codec", track.Codec().MimeType)
		go h.capture(id, pc, trackReader{track}, log)
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		if s == webrtc.PeerConnectionStateFailed || s == webrtc.PeerConnectionStateDisconnected {
			log.Warn("capture peer lost", "state", s.String())
			if !started.Load() {
				h.sessions.finish(id, "", errPeerLost)
			}
			pc.Close()
		}
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		fail("set remote description failed", http.StatusBadRequest)
		return
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		fail("create answer failed", http.StatusInternalServerError)
		return
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		fail("set local description failed", http.StatusInternalServerError)
		return
	}
	<-gatherComplete

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(offerResponse{SessionID: id, Answer: pc.LocalDescription()})
}

// capture decodes the incoming track into a clip, then hands it to onClip.
func (h *Handler) capture(id string, pc *webrtc.PeerConnection, src payloadReader, log *logger.Logger) {
	defer pc.Close()

	dec, err := opus.NewDecoder(audio.CaptureSampleRate, 1)
	if err != nil {
		h.sessions.finish(id, "", fmt.Errorf("opus decoder: %w", err))
		return
	}

	// Closing the peer unblocks ReadRTP when the browser stops sending.
	stall := time.AfterFunc(h.duration+stallGrace, func() { pc.Close() })
	defer stall.Stop()

	clip, err := h.record(src, dec, log)
	if err != nil {
		log.Error("capture failed", "error", err)
		h.sessions.finish(id, "", err)
		return
	}
	h.deliver(id, clip, log)
}

func (h *Handler) deliver(id string, clip audio.Clip, log *logger.Logger) {
	name, err := h.onClip(h.ctx, id, clip)
	if err != nil {
		log.Error("store capture failed", "error", err)
		h.sessions.finish(id, "", err)
		return
	}
	log.Info("capture stored", "recording", name, "duration", clip.Duration().String())
	h.sessions.finish(id, name, nil)
}

// record reads payloads until the capture duration is filled or the source
// ends. A source that ends early still yields whatever was captured.
func (h *Handler) record(src payloadReader, dec frameDecoder, log *logger.Logger) (audio.Clip, error) {
	limit := int(h.duration * audio.CaptureSampleRate / time.Second)
	rec := NewRecorder(audio.CaptureSampleRate, limit)
	pcm := make([]int16, maxFrameSamples)

	for {
		payload, err := src.ReadPayload()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				log.Debug("capture source ended", "error", err)
			}
			break
		}
		if len(payload) == 0 {
			continue
		}
		n, err := dec.Decode(payload, pcm)
		if err != nil {
			log.Debug("opus decode error", "error", err)
			continue
		}
		if rec.Write(pcm[:n]) {
			break
		}
	}

	if rec.Len() == 0 {
		return audio.Clip{}, &audio.DecodeError{Err: audio.ErrNoSamples}
	}
	return rec.Clip(), nil
}

type trackReader struct {
	track *webrtc.TrackRemote
}

func (r trackReader) ReadPayload() ([]byte, error) {
	pkt, _, err := r.track.ReadRTP()
	if err != nil {
		return nil, err
	}
	return pkt.Payload, nil
}
