package capture

import (
	"sync"

	"github.com/satindergrewal/voiceart/internal/audio"
)

// Recorder accumulates decoded PCM until it holds limit samples.
type Recorder struct {
	mu      sync.Mutex
	samples []float64
	limit   int
	rate    int

	full chan struct{}
	once sync.Once
}

// NewRecorder creates a Recorder that fills after limit samples at rate.
func NewRecorder(rate, limit int) *Recorder {
	if limit < 1 {
		limit = 1
	}
	return &Recorder{
		samples: make([]float64, 0, limit),
		limit:   limit,
		rate:    rate,
		full:    make(chan struct{}),
	}
}

// Write appends pcm, dropping anything past the limit. It reports whether
// the recorder is full.
func (r *Recorder) Write(pcm []int16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.limit - len(r.samples)
	if room > len(pcm) {
		room = len(pcm)
	}
	for _, s := range pcm[:max(room, 0)] {
		r.samples = append(r.samples, audio.Int16ToFloat(s))
	}
	if len(r.samples) >= r.limit {
		r.once.Do(func() { close(r.full) })
		return true
	}
	return false
}

// Full is closed once the limit is reached.
func (r *Recorder) Full() <-chan struct{} {
	return r.full
}

// Len returns the number of samples held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Clip returns a copy of the accumulated audio.
func (r *Recorder) Clip() audio.Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.samples))
	copy(out, r.samples)
	return audio.Clip{Samples: out, SampleRate: r.rate}
}
