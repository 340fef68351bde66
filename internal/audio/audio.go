package audio

import "time"

const (
	CaptureSampleRate  = 48000 // Opus/WebRTC native rate
	AnalysisSampleRate = 22050 // rate clips are resampled to before feature extraction
	CaptureDuration    = 10 * time.Second
	BitDepth           = 16
)

// Clip is a decoded mono waveform. Samples are in [-1, 1].
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Empty reports whether the clip carries no usable audio.
func (c Clip) Empty() bool {
	return len(c.Samples) == 0 || c.SampleRate <= 0
}
