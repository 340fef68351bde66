package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV writes the clip as a 16-bit mono PCM WAV file.
func EncodeWAV(w io.WriteSeeker, c Clip) error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("encode wav: invalid sample rate %d", c.SampleRate)
	}

	enc := wav.NewEncoder(w, c.SampleRate, BitDepth, 1, 1)
	data := make([]int, len(c.Samples))
	for i, v := range c.Samples {
		data[i] = int(FloatToInt16(v))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode wav: close: %w", err)
	}
	return nil
}
