package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ErrNoSamples is reported when a file decodes cleanly but holds no audio.
var ErrNoSamples = errors.New("no samples")

// DecodeError reports a waveform that could not be read. It is fatal: no
// feature extraction is attempted on a clip that failed to decode.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode audio: %v", e.Err)
	}
	return fmt.Sprintf("decode audio %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeFile loads an audio file as a mono clip. WAV and MP3 are decoded
// in-process; any other container goes through FFmpeg.
func DecodeFile(path string) (Clip, error) {
	var (
		clip Clip
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		clip, err = decodeWAVFile(path)
	case ".mp3":
		clip, err = decodeMP3File(path)
	default:
		clip, err = decodeFFmpeg(path, AnalysisSampleRate)
	}
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			if de.Path == "" {
				de.Path = path
			}
			return Clip{}, de
		}
		return Clip{}, &DecodeError{Path: path, Err: err}
	}
	return clip, nil
}

func decodeWAVFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()

	clip, err := DecodeWAV(f)
	if errors.Is(err, errUnsupportedWAV) {
		// Float and compressed WAV variants are left to FFmpeg.
		return decodeFFmpeg(path, AnalysisSampleRate)
	}
	return clip, err
}

func decodeMP3File(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()
	return DecodeMP3(f)
}

var errUnsupportedWAV = errors.New("unsupported wav encoding")

// DecodeWAV reads an integer PCM WAV stream and mixes it down to mono.
func DecodeWAV(r io.ReadSeeker) (Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return Clip{}, &DecodeError{Err: errors.New("not a valid wav file")}
	}
	if d.WavAudioFormat != 1 {
		return Clip{}, &DecodeError{Err: fmt.Errorf("%w: format %d", errUnsupportedWAV, d.WavAudioFormat)}
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Clip{}, &DecodeError{Err: fmt.Errorf("read pcm: %w", err)}
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return Clip{}, &DecodeError{Err: ErrNoSamples}
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	depth := int(d.BitDepth)
	if depth < 8 || depth > 32 {
		return Clip{}, &DecodeError{Err: fmt.Errorf("%w: %d-bit", errUnsupportedWAV, depth)}
	}
	scale := float64(int64(1) << (depth - 1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			v := buf.Data[i*channels+ch]
			if depth == 8 {
				v -= 128 // 8-bit WAV is unsigned
			}
			sum += float64(v) / scale
		}
		samples[i] = sum / float64(channels)
	}

	if len(samples) == 0 {
		return Clip{}, &DecodeError{Err: ErrNoSamples}
	}
	return Clip{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// DecodeMP3 decodes an MP3 stream. go-mp3 always yields 16-bit stereo.
func DecodeMP3(r io.Reader) (Clip, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return Clip{}, &DecodeError{Err: fmt.Errorf("mp3 header: %w", err)}
	}

	raw, err := io.ReadAll(d)
	if err != nil {
		return Clip{}, &DecodeError{Err: fmt.Errorf("mp3 read: %w", err)}
	}

	samples := Mixdown(bytesToInt16(raw), 2)
	if len(samples) == 0 {
		return Clip{}, &DecodeError{Err: ErrNoSamples}
	}
	return Clip{Samples: samples, SampleRate: d.SampleRate()}, nil
}

// decodeFFmpeg runs FFmpeg to decode any container to mono PCM int16.
func decodeFFmpeg(path string, rate int) (Clip, error) {
	cmd := exec.Command("ffmpeg",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Clip{}, &DecodeError{Err: fmt.Errorf("ffmpeg: %w: %s", err, msg)}
		}
		return Clip{}, &DecodeError{Err: fmt.Errorf("ffmpeg: %w", err)}
	}

	samples := Mixdown(bytesToInt16(out), 1)
	if len(samples) == 0 {
		return Clip{}, &DecodeError{Err: ErrNoSamples}
	}
	return Clip{Samples: samples, SampleRate: rate}, nil
}

// bytesToInt16 reinterprets little-endian PCM bytes. An odd trailing byte is ignored.
func bytesToInt16(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return samples
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
