package features

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// spectrogram is a frame-major magnitude STFT: mag[frame][bin].
type spectrogram struct {
	mag        [][]float64
	sampleRate int
	fftSize    int
}

func (s spectrogram) frames() int { return len(s.mag) }
func (s spectrogram) bins() int   { return s.fftSize/2 + 1 }

// binFrequency returns the centre frequency in Hz of FFT bin k.
func (s spectrogram) binFrequency(k int) float64 {
	return float64(k) * float64(s.sampleRate) / float64(s.fftSize)
}

// hann returns a periodic Hann window of length n.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// frameCount is the number of centred frames for a signal of length n.
func frameCount(n, hop int) int {
	return 1 + n/hop
}

// centredFrame copies the window of y centred on sample t*hop into dst,
// zero-filling outside the signal.
func centredFrame(dst, y []float64, t, hop int) {
	start := t*hop - len(dst)/2
	for i := range dst {
		j := start + i
		if j < 0 || j >= len(y) {
			dst[i] = 0
			continue
		}
		dst[i] = y[j]
	}
}

// stft computes the centred magnitude spectrogram of y.
func stft(y []float64, sampleRate, fftSize, hop int) spectrogram {
	fft := fourier.NewFFT(fftSize)
	window := hann(fftSize)
	n := frameCount(len(y), hop)

	frame := make([]float64, fftSize)
	coeffs := make([]complex128, fftSize/2+1)
	mag := make([][]float64, n)
	for t := 0; t < n; t++ {
		centredFrame(frame, y, t, hop)
		for i := range frame {
			frame[i] *= window[i]
		}
		coeffs = fft.Coefficients(coeffs, frame)
		row := make([]float64, len(coeffs))
		for k, c := range coeffs {
			row[k] = cmplx.Abs(c)
		}
		mag[t] = row
	}
	return spectrogram{mag: mag, sampleRate: sampleRate, fftSize: fftSize}
}
