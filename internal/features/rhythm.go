package features

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// onsetStrength is the mean positive first difference of the mel dB
// spectrogram, delayed by half an analysis window so each value lines up
// with the centre of the frame that produced it.
func onsetStrength(melDB [][]float64, fftSize, hop int) []float64 {
	n := len(melDB)
	env := make([]float64, n)
	delay := 1 + fftSize/(2*hop)
	for t := 1; t < n; t++ {
		var sum float64
		for m, v := range melDB[t] {
			if d := v - melDB[t-1][m]; d > 0 {
				sum += d
			}
		}
		if idx := t - 1 + delay; idx < n {
			env[idx] = sum / float64(len(melDB[t]))
		}
	}
	return env
}

// framesPerMinute converts onset frame lags to BPM.
func framesPerMinute(sampleRate, hop int) float64 {
	return 60 * float64(sampleRate) / float64(hop)
}

// estimateTempo picks the autocorrelation lag of the onset envelope that
// maximises log-compressed correlation plus a log-normal tempo prior.
// Envelopes without any onset energy return cfg.StartBPM.
func estimateTempo(onset []float64, sampleRate, hop int, cfg Config) float64 {
	if len(onset) < 2 || floats.Max(onset) <= 0 {
		return cfg.StartBPM
	}

	maxLag := cfg.PulseWindow
	if maxLag > len(onset) {
		maxLag = len(onset)
	}
	ac := make([]float64, maxLag)
	for lag := range ac {
		ac[lag] = floats.Dot(onset[:len(onset)-lag], onset[lag:])
	}
	if ac[0] <= 0 {
		return cfg.StartBPM
	}
	floats.Scale(1/ac[0], ac)

	fpm := framesPerMinute(sampleRate, hop)
	best, bestScore := 0.0, math.Inf(-1)
	for lag := 1; lag < maxLag; lag++ {
		bpm := fpm / float64(lag)
		if bpm > cfg.MaxTempo {
			continue
		}
		z := (math.Log2(bpm) - math.Log2(cfg.StartBPM)) / cfg.TempoStdOctaves
		score := math.Log1p(1e6*math.Max(ac[lag], 0)) - 0.5*z*z
		if score > bestScore {
			best, bestScore = bpm, score
		}
	}
	if best <= 0 {
		return cfg.StartBPM
	}
	return best
}

// rhythmRegularity returns the population standard deviation of the
// predominant local pulse curve.
func rhythmRegularity(onset []float64, sampleRate, hop int, cfg Config) float64 {
	pulse := pulseCurve(onset, sampleRate, hop, cfg)
	if len(pulse) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(pulse, nil)
	return std
}

// pulseCurve estimates the predominant local pulse: for every onset frame the
// strongest tempo inside [PulseTempoMin, PulseTempoMax] of a windowed Fourier
// tempogram is kept as a unit-magnitude sinusoid, the sinusoids are
// overlap-added, half-wave rectified and peak-normalised into [0, 1].
func pulseCurve(onset []float64, sampleRate, hop int, cfg Config) []float64 {
	n := len(onset)
	win := cfg.PulseWindow
	if n == 0 || win < 2 {
		return nil
	}

	fft := fourier.NewFFT(win)
	window := hann(win)
	bpmPerBin := framesPerMinute(sampleRate, hop) / float64(win)
	loBin := int(math.Ceil(cfg.PulseTempoMin / bpmPerBin))
	hiBin := int(math.Floor(cfg.PulseTempoMax / bpmPerBin))
	if loBin < 1 {
		loBin = 1
	}
	if hiBin > win/2-1 {
		hiBin = win/2 - 1
	}

	pulse := make([]float64, n)
	wsum := make([]float64, n)
	seg := make([]float64, win)
	coeffs := make([]complex128, win/2+1)
	half := win / 2

	for t := 0; t < n; t++ {
		centredFrame(seg, onset, t, 1)
		for i := range seg {
			seg[i] *= window[i]
		}
		coeffs = fft.Coefficients(coeffs, seg)

		peak, peakMag := -1, 0.0
		for k := loBin; k <= hiBin; k++ {
			if m := cmplx.Abs(coeffs[k]); m > peakMag {
				peak, peakMag = k, m
			}
		}

		phase := 0.0
		if peak >= 0 {
			phase = cmplx.Phase(coeffs[peak])
		}
		for i := 0; i < win; i++ {
			j := t - half + i
			if j < 0 || j >= n {
				continue
			}
			w := window[i]
			wsum[j] += w * w
			if peak < 0 {
				continue
			}
			// inverse real FFT of a single unit-magnitude bin
			x := 2 / float64(win) * math.Cos(2*math.Pi*float64(peak)*float64(i)/float64(win)+phase)
			pulse[j] += w * x
		}
	}

	for j := range pulse {
		if wsum[j] > 1e-12 {
			pulse[j] /= wsum[j]
		}
		if pulse[j] < 0 {
			pulse[j] = 0
		}
	}
	if top := floats.Max(pulse); top > 0 {
		floats.Scale(1/top, pulse)
	}
	return pulse
}
