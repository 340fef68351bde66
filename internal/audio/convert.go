package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// Int16ToFloat scales a signed 16-bit sample into [-1, 1).
func Int16ToFloat(s int16) float64 {
	return float64(s) / 32768.0
}

// FloatToInt16 clips a float sample to [-1, 1] and scales it to int16.
func FloatToInt16(v float64) int16 {
	scaled := math.Round(v * 32767)
	if scaled > 32767 {
		scaled = 32767
	} else if scaled < -32768 {
		scaled = -32768
	}
	return int16(scaled)
}

// Mixdown averages interleaved multi-channel int16 samples into mono floats.
// A trailing partial frame is dropped.
func Mixdown(interleaved []int16, channels int) []float64 {
	if channels < 1 {
		channels = 1
	}
	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += Int16ToFloat(interleaved[i*channels+ch])
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// Anti-alias filter parameters for downsampling. The passband edge sits at
// 90% of the target Nyquist so the Blackman transition band ends below it.
const (
	lowPassTaps   = 129
	lowPassCutoff = 0.9
)

// Resample converts the clip to the target rate. When the rate drops, the
// signal is low-passed at the new Nyquist before linear interpolation so
// content above it does not fold back into the band.
// Returns the clip unchanged when the rates already match.
func Resample(c Clip, rate int) Clip {
	if rate <= 0 || c.SampleRate <= 0 || c.SampleRate == rate || len(c.Samples) == 0 {
		return c
	}

	src := c.Samples
	if rate < c.SampleRate {
		src = lowPass(src, lowPassCutoff*0.5*float64(rate)/float64(c.SampleRate))
	}

	ratio := float64(c.SampleRate) / float64(rate)
	n := int(math.Ceil(float64(len(src)) / ratio))
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	last := len(src) - 1
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = src[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = src[idx]*(1-frac) + src[idx+1]*frac
	}
	return Clip{Samples: out, SampleRate: rate}
}

// lowPass filters x with a Blackman-windowed sinc whose cutoff is given in
// cycles per sample. The output is aligned with the input; samples beyond
// either end count as zero.
func lowPass(x []float64, cutoff float64) []float64 {
	if len(x) < 2 {
		return x
	}
	h := lowPassKernel(lowPassTaps, cutoff)
	half := len(h) / 2
	out := make([]float64, len(x))
	for i := range out {
		var acc float64
		for k, w := range h {
			j := i + half - k
			if j < 0 || j >= len(x) {
				continue
			}
			acc += w * x[j]
		}
		out[i] = acc
	}
	return out
}

// lowPassKernel builds a unity-gain symmetric FIR of the given odd length.
func lowPassKernel(taps int, cutoff float64) []float64 {
	h := make([]float64, taps)
	mid := float64(taps-1) / 2
	for i := range h {
		t := float64(i) - mid
		if t == 0 {
			h[i] = 2 * cutoff
			continue
		}
		h[i] = math.Sin(2*math.Pi*cutoff*t) / (math.Pi * t)
	}
	window.Blackman(h)
	floats.Scale(1/floats.Sum(h), h)
	return h
}
