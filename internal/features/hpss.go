package features

import (
	"math"
	"sort"
)

// harmonicEpsilon keeps the harmonics ratio finite on silent or purely
// percussive input.
const harmonicEpsilon = 1e-10

// harmonicsRatio separates the magnitude spectrogram into harmonic and
// percussive parts with median filters across time and frequency, applies
// soft masks and returns mean harmonic energy over mean percussive energy.
func harmonicsRatio(s spectrogram, kernel int, power float64) float64 {
	frames, bins := s.frames(), s.bins()
	if frames == 0 {
		return 0
	}

	harm := make([][]float64, frames)
	perc := make([][]float64, frames)
	for t := range harm {
		harm[t] = make([]float64, bins)
		perc[t] = make([]float64, bins)
	}

	scratch := make([]float64, kernel)
	line := make([]float64, frames)
	for k := 0; k < bins; k++ {
		for t := 0; t < frames; t++ {
			line[t] = s.mag[t][k]
		}
		for t := 0; t < frames; t++ {
			harm[t][k] = medianAt(line, t, kernel, scratch)
		}
	}
	for t := 0; t < frames; t++ {
		for k := 0; k < bins; k++ {
			perc[t][k] = medianAt(s.mag[t], k, kernel, scratch)
		}
	}

	var harmE, percE float64
	for t := 0; t < frames; t++ {
		for k := 0; k < bins; k++ {
			mh, mp := softMasks(harm[t][k], perc[t][k], power)
			m := s.mag[t][k]
			h, p := m*mh, m*mp
			harmE += h * h
			percE += p * p
		}
	}
	cells := float64(frames * bins)
	return (harmE / cells) / (percE/cells + harmonicEpsilon)
}

// softMasks returns the Wiener-style masks X^p/(X^p+Y^p) for both inputs.
// When both are (near) zero both masks are zero.
func softMasks(x, y, power float64) (mx, my float64) {
	z := math.Max(x, y)
	if z < 1e-30 {
		return 0, 0
	}
	px := math.Pow(x/z, power)
	py := math.Pow(y/z, power)
	sum := px + py
	return px / sum, py / sum
}

// medianAt is the median of the kernel-length window of x centred on i,
// extending x by half-sample symmetric reflection at both ends.
func medianAt(x []float64, i, kernel int, scratch []float64) float64 {
	half := kernel / 2
	for j := 0; j < kernel; j++ {
		scratch[j] = x[reflectIndex(i-half+j, len(x))]
	}
	sort.Float64s(scratch[:kernel])
	return scratch[half]
}

// reflectIndex maps any integer onto [0, n) by mirroring (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
