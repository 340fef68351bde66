package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// rmsMean is the mean of per-frame RMS over centred frames of y.
func rmsMean(y []float64, frameSize, hop int) float64 {
	n := frameCount(len(y), hop)
	frame := make([]float64, frameSize)
	rms := make([]float64, n)
	for t := 0; t < n; t++ {
		centredFrame(frame, y, t, hop)
		rms[t] = math.Sqrt(floats.Dot(frame, frame) / float64(frameSize))
	}
	return stat.Mean(rms, nil)
}

// spectralShape returns the mean centroid, rolloff and bandwidth across frames.
// Silent frames contribute zero to each.
func spectralShape(s spectrogram, rollPercent float64) (centroid, rolloff, bandwidth float64) {
	n := s.frames()
	if n == 0 {
		return 0, 0, 0
	}
	freqs := make([]float64, s.bins())
	for k := range freqs {
		freqs[k] = s.binFrequency(k)
	}

	cs := make([]float64, n)
	rs := make([]float64, n)
	bs := make([]float64, n)
	for t, row := range s.mag {
		total := floats.Sum(row)

		threshold := rollPercent * total
		var cum float64
		for k, m := range row {
			cum += m
			if cum >= threshold {
				rs[t] = freqs[k]
				break
			}
		}

		if total <= 0 {
			continue
		}
		c := floats.Dot(freqs, row) / total
		cs[t] = c

		var spread float64
		for k, m := range row {
			d := freqs[k] - c
			spread += (m / total) * d * d
		}
		bs[t] = math.Sqrt(spread)
	}
	return stat.Mean(cs, nil), stat.Mean(rs, nil), stat.Mean(bs, nil)
}

// zeroCrossingRate is the fraction of adjacent sample pairs whose signs differ.
// Zero counts as positive.
func zeroCrossingRate(y []float64) float64 {
	if len(y) < 2 {
		return 0
	}
	var crossings int
	for i := 1; i < len(y); i++ {
		if (y[i] < 0) != (y[i-1] < 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(y)-1)
}

// dynamicRange is max(|y|) - min(|y|).
func dynamicRange(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	lo, hi := math.Inf(1), 0.0
	for _, v := range y {
		a := math.Abs(v)
		lo = math.Min(lo, a)
		hi = math.Max(hi, a)
	}
	return hi - lo
}

const amplitudeAmin = 1e-5

// bandEnergies converts the magnitude spectrogram to dB relative to its own
// peak (floored topDB below) and averages the bottom, middle and top thirds
// of the frequency bins over all frames.
func bandEnergies(s spectrogram, topDB float64) (low, mid, high float64) {
	var peak float64
	for _, row := range s.mag {
		peak = math.Max(peak, floats.Max(row))
	}
	ref := math.Max(amplitudeAmin*amplitudeAmin, peak*peak)

	bins := s.bins()
	cut1, cut2 := bins/3, 2*bins/3
	var sums [3]float64
	counts := [3]int{cut1, cut2 - cut1, bins - cut2}

	floor := math.Inf(-1)
	if topDB > 0 {
		// max of the dB map is 0 unless the whole clip is below amin
		floor = powerToDBAmp(peak, ref) - topDB
	}
	for _, row := range s.mag {
		for k, m := range row {
			db := math.Max(powerToDBAmp(m, ref), floor)
			switch {
			case k < cut1:
				sums[0] += db
			case k < cut2:
				sums[1] += db
			default:
				sums[2] += db
			}
		}
	}

	frames := float64(s.frames())
	mean := func(i int) float64 {
		if counts[i] == 0 || frames == 0 {
			return 0
		}
		return sums[i] / (float64(counts[i]) * frames)
	}
	return mean(0), mean(1), mean(2)
}

// powerToDBAmp converts a magnitude to dB against a power reference.
func powerToDBAmp(m, refPower float64) float64 {
	return 10*math.Log10(math.Max(amplitudeAmin*amplitudeAmin, m*m)) - 10*math.Log10(refPower)
}
