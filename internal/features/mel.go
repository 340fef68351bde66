package features

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp     = 200.0 / 3
	melMinLog  = 1000.0
	melLogStep = 0.06875177742094912 // ln(6.4) / 27

	melMinLogMel = melMinLog / melFSp
)

func hzToMel(f float64) float64 {
	if f < melMinLog {
		return f / melFSp
	}
	return melMinLogMel + math.Log(f/melMinLog)/melLogStep
}

func melToHz(m float64) float64 {
	if m < melMinLogMel {
		return m * melFSp
	}
	return melMinLog * math.Exp(melLogStep*(m-melMinLogMel))
}

// melFilterbank builds area-normalised triangular filters over [0, sr/2],
// returned as weights[mel][bin].
func melFilterbank(numMels, fftSize, sampleRate int) [][]float64 {
	bins := fftSize/2 + 1
	maxMel := hzToMel(float64(sampleRate) / 2)

	centres := make([]float64, numMels+2)
	for i := range centres {
		centres[i] = melToHz(maxMel * float64(i) / float64(numMels+1))
	}

	weights := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		lo, mid, hi := centres[m], centres[m+1], centres[m+2]
		norm := 2 / (hi - lo)
		row := make([]float64, bins)
		for k := 0; k < bins; k++ {
			f := float64(k) * float64(sampleRate) / float64(fftSize)
			rising := (f - lo) / (mid - lo)
			falling := (hi - f) / (hi - mid)
			w := math.Min(rising, falling)
			if w > 0 {
				row[k] = w * norm
			}
		}
		weights[m] = row
	}
	return weights
}

// melPowerDB projects the power spectrum onto the mel bank and converts it to
// dB (reference 1.0, floor TopDB below the global maximum). Result is
// [frame][mel].
func melPowerDB(s spectrogram, numMels int, topDB float64) [][]float64 {
	bank := melFilterbank(numMels, s.fftSize, s.sampleRate)
	out := make([][]float64, s.frames())
	peak := math.Inf(-1)
	for t, row := range s.mag {
		db := make([]float64, numMels)
		for m, w := range bank {
			var e float64
			for k, mag := range row {
				if w[k] != 0 {
					e += w[k] * mag * mag
				}
			}
			db[m] = powerToDB(e, 1)
			if db[m] > peak {
				peak = db[m]
			}
		}
		out[t] = db
	}
	floor := peak - topDB
	for _, db := range out {
		for m := range db {
			if db[m] < floor {
				db[m] = floor
			}
		}
	}
	return out
}

const powerAmin = 1e-10

// powerToDB converts a power value to dB relative to ref, clamping both at 1e-10.
func powerToDB(p, ref float64) float64 {
	return 10*math.Log10(math.Max(powerAmin, p)) - 10*math.Log10(math.Max(powerAmin, ref))
}

// dct2 is the orthonormal DCT-II of x, truncated to n coefficients.
func dct2(x []float64, n int) []float64 {
	size := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(size)))
		}
		if k == 0 {
			sum *= math.Sqrt(1 / float64(size))
		} else {
			sum *= math.Sqrt(2 / float64(size))
		}
		out[k] = sum
	}
	return out
}

// mfccMean averages every cepstral coefficient of every frame.
func mfccMean(melDB [][]float64, numMFCC int) float64 {
	if len(melDB) == 0 {
		return 0
	}
	var sum float64
	var count int
	for _, frame := range melDB {
		for _, c := range dct2(frame, numMFCC) {
			sum += c
			count++
		}
	}
	return sum / float64(count)
}
