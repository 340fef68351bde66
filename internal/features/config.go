package features

// Config controls frame sizes and the constants of each feature estimator.
// The defaults follow the conventions of common music-information-retrieval
// toolkits so thresholds tuned against them carry over.
type Config struct {
	FFTSize int // analysis window and FFT length in samples
	HopSize int // samples between successive frames

	NumMels        int     // mel bands for MFCC and onset strength
	NumMFCC        int     // cepstral coefficients kept
	RolloffPercent float64 // energy fraction for spectral rolloff
	TopDB          float64 // dynamic range floor for dB conversions

	HPSSKernel int     // median filter length for harmonic/percussive separation
	HPSSPower  float64 // soft mask exponent

	StartBPM        float64 // tempo prior centre, also the fallback for silent clips
	TempoStdOctaves float64 // tempo prior width in octaves
	MaxTempo        float64 // tempo ceiling in BPM

	PulseWindow   int     // onset frames per Fourier tempogram window
	PulseTempoMin float64 // lowest tempo kept in the pulse curve
	PulseTempoMax float64 // highest tempo kept in the pulse curve
}

// DefaultConfig returns the analysis parameters used for every clip.
func DefaultConfig() Config {
	return Config{
		FFTSize:         2048,
		HopSize:         512,
		NumMels:         128,
		NumMFCC:         20,
		RolloffPercent:  0.85,
		TopDB:           80,
		HPSSKernel:      31,
		HPSSPower:       2,
		StartBPM:        120,
		TempoStdOctaves: 1,
		MaxTempo:        320,
		PulseWindow:     384,
		PulseTempoMin:   30,
		PulseTempoMax:   300,
	}
}
