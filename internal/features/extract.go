package features

import "fmt"

// Extract computes the feature vector of a mono waveform with DefaultConfig.
func Extract(samples []float64, sampleRate int) (Vector, error) {
	return DefaultConfig().Extract(samples, sampleRate)
}

// Extract computes the feature vector of a mono waveform. The result is
// validated before it is returned: a non-finite field yields an
// *InvalidFeatureError and no vector.
func (c Config) Extract(samples []float64, sampleRate int) (Vector, error) {
	if len(samples) == 0 {
		return Vector{}, ErrEmptyInput
	}
	if sampleRate <= 0 {
		return Vector{}, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	spec := stft(samples, sampleRate, c.FFTSize, c.HopSize)
	melDB := melPowerDB(spec, c.NumMels, c.TopDB)
	onset := onsetStrength(melDB, c.FFTSize, c.HopSize)
	centroid, rolloff, bandwidth := spectralShape(spec, c.RolloffPercent)
	low, mid, high := bandEnergies(spec, c.TopDB)

	v := Vector{
		Energy:                rmsMean(samples, c.FFTSize, c.HopSize),
		Tempo:                 estimateTempo(onset, sampleRate, c.HopSize, c),
		SpectralCentroidMean:  centroid,
		SpectralRolloffMean:   rolloff,
		MFCCMean:              mfccMean(melDB, c.NumMFCC),
		RhythmRegularity:      rhythmRegularity(onset, sampleRate, c.HopSize, c),
		HarmonicsRatio:        harmonicsRatio(spec, c.HPSSKernel, c.HPSSPower),
		DynamicRange:          dynamicRange(samples),
		ZeroCrossingRate:      zeroCrossingRate(samples),
		SpectralBandwidthMean: bandwidth,
		LowBandEnergy:         low,
		MidBandEnergy:         mid,
		HighBandEnergy:        high,
	}
	if err := v.Validate(); err != nil {
		return Vector{}, err
	}
	return v, nil
}
