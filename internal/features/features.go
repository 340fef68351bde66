// Package features computes the fixed acoustic feature vector that drives
// prompt classification. Extraction is a pure function of the input buffer
// and is safe for concurrent use.
package features

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyInput        = errors.New("waveform has no samples")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// Vector is the per-clip feature summary. Frequencies are in Hz, band
// energies in dB relative to the clip's spectral peak.
type Vector struct {
	Energy                float64 `json:"energy"`
	Tempo                 float64 `json:"tempo"`
	SpectralCentroidMean  float64 `json:"spectral_centroid_mean"`
	SpectralRolloffMean   float64 `json:"spectral_rolloff_mean"`
	MFCCMean              float64 `json:"mfcc_mean"`
	RhythmRegularity      float64 `json:"rhythm_regularity"`
	HarmonicsRatio        float64 `json:"harmonics_ratio"`
	DynamicRange          float64 `json:"dynamic_range"`
	ZeroCrossingRate      float64 `json:"zero_crossing_rate"`
	SpectralBandwidthMean float64 `json:"spectral_bandwidth_mean"`
	LowBandEnergy         float64 `json:"low_band_energy"`
	MidBandEnergy         float64 `json:"mid_band_energy"`
	HighBandEnergy        float64 `json:"high_band_energy"`
}

// InvalidFeatureError reports a feature that came out NaN or infinite.
type InvalidFeatureError struct {
	Field string
	Value float64
}

func (e *InvalidFeatureError) Error() string {
	return fmt.Sprintf("invalid feature %s: %v", e.Field, e.Value)
}

// Validate returns an *InvalidFeatureError for the first non-finite field.
func (v Vector) Validate() error {
	for _, f := range v.fields() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &InvalidFeatureError{Field: f.name, Value: f.value}
		}
	}
	return nil
}

type namedValue struct {
	name  string
	value float64
}

func (v Vector) fields() []namedValue {
	return []namedValue{
		{"energy", v.Energy},
		{"tempo", v.Tempo},
		{"spectral_centroid_mean", v.SpectralCentroidMean},
		{"spectral_rolloff_mean", v.SpectralRolloffMean},
		{"mfcc_mean", v.MFCCMean},
		{"rhythm_regularity", v.RhythmRegularity},
		{"harmonics_ratio", v.HarmonicsRatio},
		{"dynamic_range", v.DynamicRange},
		{"zero_crossing_rate", v.ZeroCrossingRate},
		{"spectral_bandwidth_mean", v.SpectralBandwidthMean},
		{"low_band_energy", v.LowBandEnergy},
		{"mid_band_energy", v.MidBandEnergy},
		{"high_band_energy", v.HighBandEnergy},
	}
}
