package descriptor

import (
	"fmt"

	"github.com/satindergrewal/voiceart/internal/features"
)

// Classify derives the descriptor set for a feature vector. It fails only
// when the vector carries a non-finite value.
func Classify(v features.Vector) (Set, error) {
	if err := v.Validate(); err != nil {
		return Set{}, fmt.Errorf("classify: %w", err)
	}
	return Set{
		Style:       classifyStyle(v.HarmonicsRatio),
		PatternMode: classifyPattern(v.RhythmRegularity),
		ColorBase:   classifyColor(v.MFCCMean, v.SpectralBandwidthMean),
		Temperature: classifyTemperature(v.Energy),
		Composition: classifyComposition(v.Tempo, v.DynamicRange),
		DetailLevel: classifyDetail(v.SpectralRolloffMean),
		EdgeStyle:   classifyEdge(v.ZeroCrossingRate),
		Bands: Bands{
			Low:  v.LowBandEnergy > BandPresenceThreshold,
			Mid:  v.MidBandEnergy > BandPresenceThreshold,
			High: v.HighBandEnergy > BandPresenceThreshold,
		},
		Medium: classifyMedium(v.Energy, v.Tempo, v.HarmonicsRatio),
	}, nil
}

func classifyStyle(harmonics float64) Style {
	switch {
	case harmonics > OrganicHarmonicsThreshold:
		return Organic
	case harmonics < GeometricHarmonicsThreshold:
		return Geometric
	default:
		return Balanced
	}
}

func classifyPattern(regularity float64) PatternMode {
	if regularity > RepeatingRhythmThreshold {
		return Repeating
	}
	return Spontaneous
}

func classifyColor(mfcc, bandwidth float64) ColorBase {
	wide := bandwidth > WideBandwidthThreshold
	if mfcc > BrightMFCCThreshold {
		if wide {
			return VibrantComplementary
		}
		return HarmoniousAnalogous
	}
	if wide {
		return ContrastingMonochromatic
	}
	return SubtleEarth
}

func classifyTemperature(energy float64) Temperature {
	if energy > WarmEnergyThreshold {
		return Warm
	}
	return Cool
}

// classifyComposition crosses the tempo tier with the dynamic range tier.
func classifyComposition(tempo, dynamicRange float64) Composition {
	high := dynamicRange > HighDynamicRangeThreshold
	switch {
	case tempo > FastTempoThreshold:
		if high {
			return SpiralDynamic
		}
		return RadiatingCircular
	case tempo > MediumTempoThreshold:
		if high {
			return DiagonalFlowing
		}
		return GentleCurved
	default:
		if high {
			return HorizontalLayered
		}
		return MinimalFloating
	}
}

func classifyDetail(rolloff float64) DetailLevel {
	if rolloff > IntricateRolloffThreshold {
		return Intricate
	}
	return Subtle
}

func classifyEdge(zcr float64) EdgeStyle {
	if zcr > SharpZeroCrossingThreshold {
		return Sharp
	}
	return Smooth
}

// classifyMedium checks its rules in order; the first match wins.
func classifyMedium(energy, tempo, harmonics float64) Medium {
	switch {
	case energy > OilEnergyThreshold && tempo > OilTempoThreshold:
		return OilPainting
	case harmonics > WatercolorHarmonicsThreshold:
		return Watercolor
	default:
		return DigitalArt
	}
}
