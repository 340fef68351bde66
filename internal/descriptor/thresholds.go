package descriptor

// Rule thresholds. Every comparison against these values is strict, so a
// feature sitting exactly on a threshold takes the fallback branch.
const (
	OrganicHarmonicsThreshold    = 1.5  // HarmonicsRatio above: Organic
	GeometricHarmonicsThreshold  = 0.5  // HarmonicsRatio below: Geometric
	RepeatingRhythmThreshold     = 0.5  // RhythmRegularity above: Repeating
	BrightMFCCThreshold          = 0.0  // MFCCMean above: bright palette family
	WideBandwidthThreshold       = 1000 // SpectralBandwidthMean (Hz) above: high-contrast palette
	WarmEnergyThreshold          = 0.1  // Energy above: Warm
	FastTempoThreshold           = 120  // Tempo (BPM) above: fast tier
	MediumTempoThreshold         = 80   // Tempo (BPM) above: medium tier
	HighDynamicRangeThreshold    = 0.5  // DynamicRange above: high tier
	SharpZeroCrossingThreshold   = 0.1  // ZeroCrossingRate above: Sharp
	BandPresenceThreshold        = -30  // band energy (dB) above: band present
	OilEnergyThreshold           = 0.1  // Energy above (with tempo): OilPainting
	OilTempoThreshold            = 100  // Tempo above (with energy): OilPainting
	WatercolorHarmonicsThreshold = 1.2  // HarmonicsRatio above: Watercolor

	// IntricateRolloffThreshold is compared against SpectralRolloffMean,
	// which is a frequency in Hz. Any audible clip clears it, so Subtle only
	// appears for silence. Kept as-is for output compatibility; see DESIGN.md.
	IntricateRolloffThreshold = 0.5
)
