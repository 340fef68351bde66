package prompt

import "github.com/satindergrewal/voiceart/internal/descriptor"

// Fragments carry their own trailing separators; Compose concatenates them
// without inserting anything between adjacent fragments.

var stylePhrases = map[descriptor.Style]string{
	descriptor.Organic:   "flowing, organic, ",
	descriptor.Geometric: "geometric, structured, ",
	descriptor.Balanced:  "balanced mix of organic and geometric shapes, ",
}

var patternPhrases = map[descriptor.PatternMode]string{
	descriptor.Repeating:   "with repeating patterns ",
	descriptor.Spontaneous: "with spontaneous elements ",
}

var colorPhrases = map[descriptor.ColorBase]string{
	descriptor.VibrantComplementary:     "vibrant complementary colors with ",
	descriptor.HarmoniousAnalogous:      "harmonious analogous colors with ",
	descriptor.ContrastingMonochromatic: "contrasting monochromatic scheme with ",
	descriptor.SubtleEarth:              "subtle earth tones with ",
}

var temperaturePhrases = map[descriptor.Temperature]string{
	descriptor.Warm: "warm undertones, ",
	descriptor.Cool: "cool undertones, ",
}

var compositionPhrases = map[descriptor.Composition]string{
	descriptor.SpiralDynamic:     "dynamic spiral composition",
	descriptor.RadiatingCircular: "radiating circular patterns",
	descriptor.DiagonalFlowing:   "diagonal flowing movements",
	descriptor.GentleCurved:      "gentle curved forms",
	descriptor.HorizontalLayered: "horizontal layered structure",
	descriptor.MinimalFloating:   "minimal floating elements",
}

var detailPhrases = map[descriptor.DetailLevel]string{
	descriptor.Intricate: "with intricate details in the foreground ",
	descriptor.Subtle:    "with subtle textures in the background ",
}

var edgePhrases = map[descriptor.EdgeStyle]string{
	descriptor.Sharp:  "and sharp accents ",
	descriptor.Smooth: "and smooth transitions ",
}

const (
	lowBandPhrase  = "featuring deep, grounding elements "
	midBandPhrase  = "with mid-range flowing movements "
	highBandPhrase = "and crystalline highlights "
)

var mediumPhrases = map[descriptor.Medium]string{
	descriptor.OilPainting: "an expressive oil painting style",
	descriptor.Watercolor:  "a watercolor style with flowing pigments",
	descriptor.DigitalArt:  "a detailed digital art style",
}
