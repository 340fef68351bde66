// Package descriptor maps a feature vector onto categorical artistic
// descriptors using a fixed, ordered rule set.
package descriptor

import (
	"encoding/json"
	"fmt"
)

type Style int

const (
	Balanced Style = iota
	Organic
	Geometric
)

var styleNames = [...]string{"Balanced", "Organic", "Geometric"}

func (s Style) String() string { return enumName(styleNames[:], int(s)) }

type PatternMode int

const (
	Spontaneous PatternMode = iota
	Repeating
)

var patternNames = [...]string{"Spontaneous", "Repeating"}

func (p PatternMode) String() string { return enumName(patternNames[:], int(p)) }

type ColorBase int

const (
	SubtleEarth ColorBase = iota
	VibrantComplementary
	HarmoniousAnalogous
	ContrastingMonochromatic
)

var colorNames = [...]string{"SubtleEarth", "VibrantComplementary", "HarmoniousAnalogous", "ContrastingMonochromatic"}

func (c ColorBase) String() string { return enumName(colorNames[:], int(c)) }

type Temperature int

const (
	Cool Temperature = iota
	Warm
)

var temperatureNames = [...]string{"Cool", "Warm"}

func (t Temperature) String() string { return enumName(temperatureNames[:], int(t)) }

type Composition int

const (
	MinimalFloating Composition = iota
	SpiralDynamic
	RadiatingCircular
	DiagonalFlowing
	GentleCurved
	HorizontalLayered
)

var compositionNames = [...]string{"MinimalFloating", "SpiralDynamic", "RadiatingCircular", "DiagonalFlowing", "GentleCurved", "HorizontalLayered"}

func (c Composition) String() string { return enumName(compositionNames[:], int(c)) }

type DetailLevel int

const (
	Subtle DetailLevel = iota
	Intricate
)

var detailNames = [...]string{"Subtle", "Intricate"}

func (d DetailLevel) String() string { return enumName(detailNames[:], int(d)) }

type EdgeStyle int

const (
	Smooth EdgeStyle = iota
	Sharp
)

var edgeNames = [...]string{"Smooth", "Sharp"}

func (e EdgeStyle) String() string { return enumName(edgeNames[:], int(e)) }

type Medium int

const (
	DigitalArt Medium = iota
	OilPainting
	Watercolor
)

var mediumNames = [...]string{"DigitalArt", "OilPainting", "Watercolor"}

func (m Medium) String() string { return enumName(mediumNames[:], int(m)) }

// Bands flags which thirds of the spectrum carry audible energy.
type Bands struct {
	Low  bool `json:"low"`
	Mid  bool `json:"mid"`
	High bool `json:"high"`
}

// Set is the full descriptor outcome for one clip.
type Set struct {
	Style       Style       `json:"style"`
	PatternMode PatternMode `json:"pattern_mode"`
	ColorBase   ColorBase   `json:"color_base"`
	Temperature Temperature `json:"temperature"`
	Composition Composition `json:"composition"`
	DetailLevel DetailLevel `json:"detail_level"`
	EdgeStyle   EdgeStyle   `json:"edge_style"`
	Bands       Bands       `json:"bands"`
	Medium      Medium      `json:"medium"`
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("Unknown(%d)", i)
	}
	return names[i]
}

func (s Style) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }
func (p PatternMode) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }
func (c ColorBase) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }
func (t Temperature) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }
func (c Composition) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }
func (d DetailLevel) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }
func (e EdgeStyle) MarshalJSON() ([]byte, error) { return json.Marshal(e.String()) }
func (m Medium) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }
