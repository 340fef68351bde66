// Package prompt renders a descriptor set as a generative-art prompt.
package prompt

import (
	"strings"

	"github.com/satindergrewal/voiceart/internal/descriptor"
)

// Compose renders the descriptor set into a single prompt string:
//
//	Create a {style}{pattern} artwork using {color}{temperature}featuring a
//	{composition} {detail}{edge}{bands}rendered in {medium}
//
// Band fragments appear only for present bands, in low, mid, high order.
func Compose(s descriptor.Set) string {
	var b strings.Builder
	b.Grow(320)

	b.WriteString("Create a ")
	b.WriteString(stylePhrases[s.Style])
	b.WriteString(patternPhrases[s.PatternMode])
	b.WriteString(" artwork using ")
	b.WriteString(colorPhrases[s.ColorBase])
	b.WriteString(temperaturePhrases[s.Temperature])
	b.WriteString("featuring a ")
	b.WriteString(compositionPhrases[s.Composition])
	b.WriteString(" ")
	b.WriteString(detailPhrases[s.DetailLevel])
	b.WriteString(edgePhrases[s.EdgeStyle])
	if s.Bands.Low {
		b.WriteString(lowBandPhrase)
	}
	if s.Bands.Mid {
		b.WriteString(midBandPhrase)
	}
	if s.Bands.High {
		b.WriteString(highBandPhrase)
	}
	b.WriteString("rendered in ")
	b.WriteString(mediumPhrases[s.Medium])
	return b.String()
}
