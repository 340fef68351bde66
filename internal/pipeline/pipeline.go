// Package pipeline runs one clip through feature extraction, descriptor
// classification and prompt composition.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/satindergrewal/voiceart/internal/audio"
	"github.com/satindergrewal/voiceart/internal/descriptor"
	"github.com/satindergrewal/voiceart/internal/features"
	"github.com/satindergrewal/voiceart/internal/prompt"
)

// Invocation identifies one analysis run.
type Invocation struct {
	ID        uuid.UUID `json:"id"`
	ClipPath  string    `json:"clip_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewInvocation starts a run for the clip at path. path may be empty when
// the clip is already in memory.
func NewInvocation(path string) Invocation {
	return Invocation{ID: uuid.New(), ClipPath: path, CreatedAt: time.Now().UTC()}
}

// Result is everything one run produced.
type Result struct {
	Invocation  Invocation      `json:"invocation"`
	Features    features.Vector `json:"features"`
	Descriptors descriptor.Set  `json:"descriptors"`
	Prompt      string          `json:"prompt"`
}

// Analyzer holds the per-run analysis parameters. It keeps no state between
// runs and is safe for concurrent use.
type Analyzer struct {
	AnalysisRate int             // <= 0 analyzes at the clip's own rate
	Features     features.Config // zero frame sizes fall back to features.DefaultConfig
}

// NewAnalyzer returns an Analyzer with the default feature configuration.
func NewAnalyzer() *Analyzer {
	return &Analyzer{AnalysisRate: audio.AnalysisSampleRate, Features: features.DefaultConfig()}
}

// AnalyzeFile decodes inv.ClipPath and analyzes it.
func (a *Analyzer) AnalyzeFile(inv Invocation) (Result, error) {
	clip, err := audio.DecodeFile(inv.ClipPath)
	if err != nil {
		return Result{}, err
	}
	return a.Analyze(inv, clip)
}

// Analyze resamples clip to the analysis rate and runs the three stages.
// Unreadable input surfaces as *audio.DecodeError, a non-finite feature as
// *features.InvalidFeatureError.
func (a *Analyzer) Analyze(inv Invocation, clip audio.Clip) (Result, error) {
	if clip.SampleRate <= 0 {
		return Result{}, &audio.DecodeError{Path: inv.ClipPath, Err: features.ErrInvalidSampleRate}
	}
	if clip.Empty() {
		return Result{}, &audio.DecodeError{Path: inv.ClipPath, Err: audio.ErrNoSamples}
	}

	rate := a.AnalysisRate
	if rate <= 0 {
		rate = clip.SampleRate
	}
	clip = audio.Resample(clip, rate)

	cfg := a.Features
	if cfg.FFTSize <= 0 || cfg.HopSize <= 0 || cfg.NumMels <= 0 || cfg.NumMFCC <= 0 {
		cfg = features.DefaultConfig()
	}

	vec, err := cfg.Extract(clip.Samples, clip.SampleRate)
	if err != nil {
		if errors.Is(err, features.ErrEmptyInput) || errors.Is(err, features.ErrInvalidSampleRate) {
			return Result{}, &audio.DecodeError{Path: inv.ClipPath, Err: err}
		}
		return Result{}, fmt.Errorf("extract features: %w", err)
	}

	set, err := descriptor.Classify(vec)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Invocation:  inv,
		Features:    vec,
		Descriptors: set,
		Prompt:      prompt.Compose(set),
	}, nil
}
