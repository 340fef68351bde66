// Package recordings keeps captured clips on disk as 16-bit mono WAV files,
// alongside the images generated from them, and sweeps both once they age
// past the retention window.
package recordings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/satindergrewal/voiceart/internal/audio"
	"github.com/satindergrewal/voiceart/internal/logger"
)

const (
	filePrefix = "audio_"
	fileExt    = ".wav"

	DefaultMaxAge = time.Hour
)

var (
	ErrNotFound    = errors.New("recording not found")
	ErrInvalidName = errors.New("invalid recording name")

	imagePattern = regexp.MustCompile(`^image_[0-9a-f-]{36}\.png$`)
)

// Recording describes one stored clip.
type Recording struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Store owns one directory of recordings.
type Store struct {
	dir string
	now func() time.Time
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recordings dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// SetClock replaces the time source used for naming and sweeping.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes clip as audio_<unix>_<id>.wav.
func (s *Store) Save(clip audio.Clip) (Recording, error) {
	if clip.Empty() {
		return Recording{}, &audio.DecodeError{Err: audio.ErrNoSamples}
	}
	name := fmt.Sprintf("%s%d_%s%s", filePrefix, s.now().Unix(), uuid.NewString()[:8], fileExt)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return Recording{}, fmt.Errorf("create recording: %w", err)
	}
	if err := audio.EncodeWAV(f, clip); err != nil {
		f.Close()
		os.Remove(path)
		return Recording{}, fmt.Errorf("write recording: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Recording{}, fmt.Errorf("close recording: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Recording{}, fmt.Errorf("stat recording: %w", err)
	}
	return Recording{Name: name, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

// List returns the stored recordings, newest first.
func (s *Store) List() ([]Recording, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read recordings dir: %w", err)
	}
	var out []Recording
	for _, e := range entries {
		if e.IsDir() || !isRecordingName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed since ReadDir
		}
		out = append(out, Recording{Name: e.Name(), Size: info.Size(), CreatedAt: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name > out[j].Name
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Path resolves name to a file inside the store. Names that are not plain
// recording file names are rejected.
func (s *Store) Path(name string) (string, error) {
	if name != filepath.Base(name) || !isRecordingName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// SaveImage writes a generated PNG as image_<uuid>.png and returns its name.
func (s *Store) SaveImage(png []byte) (string, error) {
	name := fmt.Sprintf("image_%s.png", uuid.NewString())
	if err := os.WriteFile(filepath.Join(s.dir, name), png, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

// ImagePath resolves the name of a generated image inside the store.
func (s *Store) ImagePath(name string) (string, error) {
	if !imagePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// Sweep removes recordings and generated images whose modification time is
// older than maxAge.
// A failure on one file does not stop the sweep; every failure is returned
// joined together.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read recordings dir: %w", err)
	}
	cutoff := s.now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !(isRecordingName(e.Name()) || imagePattern.MatchString(e.Name())) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", e.Name(), err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// RunSweeper sweeps once immediately and then every interval until ctx is
// done.
func (s *Store) RunSweeper(ctx context.Context, interval, maxAge time.Duration, log *logger.Logger) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	sweep := func() {
		n, err := s.Sweep(maxAge)
		if err != nil {
			log.Warn("recording sweep incomplete", "removed", n, "error", err)
			return
		}
		if n > 0 {
			log.Info("swept old recordings", "removed", n)
		}
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func isRecordingName(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExt)
}
