package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Stability holds the image-generation collaborator settings. The API key is
// only ever read here and handed to the client at construction.
type Stability struct {
	APIURL   string  `yaml:"api_url"`
	APIKey   string  `yaml:"api_key"`
	Engine   string  `yaml:"engine"`
	Seed     int     `yaml:"seed"`
	Steps    int     `yaml:"steps"`
	CFGScale float64 `yaml:"cfg_scale"`
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Samples  int     `yaml:"samples"`
}

// Config holds all runtime configuration, loaded from environment variables
// and optionally overlaid by a YAML file.
type Config struct {
	// Server
	Port    int    `yaml:"port"`
	LogMode string `yaml:"log_mode"`

	// Storage
	AudioDir        string        `yaml:"audio_dir"`
	HistoryDB       string        `yaml:"history_db"`
	RetentionMaxAge time.Duration `yaml:"retention_max_age"` // recordings older than this are swept
	SweepInterval   time.Duration `yaml:"sweep_interval"`

	// Analysis
	CaptureDuration    time.Duration `yaml:"capture_duration"`
	AnalysisSampleRate int           `yaml:"analysis_sample_rate"`

	Stability Stability `yaml:"stability"`

	// Prompt refinement, disabled when OllamaURL is empty
	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:    envInt("VOICEART_PORT", 8080),
		LogMode: envStr("LOG_MODE", "dev"),

		AudioDir:        envStr("VOICEART_AUDIO_DIR", "audio_files"),
		HistoryDB:       envStr("VOICEART_HISTORY_DB", "voiceart.db"),
		RetentionMaxAge: envDuration("VOICEART_RETENTION", time.Hour),
		SweepInterval:   envDuration("VOICEART_SWEEP_INTERVAL", 5*time.Minute),

		CaptureDuration:    envDuration("VOICEART_CAPTURE_DURATION", 10*time.Second),
		AnalysisSampleRate: envInt("VOICEART_ANALYSIS_RATE", 22050),

		Stability: Stability{
			APIURL:   envStr("STABILITY_API_URL", "https://api.stability.ai"),
			APIKey:   envStr("STABILITY_API_KEY", ""),
			Engine:   envStr("STABILITY_ENGINE", "stable-diffusion-v1-6"),
			Seed:     envInt("STABILITY_SEED", 42),
			Steps:    envInt("STABILITY_STEPS", 30),
			CFGScale: envFloat("STABILITY_CFG_SCALE", 8.0),
			Width:    envInt("STABILITY_WIDTH", 512),
			Height:   envInt("STABILITY_HEIGHT", 512),
			Samples:  envInt("STABILITY_SAMPLES", 1),
		},

		OllamaURL:   envStr("OLLAMA_URL", ""),
		OllamaModel: envStr("OLLAMA_MODEL", "llama3.2"),
	}
}

// LoadFile overlays the YAML file at path onto base. Keys absent from the
// file keep their value from base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv is Load followed by the overlay named by VOICEART_CONFIG, if any.
func FromEnv() (Config, error) {
	cfg := Load()
	if path := os.Getenv("VOICEART_CONFIG"); path != "" {
		return LoadFile(path, cfg)
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
