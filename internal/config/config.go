package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// longAudioSec is the duration above which a recording is considered
// long-form and gets wider chunking knobs to keep the chunk count down.
const longAudioSec = 3600

// Segmentation holds the knobs that control how audio is split.
type Segmentation struct {
	MaxUploadSizeMB       float64 `yaml:"max_upload_size_mb"`
	MaxChunkDurationSec   float64 `yaml:"max_chunk_duration_sec"`
	SilenceThresholdDB    float64 `yaml:"silence_threshold_db"`
	MinSilenceMs          int     `yaml:"min_silence_ms"`
	HardSplitWindowSec    float64 `yaml:"hard_split_window_sec"`
	TargetSampleRate      int     `yaml:"target_sample_rate"`
	TargetChannels        int     `yaml:"target_channels"`
	EnablePreprocessing   bool    `yaml:"enable_preprocessing"`
	PreserveIntermediates bool    `yaml:"preserve_intermediates"`
}

// Scheduling holds the knobs that control batch dispatch and retries.
type Scheduling struct {
	MaxAttempts        int `yaml:"max_attempts"`
	RateLimitPerMin    int `yaml:"rate_limit_per_min"`
	PipelineTimeoutMin int `yaml:"pipeline_timeout_min"`
}

// Provider holds transcription provider settings. The API key is never read
// from a config file; it comes from the environment or a flag.
type Provider struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// Config holds the full application configuration.
type Config struct {
	Segmentation `yaml:"segmentation"`
	Scheduling   `yaml:"scheduling"`
	Provider     `yaml:"provider"`
}

// Default returns a Config with the standard defaults for sub-hour audio.
func Default() *Config {
	return &Config{
		Segmentation: Segmentation{
			MaxUploadSizeMB:     24.5,
			MaxChunkDurationSec: 85,
			SilenceThresholdDB:  -35,
			MinSilenceMs:        400,
			HardSplitWindowSec:  30,
			TargetSampleRate:    16000,
			TargetChannels:      1,
			EnablePreprocessing: true,
		},
		Scheduling: Scheduling{
			MaxAttempts:        3,
			RateLimitPerMin:    60,
			PipelineTimeoutMin: 120,
		},
		Provider: Provider{
			Model: "whisper-1",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ForDuration returns segmentation knobs adjusted for the recording length.
// Recordings over an hour get wider chunks and a more permissive silence
// threshold so the chunk count stays manageable. This policy belongs to the
// caller; the segmenter itself never inspects total duration for it.
func (s Segmentation) ForDuration(durationSec float64) Segmentation {
	if durationSec <= longAudioSec {
		return s
	}
	if s.MaxChunkDurationSec < 150 {
		s.MaxChunkDurationSec = 150
	}
	if s.HardSplitWindowSec < 120 {
		s.HardSplitWindowSec = 120
	}
	if s.SilenceThresholdDB < -30 {
		s.SilenceThresholdDB = -30
	}
	if s.MinSilenceMs > 300 {
		s.MinSilenceMs = 300
	}
	return s
}
