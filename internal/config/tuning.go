package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for clusterizer tuning
// parameters. Fields are pointers so a partial JSON file only overrides
// what it names; nil fields fall back to the compiled-in defaults.
type TuningConfig struct {
	// Threshold clusterizer params (ADC counts).
	SeedThresholdADC    *int     `json:"seed_threshold_adc,omitempty"`
	PixelThresholdADC   *int     `json:"pixel_threshold_adc,omitempty"`
	ClusterThresholdADC *int     `json:"cluster_threshold_adc,omitempty"`
	NoiseSigmaCut       *float64 `json:"noise_sigma_cut,omitempty"`

	// Producer params.
	DigiProducer *string `json:"digi_producer,omitempty"`
	ClusterMode  *string `json:"cluster_mode,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// Validate checks that all set fields carry usable values.
func (c *TuningConfig) Validate() error {
	if c.SeedThresholdADC != nil && *c.SeedThresholdADC < 0 {
		return fmt.Errorf("seed_threshold_adc must be >= 0, got %d", *c.SeedThresholdADC)
	}
	if c.PixelThresholdADC != nil && *c.PixelThresholdADC < 0 {
		return fmt.Errorf("pixel_threshold_adc must be >= 0, got %d", *c.PixelThresholdADC)
	}
	if c.ClusterThresholdADC != nil && *c.ClusterThresholdADC < 0 {
		return fmt.Errorf("cluster_threshold_adc must be >= 0, got %d", *c.ClusterThresholdADC)
	}
	if c.NoiseSigmaCut != nil && *c.NoiseSigmaCut < 0 {
		return fmt.Errorf("noise_sigma_cut must be >= 0, got %g", *c.NoiseSigmaCut)
	}
	if c.SeedThresholdADC != nil && c.PixelThresholdADC != nil && *c.SeedThresholdADC < *c.PixelThresholdADC {
		return fmt.Errorf("seed_threshold_adc (%d) must be >= pixel_threshold_adc (%d)",
			*c.SeedThresholdADC, *c.PixelThresholdADC)
	}
	if c.ClusterMode != nil && *c.ClusterMode == "" {
		return fmt.Errorf("cluster_mode must not be empty when set")
	}
	return nil
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under
// the max file size. Fields omitted from the JSON file retain their
// default values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath. It searches for the file in the current directory
// and common parent directories. Panics if the file cannot be loaded;
// intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/detector/
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}
