// Package scoring computes deterministic 0-100 quality scores for venues
// from weighted accessibility, verification, community, freshness, and
// category signals, with calibration support for deploy-time weight tuning.
package scoring

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
)

// Weights defines the scoring weights for the five quality signals.
// Weights must sum to 1.0 so the score scale stays [0, 100].
type Weights struct {
	Accessibility float64 `json:"accessibility"` // Weight for accessibility signal (default: 0.30)
	Verification  float64 `json:"verification"`  // Weight for verification tier signal (default: 0.25)
	Community     float64 `json:"community"`     // Weight for community score signal (default: 0.20)
	Freshness     float64 `json:"freshness"`     // Weight for evidence freshness signal (default: 0.15)
	Category      float64 `json:"category"`      // Weight for category relevance signal (default: 0.10)
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configuration
}

// weightSumTolerance allows for float rounding when validating that weights
// sum to 1.0.
const weightSumTolerance = 1e-9

// DefaultWeights returns the default quality scoring weights.
//
// Formula: score = (accessibility * 0.30) + (verification * 0.25) +
// (community * 0.20) + (freshness * 0.15) + (category * 0.10), scaled to 100.
// Accessibility dominates because it is the product's core promise;
// verification rewards audited compliance; community and freshness keep
// scores honest over time.
func DefaultWeights() *Weights {
	return &Weights{
		Accessibility: 0.30,
		Verification:  0.25,
		Community:     0.20,
		Freshness:     0.15,
		Category:      0.10,
	}
}

// Validate checks that all weights are non-negative and sum to 1.0.
func (w *Weights) Validate() error {
	for name, v := range map[string]float64{
		"accessibility": w.Accessibility,
		"verification":  w.Verification,
		"community":     w.Community,
		"freshness":     w.Freshness,
		"category":      w.Category,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be non-negative (got %f)", name, v)
		}
	}
	sum := w.Accessibility + w.Verification + w.Community + w.Freshness + w.Category
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0 (got %f)", sum)
	}
	return nil
}

// LoadCalibration loads scoring weights from a JSON calibration file.
// If the file doesn't exist or can't be read, returns default weights with an
// error so callers degrade gracefully. Partial configurations are merged with
// defaults.
//
// Parameters:
//   - filePath: Path to the calibration JSON file
//
// Returns the loaded weights and any error encountered.
func LoadCalibration(filePath string) (*Weights, error) {
	// Return defaults if no file path provided
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)

	// A calibration that breaks the sum invariant would silently rescale
	// every score, so reject it and keep defaults.
	if err := merged.Validate(); err != nil {
		slog.Warn("invalid calibration weights, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("invalid calibration weights: %w", err)
	}

	logCalibrationOverrides(defaults, merged)
	return merged, nil
}

// MergeCalibration merges override weights with base weights.
// Only non-zero values from the override are applied, allowing partial
// overrides in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}

	// If there is no override provided, return a copy of the base.
	if override == nil {
		result := *base
		return &result
	}

	result := *base // Copy base

	if override.Accessibility != 0 {
		result.Accessibility = override.Accessibility
	}
	if override.Verification != 0 {
		result.Verification = override.Verification
	}
	if override.Community != 0 {
		result.Community = override.Community
	}
	if override.Freshness != 0 {
		result.Freshness = override.Freshness
	}
	if override.Category != 0 {
		result.Category = override.Category
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Accessibility != defaults.Accessibility {
		overrides = append(overrides, fmt.Sprintf("accessibility: %.2f -> %.2f",
			defaults.Accessibility, loaded.Accessibility))
	}
	if loaded.Verification != defaults.Verification {
		overrides = append(overrides, fmt.Sprintf("verification: %.2f -> %.2f",
			defaults.Verification, loaded.Verification))
	}
	if loaded.Community != defaults.Community {
		overrides = append(overrides, fmt.Sprintf("community: %.2f -> %.2f",
			defaults.Community, loaded.Community))
	}
	if loaded.Freshness != defaults.Freshness {
		overrides = append(overrides, fmt.Sprintf("freshness: %.2f -> %.2f",
			defaults.Freshness, loaded.Freshness))
	}
	if loaded.Category != defaults.Category {
		overrides = append(overrides, fmt.Sprintf("category: %.2f -> %.2f",
			defaults.Category, loaded.Category))
	}

	if len(overrides) > 0 {
		slog.Info("loaded scoring calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded scoring calibration (using all defaults)")
	}
}
