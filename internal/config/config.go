// Package config loads the optional JSON configuration of remapgen.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/remapgen/internal/remap"
)

// RemapConfig is the root configuration. Every field is optional; the Get*
// accessors supply defaults for fields left out of the file.
type RemapConfig struct {
	// Case handling
	AllowUnknownCase *bool `json:"allow_unknown_case,omitempty"`
	CheckCaseUniform *bool `json:"check_case_uniform,omitempty"`

	// Global attributes of the output file
	Author  *string `json:"author,omitempty"`
	License *string `json:"license,omitempty"`
	History *string `json:"history,omitempty"`

	// Diagnostics
	WeightTolerance *float64 `json:"weight_tolerance,omitempty"`
	HistogramBins   *int     `json:"histogram_bins,omitempty"`
}

// LoadRemapConfig loads a RemapConfig from a JSON file no larger than 1MB.
func LoadRemapConfig(path string) (*RemapConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

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

	cfg := &RemapConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *RemapConfig) Validate() error {
	if c.WeightTolerance != nil && *c.WeightTolerance < 0 {
		return fmt.Errorf("weight_tolerance must be non-negative, got %f", *c.WeightTolerance)
	}
	if c.HistogramBins != nil && *c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be at least 1, got %d", *c.HistogramBins)
	}
	for name, v := range map[string]*string{"author": c.Author, "license": c.License, "history": c.History} {
		if v != nil && *v == "" {
			return fmt.Errorf("%s must not be empty when set", name)
		}
	}
	return nil
}

// GetAllowUnknownCase returns allow_unknown_case or false.
func (c *RemapConfig) GetAllowUnknownCase() bool {
	if c.AllowUnknownCase == nil {
		return false
	}
	return *c.AllowUnknownCase
}

// GetCheckCaseUniform returns check_case_uniform or true.
func (c *RemapConfig) GetCheckCaseUniform() bool {
	if c.CheckCaseUniform == nil {
		return true
	}
	return *c.CheckCaseUniform
}

// GetWeightTolerance returns weight_tolerance or the default.
func (c *RemapConfig) GetWeightTolerance() float64 {
	if c.WeightTolerance == nil {
		return 1e-3
	}
	return *c.WeightTolerance
}

// GetHistogramBins returns histogram_bins or the default.
func (c *RemapConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return 20
	}
	return *c.HistogramBins
}

// ToOptions converts the configuration into reshape options.
func (c *RemapConfig) ToOptions() remap.Options {
	opts := remap.DefaultOptions()
	opts.AllowUnknownCase = c.GetAllowUnknownCase()
	opts.CheckCaseUniform = c.GetCheckCaseUniform()
	if c.Author != nil {
		opts.Author = *c.Author
	}
	if c.License != nil {
		opts.License = *c.License
	}
	if c.History != nil {
		opts.History = *c.History
	}
	return opts
}
