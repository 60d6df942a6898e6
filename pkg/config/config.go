// Package config provides configuration loading and management for pqctdensity.
// It handles loading configuration from YAML files and provides default values
// matching the thresholds commonly used for Stratec XCT slices.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Vertex is a manual ROI polygon vertex in pixel coordinates.
type Vertex struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Config represents the analysis configuration loaded from YAML
type Config struct {
	// Density thresholds, in the calibrated density unit
	Thresholds struct {
		// Air is the lower fat threshold
		Air float64 `yaml:"air"`

		// Fat is the upper fat threshold; the limb is grown through pixels
		// above it when locating central/peripheral bones
		Fat float64 `yaml:"fat"`

		// Muscle is the lower muscle threshold
		Muscle float64 `yaml:"muscle"`

		// Marrow is the upper marrow threshold used for marrow density
		Marrow float64 `yaml:"marrow"`

		// Soft separates soft tissue and marrow from bone
		Soft float64 `yaml:"soft"`

		// Rotation builds the temporary sieves used for rotation and for
		// the vendor-compatible cortical figures
		Rotation float64 `yaml:"rotation"`

		// Area segments bone for cortical area analyses and peeling
		Area float64 `yaml:"area"`

		// BMD segments cortical bone for density analyses
		BMD float64 `yaml:"bmd"`
	} `yaml:"thresholds"`

	// Calibration describes how raw scanner values become densities
	Calibration struct {
		// Slope and Intercept of the linear calibration
		Slope     float64 `yaml:"slope"`
		Intercept float64 `yaml:"intercept"`

		// PixelSpacing is the in-plane pixel size in mm
		PixelSpacing float64 `yaml:"pixelSpacing"`

		// NoFiltering disables the 3x3 median filter
		NoFiltering bool `yaml:"noFiltering"`

		// FlipHorizontal mirrors the slice around the horizontal axis
		FlipHorizontal bool `yaml:"flipHorizontal"`

		// FlipVertical mirrors the slice around the vertical axis
		FlipVertical bool `yaml:"flipVertical"`
	} `yaml:"calibration"`

	// Selection controls segmentation and choice of the bone of interest
	Selection struct {
		Rule         SelectionRule `yaml:"rule"`
		RotationRule RotationRule  `yaml:"rotationRule"`

		// AllowCleaving splits traced edges that enclose two touching bones
		AllowCleaving bool `yaml:"allowCleaving"`

		// CleaveMinRatio is the arc/chord ratio above which an edge is cleaved
		CleaveMinRatio float64 `yaml:"cleaveMinRatio"`

		// CleaveMinLengthDivisor sets the shortest cleavable arc to
		// edge length / divisor
		CleaveMinLengthDivisor float64 `yaml:"cleaveMinLengthDivisor"`

		GuessFlip        bool `yaml:"guessFlip"`
		GuessLarger      bool `yaml:"guessLarger"`
		GuessStacked     bool `yaml:"guessStacked"`
		Stacked          bool `yaml:"stacked"`
		InvertGuess      bool `yaml:"invertGuess"`
		FlipDistribution bool `yaml:"flipDistribution"`

		// ManualROI restricts segmentation to a polygon when it has at
		// least three vertices
		ManualROI []Vertex `yaml:"manualRoi"`
	} `yaml:"selection"`

	// Rotation holds the manual rotation override
	Rotation struct {
		Manual             bool    `yaml:"manual"`
		ManualAlphaDegrees float64 `yaml:"manualAlphaDegrees"`
	} `yaml:"rotation"`

	// Distribution configures the cortical density distribution analysis
	Distribution struct {
		SectorWidth    int  `yaml:"sectorWidth"`
		Divisions      int  `yaml:"divisions"`
		PreventPeeling bool `yaml:"preventPeeling"`
	} `yaml:"distribution"`

	// Concentric configures the concentric ring analysis
	Concentric struct {
		SectorWidth int `yaml:"sectorWidth"`
		Divisions   int `yaml:"divisions"`
	} `yaml:"concentric"`

	// Analyses toggles the individual analysis modes
	Analyses struct {
		Cortical     bool `yaml:"cortical"`
		Mass         bool `yaml:"mass"`
		Concentric   bool `yaml:"concentric"`
		Distribution bool `yaml:"distribution"`
	} `yaml:"analyses"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many goroutines per-ray analyses may use
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// SaveSieve writes the selected sieve as a PNG mask
		SaveSieve bool `yaml:"saveSieve"`

		// SieveFile is the PNG path used when SaveSieve is set
		SieveFile string `yaml:"sieveFile"`

		// ResultsFile receives the YAML results when non-empty
		ResultsFile string `yaml:"resultsFile"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Thresholds.Air = -40
	cfg.Thresholds.Fat = 40
	cfg.Thresholds.Muscle = 40
	cfg.Thresholds.Marrow = 80
	cfg.Thresholds.Soft = 200
	cfg.Thresholds.Rotation = 200
	cfg.Thresholds.Area = 550
	cfg.Thresholds.BMD = 690

	// XCT 2000 calibration
	cfg.Calibration.Slope = 1.724
	cfg.Calibration.Intercept = -322
	cfg.Calibration.PixelSpacing = 0.5

	cfg.Selection.Rule = Bigger
	cfg.Selection.RotationRule = MomentAlignment
	cfg.Selection.CleaveMinRatio = 3.0
	cfg.Selection.CleaveMinLengthDivisor = 6.0

	cfg.Distribution.SectorWidth = 10
	cfg.Distribution.Divisions = 3
	cfg.Concentric.SectorWidth = 10
	cfg.Concentric.Divisions = 10

	cfg.Analyses.Cortical = true
	cfg.Analyses.Mass = true
	cfg.Analyses.Concentric = true
	cfg.Analyses.Distribution = true

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	cfg.Output.Verbose = true
	cfg.Output.SieveFile = "sieve.png"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
