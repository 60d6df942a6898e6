// Package analysis runs the full analysis of one calibrated slice: bone
// selection, orientation and the enabled cross-sectional and polar
// analyses.
package analysis

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/crosssection"
	"pqctdensity/pkg/orientation"
	"pqctdensity/pkg/polar"
	"pqctdensity/pkg/selection"
)

// Analyzer runs the analysis pipeline with a fixed configuration
type Analyzer struct {
	cfg    *config.Config
	logger *log.Logger
}

// Results collects the outcome of every stage of one run
type Results struct {
	// Threshold is the density the bone edges were traced at
	Threshold float64 `yaml:"threshold"`

	// Regions is the number of traced bone edges
	Regions int `yaml:"regions"`

	// Selection is the index of the selected bone in tracing order
	Selection int `yaml:"selection"`

	// Stacked and Flip are the orientation flags finally used
	Stacked bool `yaml:"stacked"`
	Flip    bool `yaml:"flip"`

	Orientation  *orientation.Result       `yaml:"orientation,omitempty"`
	Cortical     *crosssection.Result      `yaml:"cortical,omitempty"`
	Mass         *polar.MassResult         `yaml:"mass,omitempty"`
	Concentric   *polar.ConcentricResult   `yaml:"concentric,omitempty"`
	Distribution *polar.DistributionResult `yaml:"distribution,omitempty"`

	// ROI keeps the pixel sets of the selected bone
	ROI *selection.ROI `yaml:"-"`

	// Sieve is the filled region of the selected bone
	Sieve *models.Sieve `yaml:"-"`

	// SelectedEdge is the traced edge of the selected bone
	SelectedEdge models.Contour `yaml:"-"`
}

// NewAnalyzer creates an analyzer. Progress is written to stdout when
// cfg.Output.Verbose is set.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	var out io.Writer = io.Discard
	if cfg.Output.Verbose {
		out = os.Stdout
	}
	return &Analyzer{
		cfg:    cfg,
		logger: log.New(out, "", 0),
	}
}

// SetLogger replaces the progress logger
func (a *Analyzer) SetLogger(logger *log.Logger) {
	a.logger = logger
}

// Process runs the pipeline on img
func (a *Analyzer) Process(img *models.CalibratedImage) (*Results, error) {
	cfg := a.cfg

	// Step 1: Validate configuration against the slice
	a.logger.Println("Step 1: Validating configuration...")
	if err := cfg.ValidateForImage(img.Width, img.Height); err != nil {
		return nil, fmt.Errorf("failed to validate configuration: %w", err)
	}

	// Step 2: Trace and select the bone of interest
	a.logger.Printf("Step 2: Selecting bone at threshold %.1f with rule %s...\n",
		cfg.Thresholds.Area, cfg.Selection.Rule)
	roi, err := selection.NewROI(img, cfg, cfg.Thresholds.Area)
	if err != nil {
		return nil, fmt.Errorf("failed to select bone: %w", err)
	}
	a.logger.Printf("Selected region %d of %d (%d pixels)\n",
		roi.Selection+1, len(roi.Contours), roi.Sieve.CoveredCount())

	res := &Results{
		Threshold:    roi.Threshold,
		Regions:      len(roi.Contours),
		Selection:    roi.Selection,
		Stacked:      roi.Stacked,
		Flip:         roi.Flip,
		ROI:          roi,
		Sieve:        roi.Sieve,
		SelectedEdge: roi.Selected(),
	}

	// Step 3: Orientation
	a.logger.Printf("Step 3: Solving rotation with rule %s...\n", cfg.Selection.RotationRule)
	rot, err := orientation.Solve(roi, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to solve rotation: %w", err)
	}
	res.Orientation = rot
	a.logger.Printf("Rotation %.2f degrees, index %d\n", rot.Alpha*180/math.Pi, rot.RotationIndex)

	// Step 4: Cross-sectional figures
	if cfg.Analyses.Cortical {
		a.logger.Println("Step 4: Analyzing cross-section...")
		res.Cortical = crosssection.Analyze(roi, cfg, a.logger)
	}

	// Step 5: Mass distribution
	if cfg.Analyses.Mass {
		a.logger.Println("Step 5: Integrating mass distribution...")
		res.Mass = polar.Mass(roi, rot, cfg)
	}

	// Step 6: Concentric rings
	if cfg.Analyses.Concentric {
		a.logger.Println("Step 6: Sampling concentric rings...")
		res.Concentric = polar.Concentric(roi, rot, cfg)
	}

	// Step 7: Cortical density distribution
	if cfg.Analyses.Distribution {
		a.logger.Println("Step 7: Computing cortical density distribution...")
		res.Distribution = polar.Distribution(roi, rot, cfg)
	}

	a.logger.Println("Analysis complete")
	return res, nil
}

// Save writes the results to path as YAML, creating the parent directory
// if needed
func (r *Results) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	return nil
}
