package selection

import (
	"fmt"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/segmentation"
)

// ROI is the selected bone together with the pixel sets the analyses work
// on.
type ROI struct {
	// Image is the calibrated slice, without manual ROI masking
	Image *models.CalibratedImage

	// Threshold is the density the bone edges were traced at
	Threshold float64

	// Contours are all traced bone edges in tracing order
	Contours []models.Contour

	// Selection indexes the bone of interest in Contours
	Selection int

	// Sieve is the filled region of the selected bone
	Sieve *models.Sieve

	// Marrow holds covered pixels below the area threshold
	Marrow []models.Point

	// CortexArea holds covered pixels at or above the area threshold
	CortexArea []models.Point

	// Cortex holds covered pixels at or above the bMD threshold
	Cortex []models.Point

	// CortexMask marks the Cortex pixels
	CortexMask *models.Sieve

	// Stacked and Flip are the orientation flags in effect, either
	// configured or guessed
	Stacked bool
	Flip    bool
}

// Selected returns the contour of the bone of interest.
func (r *ROI) Selected() models.Contour {
	return r.Contours[r.Selection]
}

// NewROI traces bone edges at threshold, selects the bone of interest with
// the configured rule and decomposes it using the area and bMD thresholds.
// A manual polygon in the configuration restricts tracing to its interior.
func NewROI(img *models.CalibratedImage, cfg *config.Config, threshold float64) (*ROI, error) {
	working := img
	if len(cfg.Selection.ManualROI) >= 3 {
		var err error
		working, err = RestrictToPolygon(img, cfg.Selection.ManualROI)
		if err != nil {
			return nil, fmt.Errorf("error applying manual ROI: %w", err)
		}
	}

	opts := segmentation.TraceOptions{
		AllowCleaving:          cfg.Selection.AllowCleaving,
		CleaveMinRatio:         cfg.Selection.CleaveMinRatio,
		CleaveMinLengthDivisor: cfg.Selection.CleaveMinLengthDivisor,
	}
	contours, err := segmentation.TraceEdges(working, threshold, opts)
	if err != nil {
		return nil, err
	}

	selector := &Selector{Image: working, FatThreshold: cfg.Thresholds.Fat}
	selected, err := selector.Select(contours, cfg.Selection.Rule)
	if err != nil {
		return nil, err
	}

	stacked := cfg.Selection.Stacked
	if cfg.Selection.GuessStacked {
		if guess, ok := GuessStacked(contours); ok {
			stacked = guess
		}
	}

	// The flip guess compares along the configured stacking, even when
	// stacking itself was guessed
	flip := cfg.Selection.FlipDistribution
	if cfg.Selection.GuessFlip {
		flip = GuessFlip(contours, selected, cfg.Selection.Stacked, cfg.Selection.GuessLarger)
		if cfg.Selection.InvertGuess {
			flip = !flip
		}
	}

	roi := &ROI{
		Image:     img,
		Threshold: threshold,
		Contours:  contours,
		Selection: selected,
		Sieve:     segmentation.FillSieve(working, contours[selected], threshold),
		Stacked:   stacked,
		Flip:      flip,
	}
	roi.decompose(cfg.Thresholds.Area, cfg.Thresholds.BMD)
	return roi, nil
}

// decompose splits the sieve into marrow, cortical area and cortical
// density pixel sets.
func (r *ROI) decompose(areaThreshold, bmdThreshold float64) {
	r.CortexMask = models.NewSieve(r.Sieve.Width, r.Sieve.Height)
	for y := 0; y < r.Sieve.Height; y++ {
		for x := 0; x < r.Sieve.Width; x++ {
			if !r.Sieve.Covered(x, y) {
				continue
			}
			p := models.Point{X: x, Y: y}
			d := r.Image.At(x, y)
			if d < areaThreshold {
				r.Marrow = append(r.Marrow, p)
			} else {
				r.CortexArea = append(r.CortexArea, p)
			}
			if d >= bmdThreshold {
				r.Cortex = append(r.Cortex, p)
				r.CortexMask.Set(x, y, models.Member)
			}
		}
	}
}

// MarrowCenter returns the centroid of the marrow, or of the cortical area
// when the bone has no marrow cavity.
func (r *ROI) MarrowCenter() (float64, float64) {
	if len(r.Marrow) == 0 {
		return models.Centroid(r.CortexArea)
	}
	return models.Centroid(r.Marrow)
}
