// Package orientation determines the principal rotation of the selected
// bone and the angular permutation shared by the polar analyses.
package orientation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/segmentation"
	"pqctdensity/pkg/selection"
)

// smoothingRadius is the half width of the running sum used to find the
// furthest boundary point.
const smoothingRadius = 5

// Result holds the rotation of the slice and the derived angular mapping.
type Result struct {
	// Alpha is the principal rotation in radians
	Alpha float64 `yaml:"alpha"`

	// RotationCorrection is half a sector in degrees, negated when the
	// distribution is mirrored
	RotationCorrection float64 `yaml:"rotationCorrection"`

	// RotationIndex is round(alpha in degrees + RotationCorrection)
	RotationIndex int `yaml:"rotationIndex"`

	// Permutation maps output slots to native ray angles
	Permutation Permutation `yaml:"-"`

	// ColorPermutation is built with the sign of RotationIndex flipped and
	// is used only for colouring sectors in rendered output
	ColorPermutation Permutation `yaml:"-"`

	// DistanceBetweenBones is the centre to centre distance in mm for the
	// relative bone rules, otherwise 0
	DistanceBetweenBones float64 `yaml:"distanceBetweenBones"`

	// Flip reports whether the permutation is mirrored
	Flip bool `yaml:"flip"`
}

// Solve computes the rotation of the selected bone with the configured rule.
// A manual rotation replaces the computed angle.
func Solve(roi *selection.ROI, cfg *config.Config) (*Result, error) {
	var alpha, distance float64

	rule := cfg.Selection.RotationRule
	switch {
	case rule == config.MomentAlignment:
		alpha = MomentAlpha(SecondMoments(roi.Sieve.CoveredPoints()))
	case rule == config.AllBonesMomentAlignment:
		bones := segmentation.ThresholdSieve(roi.Image, cfg.Thresholds.Rotation)
		alpha = MomentAlpha(SecondMoments(bones.CoveredPoints()))
	case rule == config.FurthestPoint:
		alpha = FurthestPointAlpha(roi)
	case rule.RelativeBone():
		var err error
		alpha, distance, err = relativeBoneAlpha(roi, cfg, rule)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported rotation rule %v", rule)
	}

	if cfg.Rotation.Manual {
		alpha = cfg.Rotation.ManualAlphaDegrees * math.Pi / 180
	}

	res := NewResult(alpha, cfg.Distribution.SectorWidth, roi.Flip)
	res.DistanceBetweenBones = distance
	return res, nil
}

// NewResult derives the rotation index and permutations from alpha.
func NewResult(alpha float64, sectorWidth int, flip bool) *Result {
	correction := float64(sectorWidth) / 2
	if flip {
		correction = -correction
	}
	index := int(math.Round(alpha*180/math.Pi + correction))

	return &Result{
		Alpha:              alpha,
		RotationCorrection: correction,
		RotationIndex:      index,
		Permutation:        NewPermutation(index, flip),
		ColorPermutation:   NewPermutation(-index, flip),
		Flip:               flip,
	}
}

// FurthestPointAlpha returns the angle towards the point of the selected
// edge that is furthest from the marrow centre, after smoothing the edge
// radii with an 11 point running sum.
func FurthestPointAlpha(roi *selection.ROI) float64 {
	cx, cy := roi.MarrowCenter()
	edge := roi.Selected().Points

	xs, ys := models.Coordinates(edge)
	floats.AddConst(-cx, xs)
	floats.AddConst(-cy, ys)
	radii := make([]float64, len(edge))
	for i := range radii {
		radii[i] = math.Hypot(xs[i], ys[i])
	}

	sums := make([]float64, len(edge))
	for i := smoothingRadius; i < len(edge)-smoothingRadius-1; i++ {
		sums[i] = floats.Sum(radii[i-smoothingRadius : i+smoothingRadius+1])
	}

	furthest := floats.MaxIdx(sums)
	return math.Pi - math.Atan2(ys[furthest], xs[furthest])
}

// relativeBoneAlpha rotates the line between the selected bone and the other
// of the two largest bones onto the horizontal axis. Both bones are traced
// again at the rotation threshold.
func relativeBoneAlpha(roi *selection.ROI, cfg *config.Config, rule config.RotationRule) (float64, float64, error) {
	temp, err := selection.NewROI(roi.Image, cfg, cfg.Thresholds.Rotation)
	if err != nil {
		return 0, 0, fmt.Errorf("error tracing bones for rotation: %w", err)
	}
	if len(temp.Contours) < 2 {
		return 0, 0, &selection.AmbiguousSelectionError{
			Rule:    cfg.Selection.Rule,
			Regions: len(temp.Contours),
			Reason:  fmt.Sprintf("rotation rule %s needs a second bone", rule),
		}
	}

	first, second := selection.TwoLargest(temp.Contours)
	other := first
	if temp.Selection == first {
		other = second
	}
	otherSieve := segmentation.FillSieve(temp.Image, temp.Contours[other], cfg.Thresholds.Rotation)

	sx, sy := models.Centroid(temp.Sieve.CoveredPoints())
	ox, oy := models.Centroid(otherSieve.CoveredPoints())

	x, y := ox-sx, oy-sy
	if rule == config.SelectedToRight {
		x, y = -x, -y
	}
	alpha := -math.Atan2(y, x)
	distance := math.Hypot(x, y) * roi.Image.PixelSpacing
	return alpha, distance, nil
}
