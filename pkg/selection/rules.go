// Package selection chooses the bone of interest among traced regions and
// decomposes it into marrow and cortex pixel sets.
package selection

import (
	"fmt"
	"sort"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/segmentation"
)

// Selector applies a selection rule to traced contours. Image and
// FatThreshold are only needed by the Central and Peripheral rules, which
// locate the limb by growing through soft tissue.
type Selector struct {
	Image        *models.CalibratedImage
	FatThreshold float64
}

// Select returns the index of the contour chosen by rule.
func (s *Selector) Select(contours []models.Contour, rule config.SelectionRule) (int, error) {
	if len(contours) == 0 {
		return -1, &AmbiguousSelectionError{Rule: rule, Reason: "no regions"}
	}

	if n, ok := rule.NthFromLeft(); ok {
		return nthSmallest(contours, rule, n, func(c models.Contour) int { return c.First().X })
	}
	if n, ok := rule.NthFromTop(); ok {
		return nthSmallest(contours, rule, n, func(c models.Contour) int { return c.First().Y })
	}

	switch rule {
	case config.Bigger:
		return Biggest(contours), nil
	case config.Smaller:
		return smallest(contours), nil
	case config.Left:
		return nthSmallest(contours, rule, 0, firstX)
	case config.Right:
		return nthSmallest(contours, rule, len(contours)-1, firstX)
	case config.Top:
		return nthSmallest(contours, rule, 0, firstY)
	case config.Bottom:
		return nthSmallest(contours, rule, len(contours)-1, firstY)
	case config.Central, config.Peripheral:
		return s.byLimbDistance(contours, rule)
	case config.SecondLargest:
		if len(contours) < 2 {
			return -1, &AmbiguousSelectionError{Rule: rule, Regions: len(contours), Reason: "no second largest region"}
		}
		return rankByArea(contours)[1], nil
	case config.TwoLargestLeft, config.TwoLargestRight:
		if len(contours) < 2 {
			return -1, &AmbiguousSelectionError{Rule: rule, Regions: len(contours), Reason: "fewer than two regions"}
		}
		first, second := TwoLargest(contours)
		pair := []int{first, second}
		sort.Ints(pair)
		pick := nthOf(contours, pair, 0)
		if rule == config.TwoLargestRight {
			pick = nthOf(contours, pair, 1)
		}
		return pick, nil
	}
	return -1, fmt.Errorf("unsupported selection rule %v", rule)
}

func firstX(c models.Contour) int { return c.First().X }
func firstY(c models.Contour) int { return c.First().Y }

// Biggest returns the index of the first contour with the largest area.
func Biggest(contours []models.Contour) int {
	best := 0
	for i, c := range contours {
		if c.Area > contours[best].Area {
			best = i
		}
	}
	return best
}

func smallest(contours []models.Contour) int {
	best := 0
	for i, c := range contours {
		if c.Area < contours[best].Area {
			best = i
		}
	}
	return best
}

// rankByArea orders contour indices by decreasing area; equal areas keep
// their tracing order.
func rankByArea(contours []models.Contour) []int {
	order := make([]int, len(contours))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return contours[order[a]].Area > contours[order[b]].Area
	})
	return order
}

// TwoLargest returns the indices of the largest and second largest
// contours. With a single contour both indices are 0.
func TwoLargest(contours []models.Contour) (int, int) {
	order := rankByArea(contours)
	if len(order) < 2 {
		return order[0], order[0]
	}
	return order[0], order[1]
}

// nthSmallest picks the contour whose key is the n-th smallest. Among equal
// keys the first traced contour wins.
func nthSmallest(contours []models.Contour, rule config.SelectionRule, n int, key func(models.Contour) int) (int, error) {
	if n < 0 || n >= len(contours) {
		return -1, &AmbiguousSelectionError{
			Rule:    rule,
			Regions: len(contours),
			Reason:  fmt.Sprintf("needs at least %d regions", n+1),
		}
	}
	keys := make([]int, len(contours))
	for i, c := range contours {
		keys[i] = key(c)
	}
	sorted := append([]int(nil), keys...)
	sort.Ints(sorted)
	for i, k := range keys {
		if k == sorted[n] {
			return i, nil
		}
	}
	return -1, &AmbiguousSelectionError{Rule: rule, Regions: len(contours), Reason: "no matching region"}
}

// nthOf applies the left-to-right ordering to a subset of contours and
// returns the original index of the n-th one.
func nthOf(contours []models.Contour, subset []int, n int) int {
	sub := make([]models.Contour, len(subset))
	for i, idx := range subset {
		sub[i] = contours[idx]
	}
	pick, _ := nthSmallest(sub, config.Left, n, firstX)
	return subset[pick]
}

// byLimbDistance selects the contour closest to (Central) or furthest from
// (Peripheral) the centre of the limb.
func (s *Selector) byLimbDistance(contours []models.Contour, rule config.SelectionRule) (int, error) {
	if s.Image == nil {
		return -1, fmt.Errorf("selection rule %v needs the slice image", rule)
	}
	distances := s.limbDistances(contours)

	best := 0
	for i, d := range distances {
		if rule == config.Central && d < distances[best] {
			best = i
		}
		if rule == config.Peripheral && d > distances[best] {
			best = i
		}
	}
	return best, nil
}

// limbDistances returns the squared distance of every contour centre from
// the limb centre. The limb is grown through pixels above the fat threshold
// starting at the largest bone.
func (s *Selector) limbDistances(contours []models.Contour) []float64 {
	seed := contours[Biggest(contours)].First()
	limb := segmentation.GrowRegion(s.Image, seed, s.FatThreshold)
	lx, ly := models.Centroid(limb.CoveredPoints())

	distances := make([]float64, len(contours))
	for i, c := range contours {
		cx, cy := models.Centroid(c.Points)
		distances[i] = (lx-cx)*(lx-cx) + (ly-cy)*(ly-cy)
	}
	return distances
}
