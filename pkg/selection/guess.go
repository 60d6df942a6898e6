package selection

import (
	"math"

	"pqctdensity/internal/models"
)

// stackedRatio is how much larger the vertical offset between the two
// largest bones must be than the horizontal one for them to count as
// stacked.
const stackedRatio = 1.1

// GuessStacked reports whether the two largest bones lie above each other
// rather than side by side, comparing the offset of their first traced
// points. ok is false when there are fewer than two bones.
func GuessStacked(contours []models.Contour) (stacked, ok bool) {
	if len(contours) < 2 {
		return false, false
	}
	first, second := TwoLargest(contours)
	a, b := contours[first].First(), contours[second].First()
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return dy > stackedRatio*dx, true
}

// GuessFlip guesses whether the distribution should be mirrored so that
// left and right limbs produce comparable sectors.
//
// With larger set, the result only depends on whether the largest bone lies
// right of (below, when stacked) the second largest. Otherwise the selected
// bone is compared to the other of the two largest bones; a selection that
// is neither of them yields false.
func GuessFlip(contours []models.Contour, selection int, stacked, larger bool) bool {
	if len(contours) < 2 {
		return false
	}
	first, second := TwoLargest(contours)
	coord := func(i int) int {
		if stacked {
			return contours[i].First().Y
		}
		return contours[i].First().X
	}

	if larger {
		return coord(first) >= coord(second)
	}
	switch selection {
	case first:
		return coord(selection) > coord(second)
	case second:
		return coord(selection) > coord(first)
	}
	return false
}
