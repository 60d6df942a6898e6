package segmentation

import (
	"math"

	"pqctdensity/internal/models"
)

// findFillSeed looks for an interior starting pixel by steering clockwise
// from the direction of the next boundary point. The first unmarked bone
// pixel found is returned; reaching a marked pixel ends the search around
// that boundary point.
func findFillSeed(marked []bool, loop []models.Point, img *models.CalibratedImage, threshold float64) (models.Point, bool) {
	for j := 0; j < len(loop)-1; j++ {
		p := loop[j]
		direction := math.Atan2(float64(loop[j+1].Y-p.Y), float64(loop[j+1].X-p.X))
		for i := 0; i < 8; i++ {
			direction += math.Pi / 4
			s := steer(direction)
			for !img.InBounds(p.X+s.X, p.Y+s.Y) {
				direction += math.Pi / 4
				s = steer(direction)
			}

			q := models.Point{X: p.X + s.X, Y: p.Y + s.Y}
			idx := img.Index(q.X, q.Y)
			if !marked[idx] && img.AtIndex(idx) >= threshold {
				return q, true
			}
			if marked[idx] {
				break
			}
		}
	}
	return models.Point{}, false
}

func steer(direction float64) models.Point {
	return models.Point{
		X: int(math.Round(math.Cos(direction))),
		Y: int(math.Round(math.Sin(direction))),
	}
}

// FillSieve fills the region enclosed by contour. Boundary pixels are marked
// first; then interior seeds are flooded 4-connected. A flood that reaches
// the image border leaks and is discarded. Filled pixels at or above
// threshold become Member pixels, the rest (marrow, chord pixels) Enclosed.
//
// A contour that never yields a closed fill produces a boundary-only sieve.
func FillSieve(img *models.CalibratedImage, contour models.Contour, threshold float64) *models.Sieve {
	w, h := img.Width, img.Height
	mask := make([]bool, img.Len())
	for _, p := range contour.Points {
		if img.InBounds(p.X, p.Y) {
			mask[img.Index(p.X, p.Y)] = true
		}
	}

	// Seeds whose flood leaked stay marked so the search moves on, but
	// they are not part of the region
	var leaked []int
	for {
		seed, ok := findFillSeed(mask, contour.Points, img, threshold)
		if !ok {
			break
		}
		seedIdx := img.Index(seed.X, seed.Y)
		mask[seedIdx] = true

		work := make([]bool, len(mask))
		copy(work, mask)
		if floodEnclosed(work, w, h, seed) {
			mask = work
		} else {
			leaked = append(leaked, seedIdx)
		}
	}
	for _, idx := range leaked {
		mask[idx] = false
	}

	sieve := models.NewSieve(w, h)
	for idx, in := range mask {
		if !in {
			continue
		}
		if img.AtIndex(idx) >= threshold {
			sieve.Labels[idx] = models.Member
		} else {
			sieve.Labels[idx] = models.Enclosed
		}
	}
	return sieve
}

// floodEnclosed marks everything 4-connected to seed and reports whether
// the fill stayed away from the image border.
func floodEnclosed(marked []bool, width, height int, seed models.Point) bool {
	stack := []models.Point{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		marked[p.X+p.Y*width] = true
		if p.X < 1 || p.X >= width-1 || p.Y < 1 || p.Y >= height-1 {
			return false
		}
		for _, n := range fourNeighbours {
			q := models.Point{X: p.X + n.X, Y: p.Y + n.Y}
			if !marked[q.X+q.Y*width] {
				stack = append(stack, q)
			}
		}
	}
	return true
}
