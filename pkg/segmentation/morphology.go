package segmentation

import (
	"pqctdensity/internal/models"
)

// Erode peels one pixel layer off the sieve: a covered pixel with an empty
// 4-neighbour is removed. Pixels outside the grid count as empty, so
// repeated erosion always ends in an empty sieve. The input is not modified.
func Erode(s *models.Sieve) *models.Sieve {
	out := s.Clone()
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if !s.Covered(x, y) {
				continue
			}
			for _, n := range fourNeighbours {
				if !s.Covered(x+n.X, y+n.Y) {
					out.Labels[x+y*s.Width] = models.Empty
					break
				}
			}
		}
	}
	return out
}

// ThresholdSieve marks every pixel at or above threshold as a Member,
// regardless of connectivity.
func ThresholdSieve(img *models.CalibratedImage, threshold float64) *models.Sieve {
	s := models.NewSieve(img.Width, img.Height)
	for i := range s.Labels {
		if img.AtIndex(i) >= threshold {
			s.Labels[i] = models.Member
		}
	}
	return s
}

// GrowRegion returns the 4-connected region of pixels at or above threshold
// reachable from seed. The seed itself is always part of the region.
func GrowRegion(img *models.CalibratedImage, seed models.Point, threshold float64) *models.Sieve {
	s := models.NewSieve(img.Width, img.Height)
	if !img.InBounds(seed.X, seed.Y) {
		return s
	}

	s.Set(seed.X, seed.Y, models.Member)
	queue := []models.Point{seed}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range fourNeighbours {
			q := models.Point{X: p.X + n.X, Y: p.Y + n.Y}
			if !img.InBounds(q.X, q.Y) || s.Covered(q.X, q.Y) || img.At(q.X, q.Y) < threshold {
				continue
			}
			s.Set(q.X, q.Y, models.Member)
			queue = append(queue, q)
		}
	}
	return s
}
