package segmentation

import (
	"pqctdensity/internal/models"
)

// minCleaveSeparation is the smallest index distance between the two
// points of a cleaving pair.
const minCleaveSeparation = 10

// CleaveEdge splits a traced loop that encloses two touching objects.
//
// For every point pair the shorter arc length between them is divided by
// their Euclidean distance. A single compact object keeps this ratio low
// (about 1.41 for a square and 1.57 for a circle), while two objects joined
// by a narrow bridge produce a large ratio across the bridge. While the
// largest ratio over pairs whose arc exceeds len(points)/minLengthDivisor
// reaches minRatio, the arc between the pair is cut off and closed with a
// straight chord. claim is called for every new chord pixel.
//
// The first returned loop is what remains of the input; cleaved loops
// follow in the order they were cut. Without a cleave the input is returned
// as the only loop.
func CleaveEdge(points []models.Point, minRatio, minLengthDivisor float64, claim func(models.Point)) [][]models.Point {
	remainder := make([]models.Point, len(points))
	copy(remainder, points)

	minArc := float64(len(points)) / minLengthDivisor
	var cleaved [][]models.Point

	for {
		n := len(remainder)
		highest := minRatio - 0.1
		c0, c1 := -1, -1

		for i := 0; i < n-minCleaveSeparation-1; i++ {
			for j := i + minCleaveSeparation; j < n; j++ {
				distance := remainder[i].Distance(remainder[j])
				arc := float64(min(j-i, n-j+i))
				ratio := arc / distance
				if ratio > highest && arc > minArc {
					highest = ratio
					c0, c1 = i, j
				}
			}
		}
		if c0 < 0 || highest < minRatio {
			break
		}

		var part []models.Point
		remainder, part = cleave(remainder, c0, c1, claim)
		cleaved = append(cleaved, part)
	}

	return append([][]models.Point{remainder}, cleaved...)
}

// cleave replaces points[c0:c1] with a chord from points[c0] towards
// points[c1] and returns the shortened loop and the cut-off loop, which is
// closed by the same chord walked backwards.
func cleave(points []models.Point, c0, c1 int, claim func(models.Point)) ([]models.Point, []models.Point) {
	start, target := points[c0], points[c1]
	span := float64(c1 - c0)
	dx := float64(target.X - start.X)
	dy := float64(target.Y - start.Y)

	chord := []models.Point{start}
	for k := c0; k < c1; k++ {
		rel := float64(k-c0) / span
		p := models.Point{
			X: int(dx*rel) + start.X,
			Y: int(dy*rel) + start.Y,
		}
		if p != chord[len(chord)-1] {
			chord = append(chord, p)
			if claim != nil {
				claim(p)
			}
		}
	}

	part := make([]models.Point, 0, len(chord)+c1-c0)
	for i := len(chord) - 1; i >= 0; i-- {
		part = append(part, chord[i])
	}
	part = append(part, points[c0+1:c1+1]...)

	remainder := make([]models.Point, 0, c0+len(chord)+len(points)-c1)
	remainder = append(remainder, points[:c0]...)
	remainder = append(remainder, chord...)
	remainder = append(remainder, points[c1:]...)

	return remainder, part
}
