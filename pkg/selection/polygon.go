package selection

import (
	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
)

// RestrictToPolygon returns a copy of img in which every pixel outside the
// polygon is set to the image minimum. The polygon vertices keep their
// densities.
func RestrictToPolygon(img *models.CalibratedImage, polygon []config.Vertex) (*models.CalibratedImage, error) {
	data := img.Data()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if !pointInPolygon(float64(x), float64(y), polygon) {
				data[img.Index(x, y)] = img.Minimum
			}
		}
	}
	for _, v := range polygon {
		if img.InBounds(v.X, v.Y) {
			data[img.Index(v.X, v.Y)] = img.At(v.X, v.Y)
		}
	}
	return img.WithData(data)
}

// pointInPolygon tests containment by casting a ray towards +x and counting
// edge crossings.
func pointInPolygon(px, py float64, polygon []config.Vertex) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := float64(polygon[i].X), float64(polygon[i].Y)
		xj, yj := float64(polygon[j].X), float64(polygon[j].Y)

		if (yi > py) != (yj > py) && px < (xj-xi)*(py-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
