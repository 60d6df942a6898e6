package polar

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/orientation"
)

// sector gathers the native rays landing in sector s. Slot k of the
// permutation decides which native ray lands in output position k.
func sector(values *models.RayArray, p *orientation.Permutation, width, s int, buf []float64) []float64 {
	for d := range buf[:width] {
		buf[d] = values[p[s*width+d]]
	}
	return buf[:width]
}

// sectorMeans averages native rays into 360/width sectors.
func sectorMeans(values *models.RayArray, p *orientation.Permutation, width int) []float64 {
	out := make([]float64, models.NativeAngles/width)
	buf := make([]float64, width)
	for s := range out {
		out[s] = stat.Mean(sector(values, p, width, s, buf), nil)
	}
	return out
}

// sectorSums adds native rays into 360/width sectors.
func sectorSums(values *models.RayArray, p *orientation.Permutation, width int) []float64 {
	out := make([]float64, models.NativeAngles/width)
	buf := make([]float64, width)
	for s := range out {
		out[s] = floats.Sum(sector(values, p, width, s, buf))
	}
	return out
}

// scaled returns values multiplied by factor.
func scaled(values *models.RayArray, factor float64) *models.RayArray {
	var out models.RayArray
	floats.ScaleTo(out[:], factor, values[:])
	return &out
}

// sieveCenter is the centroid of the covered pixels.
func sieveCenter(s *models.Sieve) Center {
	x, y := models.Centroid(s.CoveredPoints())
	return Center{X: x, Y: y}
}
