package polar

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/orientation"
	"pqctdensity/pkg/segmentation"
	"pqctdensity/pkg/selection"
)

// maxRadiusMargin extends the largest cortical radius so rays can step
// just past the periosteal border.
const maxRadiusMargin = 2.0

// DistributionResult holds the cortical radii and the layered cortical
// density per sector. Radii are in mm.
type DistributionResult struct {
	Sectors      int    `yaml:"sectors"`
	Divisions    int    `yaml:"divisions"`
	MarrowCenter Center `yaml:"marrowCenter"`

	// Anatomical borders found on the cortex mask
	EndocorticalRadii []float64 `yaml:"endocorticalRadii"`
	PericorticalRadii []float64 `yaml:"pericorticalRadii"`

	// Borders of the peeled cortex; equal to the anatomical ones when
	// peeling is disabled
	PeeledEndocorticalRadii []float64 `yaml:"peeledEndocorticalRadii"`
	PeeledPericorticalRadii []float64 `yaml:"peeledPericorticalRadii"`

	// DivisionDensities[d][s] is the mean density of division d, counted
	// from the endocortical side, in sector s
	DivisionDensities [][]float64 `yaml:"divisionDensities"`

	// RadialDistribution averages each division over sectors
	RadialDistribution []float64 `yaml:"radialDistribution"`

	// PolarDistribution averages each sector over divisions
	PolarDistribution []float64 `yaml:"polarDistribution"`

	// PeeledBMD is the mean density of the peeled cortex
	PeeledBMD float64 `yaml:"peeledBmd"`
}

// Distribution locates the endocortical and pericortical borders along every
// ray from the marrow centre and splits the cortex between them into equal
// divisions.
//
// Rays are processed in order from 0° to 359° and each ray starts at half the
// final radius of the previous one, so results depend on that order. Unless
// peeling is prevented, one pixel layer is eroded from the cortex before
// densities are sampled. Rays with fewer samples than divisions keep zero
// densities.
func Distribution(roi *selection.ROI, rot *orientation.Result, cfg *config.Config) *DistributionResult {
	width := cfg.Distribution.SectorWidth
	divisions := cfg.Distribution.Divisions
	sectors := models.NativeAngles / width

	res := &DistributionResult{
		Sectors:   sectors,
		Divisions: divisions,
	}

	cx, cy := roi.MarrowCenter()
	center := Center{X: cx, Y: cy}
	res.MarrowCenter = center

	cortex := roi.CortexMask
	peeled := segmentation.Erode(cortex)
	res.PeeledBMD = meanDensity(roi.Image, peeled)
	maxRadius := maxDistance(roi.Cortex, center) + maxRadiusMargin

	var endo, peri, peeledEndo, peeledPeri models.RayArray
	densities := make([]models.RayArray, divisions)

	radius := 0.0
	for angle := 0; angle < models.NativeAngles; angle++ {
		if angle > 0 {
			radius /= 2
		}
		r := newRay(center, angle)

		radius = r.expandTo(cortex, radius, maxRadius)
		endo[angle] = radius

		var samples []float64
		if cfg.Distribution.PreventPeeling {
			peeledEndo[angle] = radius
			start := radius
			radius = r.march(cortex, radius, maxRadius, nil)
			peri[angle] = radius
			peeledPeri[angle] = radius
			samples = r.samples(roi.Image, cortex, start, radius)
		} else {
			radius = r.expandTo(peeled, radius, maxRadius)
			peeledEndo[angle] = radius
			start := radius
			radius = r.march(peeled, radius+radialStep, maxRadius, nil)
			peeledPeri[angle] = radius
			samples = r.samples(roi.Image, peeled, start, radius)
			peri[angle] = r.march(cortex, radius, maxRadius, nil)
		}

		means, ok := divisionMeans(samples, divisions)
		if !ok {
			continue
		}
		for div, m := range means {
			densities[div][angle] = m
		}
	}

	spacing := roi.Image.PixelSpacing
	perm := &rot.Permutation
	res.EndocorticalRadii = sectorMeans(scaled(&endo, spacing), perm, width)
	res.PericorticalRadii = sectorMeans(scaled(&peri, spacing), perm, width)
	res.PeeledEndocorticalRadii = sectorMeans(scaled(&peeledEndo, spacing), perm, width)
	res.PeeledPericorticalRadii = sectorMeans(scaled(&peeledPeri, spacing), perm, width)

	res.DivisionDensities = make([][]float64, divisions)
	res.RadialDistribution = make([]float64, divisions)
	for div := range densities {
		res.DivisionDensities[div] = sectorMeans(&densities[div], perm, width)
		res.RadialDistribution[div] = floats.Sum(res.DivisionDensities[div]) / float64(sectors)
	}

	res.PolarDistribution = make([]float64, sectors)
	column := make([]float64, divisions)
	for s := range res.PolarDistribution {
		for div := range column {
			column[div] = res.DivisionDensities[div][s]
		}
		res.PolarDistribution[s] = floats.Sum(column) / float64(divisions)
	}

	return res
}

// meanDensity averages the densities under the covered pixels of mask, or
// returns 0 for an empty mask.
func meanDensity(img *models.CalibratedImage, mask *models.Sieve) float64 {
	points := mask.CoveredPoints()
	if len(points) == 0 {
		return 0
	}
	return stat.Mean(img.Values(points), nil)
}

// maxDistance returns the largest distance of points from c in pixels.
func maxDistance(points []models.Point, c Center) float64 {
	if len(points) == 0 {
		return 0
	}
	xs, ys := models.Coordinates(points)
	floats.AddConst(-c.X, xs)
	floats.AddConst(-c.Y, ys)
	distances := make([]float64, len(points))
	for i := range distances {
		distances[i] = math.Hypot(xs[i], ys[i])
	}
	return floats.Max(distances)
}
