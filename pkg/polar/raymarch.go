// Package polar implements the ray based analyses of the selected bone:
// cortical density distribution, concentric rings and mass distribution.
// Every analysis casts one ray per degree from a centre and bins the rays
// into sectors through the orientation permutation.
package polar

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"pqctdensity/internal/models"
)

// radialStep is the sub-pixel distance a ray advances per step.
const radialStep = 0.1

// lookahead lists the offsets, in pixels, checked ahead of a ray before it
// stops. A hit at any of them bridges a gap in the mask.
var lookahead = [...]float64{0, 0.5, 1, 2, 3, 4, 6}

// Center is a sub-pixel position in pixel coordinates.
type Center struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ray is a half line from a centre at one native angle.
type ray struct {
	cx, cy   float64
	cos, sin float64
}

func newRay(c Center, angle int) ray {
	theta := math.Pi / 180 * float64(angle)
	return ray{cx: c.X, cy: c.Y, cos: math.Cos(theta), sin: math.Sin(theta)}
}

// pixel returns the pixel containing the point at radius.
func (r ray) pixel(radius float64) (int, int) {
	return int(math.Floor(r.cx + radius*r.cos)), int(math.Floor(r.cy + radius*r.sin))
}

func (r ray) covered(mask *models.Sieve, radius float64) bool {
	x, y := r.pixel(radius)
	return mask.Covered(x, y)
}

func (r ray) density(img *models.CalibratedImage, radius float64) float64 {
	x, y := r.pixel(radius)
	return img.At(x, y)
}

// continues reports whether any lookahead position past radius is covered.
func (r ray) continues(mask *models.Sieve, radius float64) bool {
	for _, offset := range lookahead {
		if r.covered(mask, radius+offset) {
			return true
		}
	}
	return false
}

// expandTo advances radius until it reaches a covered pixel or maxRadius.
func (r ray) expandTo(mask *models.Sieve, radius, maxRadius float64) float64 {
	for !r.covered(mask, radius) && radius < maxRadius {
		radius += radialStep
	}
	return radius
}

// march advances radius while the mask continues ahead, calling visit at
// every position passed. It stops at maxRadius.
func (r ray) march(mask *models.Sieve, radius, maxRadius float64, visit func(radius float64)) float64 {
	for r.continues(mask, radius) && radius < maxRadius {
		if visit != nil {
			visit(radius)
		}
		radius += radialStep
	}
	return radius
}

// samples collects the densities of covered positions strictly between
// start and end.
func (r ray) samples(img *models.CalibratedImage, mask *models.Sieve, start, end float64) []float64 {
	steps := int((end - start) / radialStep)
	var out []float64
	for i := 1; i < steps; i++ {
		radius := start + float64(i)*radialStep
		if r.covered(mask, radius) {
			out = append(out, r.density(img, radius))
		}
	}
	return out
}

// divisionMeans splits samples into n runs of equal count and averages
// each run. It reports false when there are fewer samples than runs.
func divisionMeans(samples []float64, n int) ([]float64, bool) {
	if len(samples) < n {
		return nil, false
	}
	means := make([]float64, n)
	thickness := float64(len(samples))
	for div := range means {
		start := int(thickness * float64(div) / float64(n))
		end := int(thickness * float64(div+1) / float64(n))
		means[div] = stat.Mean(samples[start:end], nil)
	}
	return means, true
}

// forEachRay runs fn for every native angle, splitting the angles across
// numCores goroutines. fn must only write state owned by its angle.
func forEachRay(numCores int, fn func(angle int)) {
	if numCores < 1 {
		numCores = 1
	}

	var wg sync.WaitGroup
	raysPerCore := (models.NativeAngles + numCores - 1) / numCores

	for c := 0; c < numCores; c++ {
		wg.Add(1)

		go func(coreID int) {
			defer wg.Done()

			start := coreID * raysPerCore
			end := (coreID + 1) * raysPerCore
			if end > models.NativeAngles {
				end = models.NativeAngles
			}

			for angle := start; angle < end; angle++ {
				fn(angle)
			}
		}(c)
	}

	wg.Wait()
}
