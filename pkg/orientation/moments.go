package orientation

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pqctdensity/internal/models"
)

// Moments are second moments of a pixel set about its centroid, in pixel
// units.
type Moments struct {
	Ixx float64 // sum of x²
	Iyy float64 // sum of y²
	Ixy float64 // sum of x·y
}

// SecondMoments computes the second moments of points about their centroid.
func SecondMoments(points []models.Point) Moments {
	if len(points) == 0 {
		return Moments{}
	}
	xs, ys := models.Coordinates(points)
	floats.AddConst(-stat.Mean(xs, nil), xs)
	floats.AddConst(-stat.Mean(ys, nil), ys)
	return Moments{
		Ixx: floats.Dot(xs, xs),
		Iyy: floats.Dot(ys, ys),
		Ixy: floats.Dot(xs, ys),
	}
}

// negligibleMoment is the relative size below which the moment difference
// and product are treated as zero.
const negligibleMoment = 1e-9

// PrincipalAngle returns the angle that rotates the principal axes of m onto
// the image axes, folded into [-π/4, π/4].
func PrincipalAngle(ixx, iyy, ixy float64) float64 {
	alpha := math.Atan2(2*ixy, iyy-ixx) / 2
	if alpha > math.Pi/4 {
		alpha -= math.Pi / 2
	} else if alpha < -math.Pi/4 {
		alpha += math.Pi / 2
	}
	return alpha
}

// rotatedMoments evaluates the two moments in the frame rotated by -alpha.
func rotatedMoments(ixx, iyy, ixy, alpha float64) (float64, float64) {
	angle := 2 * -alpha
	mean := (iyy + ixx) / 2
	half := (iyy - ixx) / 2
	first := mean + half*math.Cos(angle) - ixy*math.Sin(angle)
	second := mean - half*math.Cos(angle) + ixy*math.Sin(angle)
	return first, second
}

// PrincipalMoments returns the minimal and maximal moments of inertia in the
// frame rotated by -alpha, where alpha is the principal angle.
func PrincipalMoments(ixx, iyy, ixy, alpha float64) (min, max float64) {
	first, second := rotatedMoments(ixx, iyy, ixy, alpha)
	if first > second {
		return second, first
	}
	return first, second
}

// MomentAlpha returns the rotation that aligns the larger principal moment
// of m with the horizontal axis. A set without a preferred direction, such
// as a disk, yields 0.
func MomentAlpha(m Moments) float64 {
	scale := math.Abs(m.Ixx) + math.Abs(m.Iyy)
	if scale == 0 || (math.Abs(m.Iyy-m.Ixx) <= negligibleMoment*scale &&
		math.Abs(m.Ixy) <= negligibleMoment*scale) {
		return 0
	}

	alpha := PrincipalAngle(m.Ixx, m.Iyy, m.Ixy)
	first, second := rotatedMoments(m.Ixx, m.Iyy, m.Ixy, alpha)

	// Always rotate the maximal bending axis onto the horizontal axis
	if first > second {
		if alpha < 0 {
			alpha += math.Pi / 2
		} else {
			alpha -= math.Pi / 2
		}
	}
	return alpha
}
