package orientation

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
	"pqctdensity/pkg/selection"
)

// createTestImage builds a calibrated slice from a density pattern
func createTestImage(t *testing.T, width, height int, pattern func(x, y int) float64) *models.CalibratedImage {
	t.Helper()
	data := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data[x+y*width] = pattern(x, y)
		}
	}
	img, err := models.NewCalibratedImage(width, height, 0.5, data)
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}
	return img
}

func inDisk(x, y, cx, cy, r int) bool {
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}

// ellipsePoints returns the pixels of an ellipse with semi-axes a and b whose
// long axis is rotated by theta.
func ellipsePoints(a, b, theta float64) []models.Point {
	var points []models.Point
	limit := int(a) + 1
	for y := -limit; y <= limit; y++ {
		for x := -limit; x <= limit; x++ {
			u := float64(x)*math.Cos(theta) + float64(y)*math.Sin(theta)
			v := -float64(x)*math.Sin(theta) + float64(y)*math.Cos(theta)
			if (u/a)*(u/a)+(v/b)*(v/b) <= 1 {
				points = append(points, models.Point{X: x + 50, Y: y + 50})
			}
		}
	}
	return points
}

// axisDifference returns the difference of two axis angles modulo π.
func axisDifference(a, b float64) float64 {
	d := math.Mod(a-b, math.Pi)
	if d > math.Pi/2 {
		d -= math.Pi
	} else if d < -math.Pi/2 {
		d += math.Pi
	}
	return d
}

func TestPermutationIsBijection(t *testing.T) {
	for _, flip := range []bool{false, true} {
		for alpha := -2 * math.Pi; alpha <= 2*math.Pi; alpha += 0.137 {
			for _, width := range []int{1, 5, 10, 45, 90} {
				res := NewResult(alpha, width, flip)
				if !res.Permutation.Valid() {
					t.Fatalf("Permutation is not a bijection for alpha=%f width=%d flip=%v", alpha, width, flip)
				}
				if !res.ColorPermutation.Valid() {
					t.Fatalf("Color permutation is not a bijection for alpha=%f width=%d flip=%v", alpha, width, flip)
				}
			}
		}
	}
}

func TestNewPermutation(t *testing.T) {
	tests := []struct {
		name  string
		index int
		flip  bool
		slot  int
		want  int
	}{
		{"identity", 0, false, 0, 0},
		{"identity last", 0, false, 359, 359},
		{"shift start", 10, false, 0, 350},
		{"shift wraps", 10, false, 10, 0},
		{"negative index", -5, false, 0, 5},
		{"index above full turn", 370, false, 0, 350},
		{"mirrored", 0, true, 0, 359},
		{"mirrored shift", -5, true, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPermutation(tt.index, tt.flip)
			if p[tt.slot] != tt.want {
				t.Errorf("Expected slot %d to hold %d, got %d", tt.slot, tt.want, p[tt.slot])
			}
		})
	}
}

func TestPermutationApply(t *testing.T) {
	var rays models.RayArray
	for i := range rays {
		rays[i] = float64(i)
	}
	out := NewPermutation(90, false).Apply(&rays)
	if out[0] != 270 || out[90] != 0 {
		t.Errorf("Unexpected reordering: slot 0 = %v, slot 90 = %v", out[0], out[90])
	}
}

func TestNewResult(t *testing.T) {
	res := NewResult(0, 10, false)
	if res.RotationCorrection != 5 || res.RotationIndex != 5 {
		t.Errorf("Expected correction 5 and index 5, got %v and %d", res.RotationCorrection, res.RotationIndex)
	}
	if res.Permutation[0] != 355 || res.ColorPermutation[0] != 5 {
		t.Errorf("Unexpected permutation starts %d and %d", res.Permutation[0], res.ColorPermutation[0])
	}

	flipped := NewResult(math.Pi/6, 10, true)
	if flipped.RotationCorrection != -5 || flipped.RotationIndex != 25 {
		t.Errorf("Expected correction -5 and index 25, got %v and %d", flipped.RotationCorrection, flipped.RotationIndex)
	}
	if !flipped.Flip {
		t.Error("Expected the result to be mirrored")
	}
}

func TestMomentAlphaDisk(t *testing.T) {
	var disk []models.Point
	for y := 0; y < 41; y++ {
		for x := 0; x < 41; x++ {
			if inDisk(x, y, 20, 20, 15) {
				disk = append(disk, models.Point{X: x, Y: y})
			}
		}
	}
	if alpha := MomentAlpha(SecondMoments(disk)); math.Abs(alpha) > 1e-9 {
		t.Errorf("Expected alpha 0 for a disk, got %f", alpha)
	}
	if alpha := MomentAlpha(Moments{}); alpha != 0 {
		t.Errorf("Expected alpha 0 for empty moments, got %f", alpha)
	}
}

func TestMomentAlphaEllipse(t *testing.T) {
	tests := []struct {
		name  string
		theta float64
		want  float64
	}{
		{"horizontal", 0, 0},
		{"vertical", math.Pi / 2, -math.Pi / 2},
		{"thirty degrees", math.Pi / 6, -math.Pi / 6},
		{"minus twenty degrees", -math.Pi / 9, math.Pi / 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alpha := MomentAlpha(SecondMoments(ellipsePoints(20, 8, tt.theta)))
			if math.Abs(axisDifference(alpha, tt.want)) > 0.02 {
				t.Errorf("Expected alpha %f, got %f", tt.want, alpha)
			}
		})
	}
}

func TestPrincipalMomentsMatchEigenvalues(t *testing.T) {
	for _, theta := range []float64{0.1, 0.5, 1.0, 2.0, -0.7} {
		m := SecondMoments(ellipsePoints(18, 7, theta))

		sym := mat.NewSymDense(2, []float64{m.Ixx, m.Ixy, m.Ixy, m.Iyy})
		var eig mat.EigenSym
		if ok := eig.Factorize(sym, true); !ok {
			t.Fatalf("Failed to factorize moment tensor for theta=%f", theta)
		}
		values := eig.Values(nil)

		alpha := PrincipalAngle(m.Ixx, m.Iyy, m.Ixy)
		imin, imax := PrincipalMoments(m.Ixx, m.Iyy, m.Ixy, alpha)
		if math.Abs(imin-values[0]) > 1e-6*values[1] || math.Abs(imax-values[1]) > 1e-6*values[1] {
			t.Errorf("theta=%f: expected (%f, %f), got (%f, %f)", theta, values[0], values[1], imin, imax)
		}

		// The long axis is the eigenvector of the larger eigenvalue
		var vectors mat.Dense
		eig.VectorsTo(&vectors)
		axis := math.Atan2(vectors.At(1, 1), vectors.At(0, 1))
		if d := axisDifference(-MomentAlpha(m), axis); math.Abs(d) > 0.03 {
			t.Errorf("theta=%f: rotation misses the long axis %f by %f", theta, axis, d)
		}
	}
}

func TestSolveMomentAlignment(t *testing.T) {
	img := createTestImage(t, 50, 50, func(x, y int) float64 {
		if inDisk(x, y, 25, 25, 12) {
			return 1000
		}
		return 0
	})
	cfg := config.DefaultConfig()
	roi, err := selection.NewROI(img, cfg, cfg.Thresholds.Area)
	if err != nil {
		t.Fatalf("NewROI failed: %v", err)
	}

	for _, rule := range []config.RotationRule{config.MomentAlignment, config.AllBonesMomentAlignment} {
		t.Run(rule.String(), func(t *testing.T) {
			cfg.Selection.RotationRule = rule
			res, err := Solve(roi, cfg)
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			if math.Abs(res.Alpha) > 1e-9 {
				t.Errorf("Expected alpha 0 for a disk, got %f", res.Alpha)
			}
			if res.RotationIndex != 5 {
				t.Errorf("Expected rotation index 5, got %d", res.RotationIndex)
			}
		})
	}
}

func TestSolveManual(t *testing.T) {
	img := createTestImage(t, 40, 40, func(x, y int) float64 {
		if inDisk(x, y, 20, 20, 10) {
			return 1000
		}
		return 0
	})
	cfg := config.DefaultConfig()
	cfg.Rotation.Manual = true
	cfg.Rotation.ManualAlphaDegrees = 30
	roi, err := selection.NewROI(img, cfg, cfg.Thresholds.Area)
	if err != nil {
		t.Fatalf("NewROI failed: %v", err)
	}

	res, err := Solve(roi, cfg)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if math.Abs(res.Alpha-math.Pi/6) > 1e-12 {
		t.Errorf("Expected alpha π/6, got %f", res.Alpha)
	}
	if res.RotationIndex != 35 {
		t.Errorf("Expected rotation index 35, got %d", res.RotationIndex)
	}
}

func TestSolveFurthestPoint(t *testing.T) {
	img := createTestImage(t, 64, 64, func(x, y int) float64 {
		if inDisk(x, y, 30, 30, 10) || (x >= 38 && x <= 50 && y >= 29 && y <= 31) {
			return 1000
		}
		return 0
	})
	cfg := config.DefaultConfig()
	cfg.Selection.RotationRule = config.FurthestPoint
	roi, err := selection.NewROI(img, cfg, cfg.Thresholds.Area)
	if err != nil {
		t.Fatalf("NewROI failed: %v", err)
	}

	res, err := Solve(roi, cfg)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if math.Abs(res.Alpha-math.Pi) > 0.15 {
		t.Errorf("Expected alpha close to π for a spike to the right, got %f", res.Alpha)
	}
}

func TestSolveRelativeBone(t *testing.T) {
	twoBones := createTestImage(t, 60, 40, func(x, y int) float64 {
		if inDisk(x, y, 15, 20, 8) || inDisk(x, y, 45, 20, 5) {
			return 1000
		}
		return 0
	})
	stacked := createTestImage(t, 40, 60, func(x, y int) float64 {
		if inDisk(x, y, 15, 15, 8) || inDisk(x, y, 15, 45, 5) {
			return 1000
		}
		return 0
	})

	tests := []struct {
		name string
		img  *models.CalibratedImage
		rule config.RotationRule
		want float64
	}{
		{"other bone already right", twoBones, config.NotSelectedToRight, 0},
		{"selected bone to the right", twoBones, config.SelectedToRight, math.Pi},
		{"other bone below", stacked, config.NotSelectedToRight, math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Selection.RotationRule = tt.rule
			roi, err := selection.NewROI(tt.img, cfg, cfg.Thresholds.Area)
			if err != nil {
				t.Fatalf("NewROI failed: %v", err)
			}

			res, err := Solve(roi, cfg)
			if err != nil {
				t.Fatalf("Solve failed: %v", err)
			}
			if math.Abs(math.Abs(res.Alpha)-tt.want) > 1e-9 {
				t.Errorf("Expected |alpha| %f, got %f", tt.want, res.Alpha)
			}
			if math.Abs(res.DistanceBetweenBones-15) > 1e-9 {
				t.Errorf("Expected 15 mm between bones, got %f", res.DistanceBetweenBones)
			}
		})
	}
}

func TestSolveRelativeBoneNeedsSecondBone(t *testing.T) {
	img := createTestImage(t, 40, 40, func(x, y int) float64 {
		if inDisk(x, y, 20, 20, 10) {
			return 1000
		}
		return 0
	})
	cfg := config.DefaultConfig()
	cfg.Selection.RotationRule = config.SelectedToRight
	roi, err := selection.NewROI(img, cfg, cfg.Thresholds.Area)
	if err != nil {
		t.Fatalf("NewROI failed: %v", err)
	}

	_, err = Solve(roi, cfg)
	var aerr *selection.AmbiguousSelectionError
	if !errors.As(err, &aerr) {
		t.Fatalf("Expected AmbiguousSelectionError, got %v", err)
	}
}
