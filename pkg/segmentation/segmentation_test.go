package segmentation

import (
	"errors"
	"testing"

	"pqctdensity/internal/models"
)

const (
	bone       = 1000.0
	background = 0.0
	threshold  = 500.0
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

func diskPattern(cx, cy, r int) func(x, y int) float64 {
	return func(x, y int) float64 {
		if inDisk(x, y, cx, cy, r) {
			return bone
		}
		return background
	}
}

func TestTraceSquare(t *testing.T) {
	img := createTestImage(t, 7, 7, func(x, y int) float64 {
		if x >= 2 && x <= 4 && y >= 2 && y <= 4 {
			return bone
		}
		return background
	})

	contours, err := TraceEdges(img, threshold, DefaultTraceOptions())
	if err != nil {
		t.Fatalf("TraceEdges failed: %v", err)
	}
	if len(contours) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(contours))
	}

	want := []models.Point{
		{X: 2, Y: 2}, {X: 3, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 3},
		{X: 4, Y: 4}, {X: 3, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 3},
	}
	c := contours[0]
	if c.Len() != len(want) {
		t.Fatalf("Expected %d boundary points, got %d: %v", len(want), c.Len(), c.Points)
	}
	for i, p := range want {
		if c.Points[i] != p {
			t.Errorf("Point %d: expected %v, got %v", i, p, c.Points[i])
		}
	}
	if c.Area != 1 {
		t.Errorf("Expected interior area 1, got %d", c.Area)
	}
}

func TestTraceTwoDisks(t *testing.T) {
	img := createTestImage(t, 60, 40, func(x, y int) float64 {
		if inDisk(x, y, 15, 20, 10) || inDisk(x, y, 45, 20, 6) {
			return bone
		}
		return background
	})

	contours, err := TraceEdges(img, threshold, DefaultTraceOptions())
	if err != nil {
		t.Fatalf("TraceEdges failed: %v", err)
	}
	if len(contours) != 2 {
		t.Fatalf("Expected 2 contours, got %d", len(contours))
	}

	// Row-major scanning reaches the top of the larger disk first
	if contours[0].First() != (models.Point{X: 15, Y: 10}) {
		t.Errorf("Expected first contour to start at (15,10), got %v", contours[0].First())
	}
	if contours[0].Area <= contours[1].Area {
		t.Errorf("Expected larger disk to have larger area: %d <= %d", contours[0].Area, contours[1].Area)
	}
}

func TestNoContourFound(t *testing.T) {
	tests := []struct {
		name    string
		pattern func(x, y int) float64
		max     float64
	}{
		{"empty slice", func(x, y int) float64 { return background }, background},
		{"isolated pixel", func(x, y int) float64 {
			if x == 5 && y == 5 {
				return bone
			}
			return background
		}, bone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createTestImage(t, 12, 12, tt.pattern)
			_, err := TraceEdges(img, threshold, DefaultTraceOptions())

			var nerr *NoContourFoundError
			if !errors.As(err, &nerr) {
				t.Fatalf("Expected NoContourFoundError, got %v", err)
			}
			if nerr.Threshold != threshold || nerr.Min != background || nerr.Max != tt.max {
				t.Errorf("Unexpected error context: %+v", nerr)
			}
		})
	}
}

func TestFillSieveAnnulus(t *testing.T) {
	const cx, cy, r1, r2 = 20, 20, 6, 12
	img := createTestImage(t, 41, 41, func(x, y int) float64 {
		if inDisk(x, y, cx, cy, r2) && !inDisk(x, y, cx, cy, r1-1) {
			return bone
		}
		return background
	})

	contours, err := TraceEdges(img, threshold, DefaultTraceOptions())
	if err != nil {
		t.Fatalf("TraceEdges failed: %v", err)
	}
	if len(contours) != 1 {
		t.Fatalf("Expected the marrow cavity to belong to a single contour, got %d", len(contours))
	}

	sieve := FillSieve(img, contours[0], threshold)

	disk, annulus := 0, 0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if inDisk(x, y, cx, cy, r2) {
				disk++
				if img.At(x, y) >= threshold {
					annulus++
				}
			}

			// Member pixels never fall below the threshold
			if sieve.Marked(x, y) && img.At(x, y) < threshold {
				t.Fatalf("Member pixel (%d,%d) is below threshold", x, y)
			}
		}
	}

	if sieve.CoveredCount() != disk {
		t.Errorf("Expected %d covered pixels, got %d", disk, sieve.CoveredCount())
	}
	if sieve.MemberCount() != annulus {
		t.Errorf("Expected %d member pixels, got %d", annulus, sieve.MemberCount())
	}
	if !sieve.Covered(cx, cy) || sieve.Marked(cx, cy) {
		t.Error("Expected the marrow centre to be enclosed but not a member")
	}
}

func TestFillSieveLeak(t *testing.T) {
	img := createTestImage(t, 20, 20, func(x, y int) float64 { return bone })

	// An open boundary: every fill escapes to the image border
	var line models.Contour
	for x := 5; x < 15; x++ {
		line.Points = append(line.Points, models.Point{X: x, Y: 10})
	}

	sieve := FillSieve(img, line, threshold)
	if sieve.CoveredCount() != line.Len() {
		t.Errorf("Expected a boundary-only sieve of %d pixels, got %d", line.Len(), sieve.CoveredCount())
	}
	for _, p := range line.Points {
		if !sieve.Marked(p.X, p.Y) {
			t.Errorf("Boundary pixel %v missing from sieve", p)
		}
	}
}

func TestErode(t *testing.T) {
	tests := []struct {
		name    string
		pattern func(x, y int) float64
	}{
		{"disk", diskPattern(15, 15, 9)},
		{"touching border", func(x, y int) float64 {
			if x < 8 {
				return bone
			}
			return background
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createTestImage(t, 30, 30, tt.pattern)
			sieve := ThresholdSieve(img, threshold)
			original := sieve.Clone()

			prev := sieve
			for i := 0; prev.CoveredCount() > 0; i++ {
				if i > 30 {
					t.Fatal("Erosion did not reach an empty sieve")
				}
				next := Erode(prev)
				if !next.Subset(prev) {
					t.Fatalf("Erosion step %d is not a subset of its input", i)
				}
				if next.CoveredCount() >= prev.CoveredCount() {
					t.Fatalf("Erosion step %d did not shrink: %d -> %d", i, prev.CoveredCount(), next.CoveredCount())
				}
				prev = next
			}

			for i := range sieve.Labels {
				if sieve.Labels[i] != original.Labels[i] {
					t.Fatal("Erode modified its input")
				}
			}
		})
	}
}

func TestGrowRegion(t *testing.T) {
	// Two blocks joined by a one pixel wide corridor, plus an isolated block
	img := createTestImage(t, 30, 10, func(x, y int) float64 {
		switch {
		case x >= 1 && x <= 5 && y >= 1 && y <= 5:
			return bone
		case x >= 6 && x <= 9 && y == 3:
			return bone
		case x >= 10 && x <= 14 && y >= 1 && y <= 5:
			return bone
		case x >= 20 && x <= 24 && y >= 1 && y <= 5:
			return bone
		}
		return background
	})

	region := GrowRegion(img, models.Point{X: 1, Y: 1}, threshold)
	if want := 25 + 4 + 25; region.CoveredCount() != want {
		t.Errorf("Expected %d pixels, got %d", want, region.CoveredCount())
	}
	if region.Covered(20, 1) {
		t.Error("Isolated block should not be reached")
	}
}

// dumbbell is two disks joined by a two pixel wide bridge
func dumbbell(x, y int) float64 {
	if inDisk(x, y, 12, 20, 8) || inDisk(x, y, 40, 20, 8) {
		return bone
	}
	if x >= 12 && x <= 40 && (y == 20 || y == 21) {
		return bone
	}
	return background
}

func TestCleavingDumbbell(t *testing.T) {
	img := createTestImage(t, 56, 40, dumbbell)

	merged, err := TraceEdges(img, threshold, DefaultTraceOptions())
	if err != nil {
		t.Fatalf("TraceEdges without cleaving failed: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("Expected one merged contour without cleaving, got %d", len(merged))
	}

	opts := DefaultTraceOptions()
	opts.AllowCleaving = true
	split, err := TraceEdges(img, threshold, opts)
	if err != nil {
		t.Fatalf("TraceEdges with cleaving failed: %v", err)
	}
	if len(split) != 2 {
		t.Fatalf("Expected two contours with cleaving, got %d", len(split))
	}

	total := 0
	for i, c := range split {
		if c.Area < 100 {
			t.Errorf("Contour %d has area %d, expected a full disk interior", i, c.Area)
		}
		total += c.Area
	}
	if total != merged[0].Area {
		t.Errorf("Cleaved areas sum to %d, merged area is %d", total, merged[0].Area)
	}

	// The chord cuts the bridge, which spans x = 20..32
	left, right := split[0], split[1]
	for _, p := range left.Points {
		if p.X > 31 {
			t.Fatalf("Remainder contour reaches the right disk at %v", p)
		}
	}
	for _, p := range right.Points {
		if p.X < 21 {
			t.Fatalf("Cleaved contour reaches the left disk at %v", p)
		}
	}
}

func TestCleaveEdgeKeepsCompactLoop(t *testing.T) {
	// Square boundary, ratio never exceeds sqrt(2)
	var square []models.Point
	for x := 0; x < 10; x++ {
		square = append(square, models.Point{X: x, Y: 0})
	}
	for y := 1; y < 10; y++ {
		square = append(square, models.Point{X: 9, Y: y})
	}
	for x := 8; x >= 0; x-- {
		square = append(square, models.Point{X: x, Y: 9})
	}
	for y := 8; y > 0; y-- {
		square = append(square, models.Point{X: 0, Y: y})
	}

	claimed := 0
	loops := CleaveEdge(square, 3.0, 6.0, func(models.Point) { claimed++ })
	if len(loops) != 1 || len(loops[0]) != len(square) {
		t.Fatalf("Expected the square to stay intact, got %d loops", len(loops))
	}
	if claimed != 0 {
		t.Errorf("Expected no chord pixels, got %d", claimed)
	}
}
