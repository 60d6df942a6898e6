package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"

	"pqctdensity/internal/models"
	"pqctdensity/pkg/config"
)

// createRawSlice builds a 16-bit slice with raw value x*100 + y
func createRawSlice(width, height int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(x*100 + y)})
		}
	}
	return img
}

func TestMedianFilter(t *testing.T) {
	data := make([]float64, 25)
	for i := range data {
		data[i] = 1
	}
	data[2*5+2] = 100
	data[1*5+3] = 50

	filtered := MedianFilter(data, 5, 5, 3, -7)
	if filtered[2*5+2] != 1 {
		t.Errorf("Expected the spike to be removed, got %v", filtered[2*5+2])
	}
	for _, i := range []int{0, 4, 20, 24, 2, 10} {
		if filtered[i] != -7 {
			t.Errorf("Expected frame value at %d, got %v", i, filtered[i])
		}
	}
	if data[2*5+2] != 100 {
		t.Error("MedianFilter modified its input")
	}
}

func TestWindowMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"three values", []float64{3, 1, 2}, 2},
		{"3x3 window with a spike", []float64{1, 1, 1, 1, 1000, 1, 2, 2, 2}, 1},
		{"even window takes the lower value", []float64{4, 1, 3, 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := windowMedian(tt.values); got != tt.want {
				t.Errorf("windowMedian = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlips(t *testing.T) {
	data := []float64{
		1, 2, 3,
		4, 5, 6,
	}
	rows := append([]float64(nil), data...)
	flipRows(rows, 3, 2)
	if want := []float64{4, 5, 6, 1, 2, 3}; !floats.Equal(rows, want) {
		t.Errorf("flipRows: expected %v, got %v", want, rows)
	}

	cols := append([]float64(nil), data...)
	flipColumns(cols, 3, 2)
	if want := []float64{3, 2, 1, 6, 5, 4}; !floats.Equal(cols, want) {
		t.Errorf("flipColumns: expected %v, got %v", want, cols)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	raw := createRawSlice(6, 4)

	pngPath := filepath.Join(dir, "slice.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatalf("Failed to create PNG: %v", err)
	}
	if err := png.Encode(f, raw); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	f.Close()

	tiffPath := filepath.Join(dir, "slice.tif")
	f, err = os.Create(tiffPath)
	if err != nil {
		t.Fatalf("Failed to create TIFF: %v", err)
	}
	if err := tiff.Encode(f, raw, nil); err != nil {
		t.Fatalf("Failed to encode TIFF: %v", err)
	}
	f.Close()

	cal := Calibration{Slope: 2, Intercept: -10, PixelSpacing: 0.4}

	for _, path := range []string{pngPath, tiffPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			img, err := Load(path, cal)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if img.Width != 6 || img.Height != 4 || img.PixelSpacing != 0.4 {
				t.Fatalf("Unexpected geometry %dx%d at %v mm", img.Width, img.Height, img.PixelSpacing)
			}
			if got := img.At(3, 2); got != 2*302-10 {
				t.Errorf("Expected density 594, got %v", got)
			}
			if img.Minimum != -10 {
				t.Errorf("Expected minimum -10, got %v", img.Minimum)
			}
		})
	}

	t.Run("mirrored", func(t *testing.T) {
		mirrored := cal
		mirrored.FlipHorizontal = true
		mirrored.FlipVertical = true
		img, err := Load(pngPath, mirrored)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		// (0,0) now holds the raw value of (5,3)
		if got := img.At(0, 0); got != 2*503-10 {
			t.Errorf("Expected density 996, got %v", got)
		}
	})

	t.Run("filtered", func(t *testing.T) {
		filtered := cal
		filtered.Filter = true
		img, err := Load(pngPath, filtered)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got := img.At(0, 0); got != -10 {
			t.Errorf("Expected frame value -10, got %v", got)
		}
		// Raw values are linear, so the median is the centre value
		if got := img.At(2, 1); got != 2*201-10 {
			t.Errorf("Expected density 392, got %v", got)
		}
	})
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.png"), Calibration{Slope: 1, PixelSpacing: 1}); err == nil {
		t.Error("Expected an error for a missing file")
	}

	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := Load(garbage, Calibration{Slope: 1, PixelSpacing: 1}); err == nil {
		t.Error("Expected an error for an undecodable file")
	}
}

func TestCalibrationFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cal := CalibrationFromConfig(cfg)
	if cal.Slope != 1.724 || cal.Intercept != -322 || !cal.Filter {
		t.Errorf("Unexpected calibration %+v", cal)
	}

	cfg.Calibration.NoFiltering = true
	if CalibrationFromConfig(cfg).Filter {
		t.Error("Expected filtering to be disabled")
	}
}

func TestSaveSieve(t *testing.T) {
	s := models.NewSieve(4, 3)
	s.Set(1, 1, models.Member)
	s.Set(2, 1, models.Enclosed)

	path := filepath.Join(t.TempDir(), "out", "sieve.png")
	if err := SaveSieve(s, path); err != nil {
		t.Fatalf("SaveSieve failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open saved sieve: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode saved sieve: %v", err)
	}

	tests := []struct {
		x, y int
		want uint8
	}{
		{1, 1, 255},
		{2, 1, 128},
		{0, 0, 0},
	}
	for _, tt := range tests {
		got := color.GrayModel.Convert(img.At(tt.x, tt.y)).(color.Gray).Y
		if got != tt.want {
			t.Errorf("Pixel (%d,%d): expected %d, got %d", tt.x, tt.y, tt.want, got)
		}
	}
}
