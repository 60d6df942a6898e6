package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"pqctdensity/internal/models"
)

// Gray levels of the exported sieve
const (
	memberGray   = 255
	enclosedGray = 128
)

// SieveImage renders a sieve as an 8-bit mask: members white, enclosed
// pixels gray, the rest black.
func SieveImage(s *models.Sieve) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			switch s.Labels[x+y*s.Width] {
			case models.Member:
				img.SetGray(x, y, color.Gray{Y: memberGray})
			case models.Enclosed:
				img.SetGray(x, y, color.Gray{Y: enclosedGray})
			}
		}
	}
	return img
}

// SaveSieve writes a sieve as a PNG mask, creating the parent directory if
// needed.
func SaveSieve(s *models.Sieve, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, SieveImage(s))
}
