package models

// Label is the per-pixel state of a Sieve.
type Label uint8

const (
	// Empty pixels are outside the region
	Empty Label = iota

	// Member pixels belong to the region and are at or above the
	// threshold the sieve was built with
	Member

	// Enclosed pixels lie inside the region boundary but below the
	// threshold (marrow, cleaving chords across soft tissue)
	Enclosed
)

// Sieve is a per-pixel region mask over the image grid. Sieves are owned
// values: stages that modify a sieve work on a Clone.
type Sieve struct {
	Width  int
	Height int
	Labels []Label
}

// NewSieve allocates an empty sieve.
func NewSieve(width, height int) *Sieve {
	return &Sieve{
		Width:  width,
		Height: height,
		Labels: make([]Label, width*height),
	}
}

// Clone returns a deep copy.
func (s *Sieve) Clone() *Sieve {
	labels := make([]Label, len(s.Labels))
	copy(labels, s.Labels)
	return &Sieve{Width: s.Width, Height: s.Height, Labels: labels}
}

// InBounds reports whether (x, y) lies on the grid.
func (s *Sieve) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.Width && y < s.Height
}

// Covered reports whether (x, y) is inside the region, Member or Enclosed.
// Out-of-bounds pixels are never covered.
func (s *Sieve) Covered(x, y int) bool {
	if !s.InBounds(x, y) {
		return false
	}
	return s.Labels[x+y*s.Width] != Empty
}

// Marked reports whether (x, y) is a Member pixel.
func (s *Sieve) Marked(x, y int) bool {
	if !s.InBounds(x, y) {
		return false
	}
	return s.Labels[x+y*s.Width] == Member
}

// Set labels (x, y). Out-of-bounds writes are ignored.
func (s *Sieve) Set(x, y int, l Label) {
	if s.InBounds(x, y) {
		s.Labels[x+y*s.Width] = l
	}
}

// CoveredCount returns the number of non-empty pixels.
func (s *Sieve) CoveredCount() int {
	n := 0
	for _, l := range s.Labels {
		if l != Empty {
			n++
		}
	}
	return n
}

// MemberCount returns the number of Member pixels.
func (s *Sieve) MemberCount() int {
	n := 0
	for _, l := range s.Labels {
		if l == Member {
			n++
		}
	}
	return n
}

// CoveredPoints lists the covered pixels in row-major order.
func (s *Sieve) CoveredPoints() []Point {
	var pts []Point
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if s.Labels[x+y*s.Width] != Empty {
				pts = append(pts, Point{X: x, Y: y})
			}
		}
	}
	return pts
}

// Subset reports whether every covered pixel of s is covered in other.
func (s *Sieve) Subset(other *Sieve) bool {
	if len(s.Labels) != len(other.Labels) {
		return false
	}
	for i, l := range s.Labels {
		if l != Empty && other.Labels[i] == Empty {
			return false
		}
	}
	return true
}
