// Package segmentation traces bone outlines in a calibrated slice and turns
// them into region masks.
//
// Edges are followed by steering: the tracer keeps a heading, turns
// counter-clockwise while the pixel ahead is bone and clockwise while it is
// not. Every traced loop is then claimed by flood-filling its interior; loops
// whose fill reaches the image border are open and discarded.
package segmentation

import (
	"pqctdensity/internal/models"
)

// steps are the eight compass headings. With y pointing down, increasing the
// heading index turns clockwise on screen.
var steps = [8]models.Point{
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
}

// maxVisits is how many times a single pixel may appear in one trace.
const maxVisits = 3

func heading(k int) models.Point {
	return steps[((k%8)+8)%8]
}

// TraceOptions controls edge tracing.
type TraceOptions struct {
	// AllowCleaving splits loops that enclose two touching objects
	AllowCleaving bool

	// CleaveMinRatio is the arc/chord ratio that triggers a cleave
	CleaveMinRatio float64

	// CleaveMinLengthDivisor limits cleaving to arcs longer than
	// loop length / divisor
	CleaveMinLengthDivisor float64
}

// DefaultTraceOptions returns tracing options with cleaving disabled and the
// usual cleaving parameters.
func DefaultTraceOptions() TraceOptions {
	return TraceOptions{
		CleaveMinRatio:         3.0,
		CleaveMinLengthDivisor: 6.0,
	}
}

// tracer holds the claim state of a single TraceEdges run.
type tracer struct {
	img       *models.CalibratedImage
	threshold float64

	// claimed marks pixels owned by an earlier trace or fill
	claimed []bool

	// visits counts how often the current trace passed a pixel
	visits  []uint8
	touched []int
}

func newTracer(img *models.CalibratedImage, threshold float64) *tracer {
	return &tracer{
		img:       img,
		threshold: threshold,
		claimed:   make([]bool, img.Len()),
		visits:    make([]uint8, img.Len()),
	}
}

// bone reports whether (x, y) is inside the image and at or above threshold.
// Pixels outside the image count as background.
func (t *tracer) bone(x, y int) bool {
	return t.img.InBounds(x, y) && t.img.At(x, y) >= t.threshold
}

// TraceEdges scans the slice in row-major order and traces every closed
// edge at or above threshold. The returned contours carry the number of
// interior pixels claimed by their fill as Area.
func TraceEdges(img *models.CalibratedImage, threshold float64, opts TraceOptions) ([]models.Contour, error) {
	t := newTracer(img, threshold)
	var contours []models.Contour

	for y := 0; y < img.Height-1; y++ {
		x := 0
		for x < img.Width {
			idx := img.Index(x, y)
			if img.AtIndex(idx) < threshold || t.claimed[idx] {
				x++
				continue
			}

			t.claimed[idx] = true
			points := t.trace(x, y)

			// An isolated pixel has no edge to follow
			if len(points) > 1 {
				loops := [][]models.Point{points}
				if opts.AllowCleaving {
					loops = CleaveEdge(points, opts.CleaveMinRatio, opts.CleaveMinLengthDivisor, t.claim)
				}
				for _, loop := range loops {
					if area, ok := t.claimInterior(loop); ok {
						contours = append(contours, models.Contour{Points: loop, Area: area})
					}
				}
			}

			// Continue after the run of bone pixels the trace started from
			for x < img.Width && img.At(x, y) >= threshold {
				x++
			}
		}
	}

	if len(contours) == 0 {
		lo, hi := img.Range()
		return nil, &NoContourFoundError{Threshold: threshold, Min: lo, Max: hi}
	}
	return contours, nil
}

// trace follows the edge starting at (x0, y0), heading right. The start
// pixel must already be claimed.
func (t *tracer) trace(x0, y0 int) []models.Point {
	points := []models.Point{{X: x0, Y: y0}}
	x, y := x0, y0
	dir := 0

	for {
		counter := 0
		if s := heading(dir); t.bone(x+s.X, y+s.Y) {
			// Rotate counter-clockwise as long as the pixel ahead stays bone
			for counter < 8 {
				n := heading(dir - 1)
				if !t.bone(x+n.X, y+n.Y) {
					break
				}
				dir--
				counter++
			}
		} else {
			// Rotate clockwise until bone is found
			for counter < 8 {
				n := heading(dir)
				if t.bone(x+n.X, y+n.Y) {
					break
				}
				dir++
				counter++
			}
		}
		if counter > 7 {
			break
		}

		s := heading(dir)
		x += s.X
		y += s.Y
		idx := t.img.Index(x, y)
		if (x == x0 && y == y0) || t.img.AtIndex(idx) < t.threshold ||
			t.claimed[idx] || t.visits[idx] >= maxVisits {
			break
		}
		if t.visits[idx] == 0 {
			t.touched = append(t.touched, idx)
		}
		t.visits[idx]++
		points = append(points, models.Point{X: x, Y: y})

		// Keep steering counter-clockwise so single pixel structures are
		// not missed
		dir -= 2
	}

	for _, idx := range t.touched {
		t.visits[idx] = 0
		t.claimed[idx] = true
	}
	t.touched = t.touched[:0]
	return points
}

// claim marks a cleaving chord pixel as owned.
func (t *tracer) claim(p models.Point) {
	if t.img.InBounds(p.X, p.Y) {
		t.claimed[t.img.Index(p.X, p.Y)] = true
	}
}

// claimInterior fills the interior of loop on a copy of the claim mask.
// If any fill reaches the image border the loop is open and nothing is
// claimed.
func (t *tracer) claimInterior(loop []models.Point) (int, bool) {
	if len(loop) == 0 {
		return 0, false
	}

	work := make([]bool, len(t.claimed))
	copy(work, t.claimed)

	filled := 0
	for {
		seed, ok := findFillSeed(work, loop, t.img, t.threshold)
		if !ok {
			break
		}
		n, closed := floodUnclaimed(work, t.img.Width, t.img.Height, seed)
		filled += n
		if !closed {
			return 0, false
		}
	}

	t.claimed = work
	return filled, true
}

// floodUnclaimed claims every unclaimed pixel 4-connected to seed. It stops
// and reports false as soon as the fill reaches the image border.
func floodUnclaimed(marked []bool, width, height int, seed models.Point) (int, bool) {
	stack := []models.Point{seed}
	filled := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		if p.X < 1 || p.X >= width-1 || p.Y < 1 || p.Y >= height-1 {
			return filled, false
		}
		stack = stack[:len(stack)-1]

		idx := p.X + p.Y*width
		if !marked[idx] {
			marked[idx] = true
			filled++
		}
		for _, n := range fourNeighbours {
			q := models.Point{X: p.X + n.X, Y: p.Y + n.Y}
			if !marked[q.X+q.Y*width] {
				stack = append(stack, q)
			}
		}
	}
	return filled, true
}

var fourNeighbours = [4]models.Point{{X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 1}}
