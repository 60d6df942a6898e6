package segmentation

import "fmt"

// NoContourFoundError is returned when no closed edge could be traced at the
// requested threshold. Min and Max are the observed density range of the
// slice so the caller can pick a threshold inside it.
type NoContourFoundError struct {
	Threshold float64
	Min       float64
	Max       float64
}

func (e *NoContourFoundError) Error() string {
	return fmt.Sprintf("no bone found at threshold %.2f: slice densities range from %.2f to %.2f, set the thresholds between these values",
		e.Threshold, e.Min, e.Max)
}
