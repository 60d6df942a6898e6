package imageio

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// windowMedian returns the middle value of a filter window, the lower of
// the two middle values for an even size. The window is sorted in place.
func windowMedian(window []float64) float64 {
	sort.Float64s(window)
	return stat.Quantile(0.5, stat.Empirical, window, nil)
}

// MedianFilter applies a size×size median filter to a row-major array.
// size should be odd. Pixels closer than size/2 to the border have no full
// neighbourhood and are set to frame, which keeps the border from creating
// edges.
func MedianFilter(data []float64, width, height, size int, frame float64) []float64 {
	filtered := make([]float64, len(data))
	for i := range filtered {
		filtered[i] = frame
	}

	half := size / 2
	window := make([]float64, 0, size*size)
	for y := half; y < height-half; y++ {
		for x := half; x < width-half; x++ {
			window = window[:0]
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					window = append(window, data[(y+dy)*width+x+dx])
				}
			}
			filtered[y*width+x] = windowMedian(window)
		}
	}
	return filtered
}

// flipRows mirrors the array around its horizontal axis, swapping the top
// and bottom rows.
func flipRows(data []float64, width, height int) {
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		for x := 0; x < width; x++ {
			a, b := top*width+x, bottom*width+x
			data[a], data[b] = data[b], data[a]
		}
	}
}

// flipColumns mirrors the array around its vertical axis, swapping the
// left and right columns.
func flipColumns(data []float64, width, height int) {
	for y := 0; y < height; y++ {
		row := data[y*width : (y+1)*width]
		for left, right := 0, width-1; left < right; left, right = left+1, right-1 {
			row[left], row[right] = row[right], row[left]
		}
	}
}
