package orientation

import (
	"pqctdensity/internal/models"
)

// Permutation maps an output angular slot to the native ray angle whose
// value lands there. It is a bijection on 0..359.
type Permutation [models.NativeAngles]int

// NewPermutation builds the circular shift that starts at
// (360 - rotationIndex) mod 360, reversed end to end when flip is set.
func NewPermutation(rotationIndex int, flip bool) Permutation {
	const n = models.NativeAngles
	start := ((n-rotationIndex)%n + n) % n

	var p Permutation
	for k := range p {
		p[k] = (start + k) % n
	}
	if flip {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			p[i], p[j] = p[j], p[i]
		}
	}
	return p
}

// Valid reports whether p hits every native angle exactly once.
func (p Permutation) Valid() bool {
	var seen [models.NativeAngles]bool
	for _, v := range p {
		if v < 0 || v >= models.NativeAngles || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Apply reorders per-ray values into output slot order.
func (p Permutation) Apply(rays *models.RayArray) models.RayArray {
	var out models.RayArray
	for k, native := range p {
		out[k] = rays[native]
	}
	return out
}
