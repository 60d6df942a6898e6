package models

// NativeAngles is the number of rays cast by the polar analyzers, one per
// degree.
const NativeAngles = 360

// RayArray holds one value per native ray angle, 0°..359°.
type RayArray [NativeAngles]float64
