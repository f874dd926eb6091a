package utils

import "math"

// RoundTo rounds x to the given number of decimals, halves toward +Inf.
func RoundTo(x float64, decimals int) float64 {
	f := math.Pow(10, float64(decimals))
	return math.Floor(x*f+0.5) / f
}

// Round rounds x to the nearest integer, halves toward +Inf.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}
