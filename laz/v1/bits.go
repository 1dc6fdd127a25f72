package v1

import "math"

// float64BitsAsInt64 reinterprets a GPS time's IEEE-754 bit pattern as a
// signed 64-bit integer, the representation LASzip actually diffs and
// predicts against instead of the float value itself.
func float64BitsAsInt64(f float64) int64 { return int64(math.Float64bits(f)) }

// int64AsFloat64Bits is the inverse of float64BitsAsInt64.
func int64AsFloat64Bits(v int64) float64 { return math.Float64frombits(uint64(v)) }
