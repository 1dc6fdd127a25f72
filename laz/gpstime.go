package laz

import (
	"math"

	"github.com/arloliu/golaz/endian"
)

// GPSTimeSize is the on-wire size, in bytes, of a GPS time field.
const GPSTimeSize = 8

// PackGPSTime writes t into dst using engine's byte order. dst must be at
// least GPSTimeSize bytes.
func PackGPSTime(dst []byte, t float64, engine endian.EndianEngine) {
	engine.PutUint64(dst[:GPSTimeSize], floatBitsToUint64(t))
}

// UnpackGPSTime reads a GPS time from src using engine's byte order. src
// must be at least GPSTimeSize bytes.
func UnpackGPSTime(src []byte, engine endian.EndianEngine) float64 {
	return uint64BitsToFloat(engine.Uint64(src[:GPSTimeSize]))
}

func floatBitsToUint64(f float64) uint64 { return math.Float64bits(f) }

func uint64BitsToFloat(u uint64) float64 { return math.Float64frombits(u) }
