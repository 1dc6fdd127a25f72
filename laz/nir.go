package laz

import "github.com/arloliu/golaz/endian"

// NIRSize is the on-wire size, in bytes, of a near-infrared field.
const NIRSize = 2

// NIR is a point's near-infrared channel, carried alongside RGB on point
// formats 8 and 10.
type NIR uint16

// Pack writes n into dst using engine's byte order. dst must be at least
// NIRSize bytes.
func (n NIR) Pack(dst []byte, engine endian.EndianEngine) {
	engine.PutUint16(dst[0:2], uint16(n))
}

// UnpackNIR reads a NIR value from src using engine's byte order. src must be
// at least NIRSize bytes.
func UnpackNIR(src []byte, engine endian.EndianEngine) NIR {
	return NIR(engine.Uint16(src[0:2]))
}
