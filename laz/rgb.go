package laz

import "github.com/arloliu/golaz/endian"

// RGBSize is the on-wire size, in bytes, of an RGB field.
const RGBSize = 6

// RGB is a point's red/green/blue color channels, each a full 16-bit value
// (LAS stores 8-bit source colors left-shifted into the high byte).
type RGB struct {
	Red, Green, Blue uint16
}

// Pack writes the color into dst using engine's byte order. dst must be at
// least RGBSize bytes.
func (c *RGB) Pack(dst []byte, engine endian.EndianEngine) {
	engine.PutUint16(dst[0:2], c.Red)
	engine.PutUint16(dst[2:4], c.Green)
	engine.PutUint16(dst[4:6], c.Blue)
}

// Unpack reads a color from src using engine's byte order. src must be at
// least RGBSize bytes.
func (c *RGB) Unpack(src []byte, engine endian.EndianEngine) {
	c.Red = engine.Uint16(src[0:2])
	c.Green = engine.Uint16(src[2:4])
	c.Blue = engine.Uint16(src[4:6])
}

// loByte and hiByte split a 16-bit channel into the two bytes the v1/v2
// color codecs condition their context on separately.
func loByte(n uint16) uint8 { return uint8(n & 0x00FF) }
func hiByte(n uint16) uint8 { return uint8(n >> 8) }
