package laz

import "github.com/arloliu/golaz/endian"

// Point14Size is the on-wire size, in bytes, of a Point14 record (LAS point
// data record format 6 core fields, without RGB/NIR/wavepacket extensions).
const Point14Size = 30

// Point14 is LAS point data record format 6: the extended-precision record
// LASzip's v3 layered codecs compress. It widens several format-0 fields
// (return counts to 4 bits, scan angle to 16 bits) and adds a scanner
// channel and an inline GPS time.
type Point14 struct {
	X, Y, Z   int32
	Intensity uint16

	// ReturnNumber and NumberOfReturns are 4 bits each, packed into one byte.
	ReturnNumber    uint8
	NumberOfReturns uint8

	// ClassificationFlags is 4 bits, ScannerChannel 2 bits,
	// ScanDirectionFlag and EdgeOfFlightLine 1 bit each, packed into one byte.
	ClassificationFlags uint8
	ScannerChannel      uint8
	ScanDirectionFlag   bool
	EdgeOfFlightLine    bool

	Classification uint8
	UserData       uint8
	ScanAngleRank  uint16
	PointSourceID  uint16
	GPSTime        float64
}

// BitFields packs ReturnNumber and NumberOfReturns into the wire byte LAS
// point format 6 uses for them.
func (p *Point14) BitFields() uint8 {
	return (p.NumberOfReturns&0xF)<<4 | (p.ReturnNumber & 0xF)
}

// SetBitFields unpacks the wire byte produced by BitFields.
func (p *Point14) SetBitFields(b uint8) {
	p.ReturnNumber = b & 0xF
	p.NumberOfReturns = (b >> 4) & 0xF
}

// Flags packs ClassificationFlags, ScannerChannel, ScanDirectionFlag and
// EdgeOfFlightLine into the wire byte LAS point format 6 uses for them.
func (p *Point14) Flags() uint8 {
	var dir, edge uint8
	if p.ScanDirectionFlag {
		dir = 1
	}
	if p.EdgeOfFlightLine {
		edge = 1
	}

	return (edge&0x1)<<7 | (dir&0x1)<<6 | (p.ScannerChannel&0x3)<<4 | (p.ClassificationFlags & 0xF)
}

// SetFlags unpacks the wire byte produced by Flags.
func (p *Point14) SetFlags(b uint8) {
	p.ClassificationFlags = b & 0xF
	p.ScannerChannel = (b >> 4) & 0x3
	p.ScanDirectionFlag = (b>>6)&0x1 != 0
	p.EdgeOfFlightLine = (b>>7)&0x1 != 0
}

// Pack writes the point into dst using engine's byte order. dst must be at
// least Point14Size bytes.
func (p *Point14) Pack(dst []byte, engine endian.EndianEngine) {
	engine.PutUint32(dst[0:4], uint32(p.X))
	engine.PutUint32(dst[4:8], uint32(p.Y))
	engine.PutUint32(dst[8:12], uint32(p.Z))
	engine.PutUint16(dst[12:14], p.Intensity)
	dst[14] = p.BitFields()
	dst[15] = p.Flags()
	dst[16] = p.Classification
	dst[17] = p.UserData
	engine.PutUint16(dst[18:20], p.ScanAngleRank)
	engine.PutUint16(dst[20:22], p.PointSourceID)
	engine.PutUint64(dst[22:30], floatBitsToUint64(p.GPSTime))
}

// Unpack reads a point from src using engine's byte order. src must be at
// least Point14Size bytes.
func (p *Point14) Unpack(src []byte, engine endian.EndianEngine) {
	p.X = int32(engine.Uint32(src[0:4]))
	p.Y = int32(engine.Uint32(src[4:8]))
	p.Z = int32(engine.Uint32(src[8:12]))
	p.Intensity = engine.Uint16(src[12:14])
	p.SetBitFields(src[14])
	p.SetFlags(src[15])
	p.Classification = src[16]
	p.UserData = src[17]
	p.ScanAngleRank = engine.Uint16(src[18:20])
	p.PointSourceID = engine.Uint16(src[20:22])
	p.GPSTime = uint64BitsToFloat(engine.Uint64(src[22:30]))
}
