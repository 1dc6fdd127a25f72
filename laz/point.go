package laz

import "github.com/arloliu/golaz/endian"

// Point10Size is the on-wire size, in bytes, of a Point10 record (LAS point
// data record format 0).
const Point10Size = 20

// Point10 is LAS point data record format 0: the base XYZ/intensity/return
// geometry shared by every point format LASzip's v1/v2 codecs compress.
type Point10 struct {
	X, Y, Z int32
	Intensity uint16

	// ReturnNumber and NumberOfReturns are 3 bits each, ScanDirectionFlag
	// and EdgeOfFlightLine 1 bit each; together they pack into one byte.
	ReturnNumber       uint8
	NumberOfReturns    uint8
	ScanDirectionFlag  bool
	EdgeOfFlightLine   bool

	Classification uint8
	ScanAngleRank  int8
	UserData       uint8
	PointSourceID  uint16
}

// BitFields packs ReturnNumber, NumberOfReturns, ScanDirectionFlag and
// EdgeOfFlightLine into the single wire byte LAS point format 0 uses.
func (p *Point10) BitFields() uint8 {
	var dir, edge uint8
	if p.ScanDirectionFlag {
		dir = 1
	}
	if p.EdgeOfFlightLine {
		edge = 1
	}

	return (edge&0x1)<<7 | (dir&0x1)<<6 | (p.NumberOfReturns&0x7)<<3 | (p.ReturnNumber & 0x7)
}

// SetBitFields unpacks the wire byte produced by BitFields back into
// ReturnNumber, NumberOfReturns, ScanDirectionFlag and EdgeOfFlightLine.
func (p *Point10) SetBitFields(b uint8) {
	p.ReturnNumber = b & 0x7
	p.NumberOfReturns = (b >> 3) & 0x7
	p.ScanDirectionFlag = (b>>6)&0x1 != 0
	p.EdgeOfFlightLine = (b>>7)&0x1 != 0
}

// Pack writes the point into dst using engine's byte order. dst must be at
// least Point10Size bytes.
func (p *Point10) Pack(dst []byte, engine endian.EndianEngine) {
	engine.PutUint32(dst[0:4], uint32(p.X))
	engine.PutUint32(dst[4:8], uint32(p.Y))
	engine.PutUint32(dst[8:12], uint32(p.Z))
	engine.PutUint16(dst[12:14], p.Intensity)
	dst[14] = p.BitFields()
	dst[15] = p.Classification
	dst[16] = uint8(p.ScanAngleRank)
	dst[17] = p.UserData
	engine.PutUint16(dst[18:20], p.PointSourceID)
}

// Unpack reads a point from src using engine's byte order. src must be at
// least Point10Size bytes.
func (p *Point10) Unpack(src []byte, engine endian.EndianEngine) {
	p.X = int32(engine.Uint32(src[0:4]))
	p.Y = int32(engine.Uint32(src[4:8]))
	p.Z = int32(engine.Uint32(src[8:12]))
	p.Intensity = engine.Uint16(src[12:14])
	p.SetBitFields(src[14])
	p.Classification = src[15]
	p.ScanAngleRank = int8(src[16])
	p.UserData = src[17]
	p.PointSourceID = engine.Uint16(src[18:20])
}
