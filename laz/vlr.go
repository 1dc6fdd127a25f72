package laz

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/arloliu/golaz/internal/errs"
)

// LazItemType identifies which field group a LazItem describes and which
// codec family compresses it.
type LazItemType uint16

const (
	LazItemByte     LazItemType = 0
	LazItemPoint10  LazItemType = 6
	LazItemGPSTime  LazItemType = 7
	LazItemRGB12    LazItemType = 8
	LazItemPoint14  LazItemType = 10
	LazItemRGB14    LazItemType = 11
	LazItemRGBNIR14 LazItemType = 12
	LazItemByte14   LazItemType = 14
)

// defaultSize returns the wire size of item types whose size never varies;
// Byte and Byte14 depend on the number of extra bytes and are carried on
// LazItem.Size instead.
func (t LazItemType) defaultSize() (uint16, bool) {
	switch t {
	case LazItemPoint10:
		return Point10Size, true
	case LazItemGPSTime:
		return GPSTimeSize, true
	case LazItemRGB12, LazItemRGB14:
		return RGBSize, true
	case LazItemPoint14:
		return Point14Size, true
	case LazItemRGBNIR14:
		return RGBSize + NIRSize, true
	default:
		return 0, false
	}
}

// LazItem describes one field group compressed into a LAZ chunk: which
// kind of data it is, how many bytes one record of it takes, and which
// version of that field's codec was used.
type LazItem struct {
	Type    LazItemType
	Size    uint16
	Version uint16
}

// NewLazItem builds a LazItem, deriving Size from itemType where the size
// is fixed. For LazItemByte/LazItemByte14, pass the extra-byte count as
// size.
func NewLazItem(itemType LazItemType, size uint16, version uint16) LazItem {
	if fixed, ok := itemType.defaultSize(); ok {
		size = fixed
	}

	return LazItem{Type: itemType, Size: size, Version: version}
}

func readLazItem(r io.Reader) (LazItem, error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return LazItem{}, err
	}

	itemType := LazItemType(binary.LittleEndian.Uint16(hdr[0:2]))
	switch itemType {
	case LazItemByte, LazItemPoint10, LazItemGPSTime, LazItemRGB12,
		LazItemPoint14, LazItemRGB14, LazItemRGBNIR14, LazItemByte14:
	default:
		return LazItem{}, fmt.Errorf("%w: %d", errs.ErrUnknownLazItem, itemType)
	}

	return LazItem{
		Type:    itemType,
		Size:    binary.LittleEndian.Uint16(hdr[2:4]),
		Version: binary.LittleEndian.Uint16(hdr[4:6]),
	}, nil
}

func (item LazItem) writeTo(w io.Writer) error {
	var hdr [6]byte
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(item.Type))
	binary.LittleEndian.PutUint16(hdr[2:4], item.Size)
	binary.LittleEndian.PutUint16(hdr[4:6], item.Version)
	_, err := w.Write(hdr[:])

	return err
}

// CompressorType selects how chunks of compressed data are organized on
// the wire.
type CompressorType uint16

const (
	// CompressorNone stores points uncompressed.
	CompressorNone CompressorType = 0
	// CompressorPointWise range-codes all points as a single chunk.
	CompressorPointWise CompressorType = 1
	// CompressorPointWiseChunked range-codes points in independently
	// seekable chunks of ChunkSize points each.
	CompressorPointWiseChunked CompressorType = 2
	// CompressorLayeredChunked additionally separates each point's fields
	// into independent layers within a chunk; used by point formats 6-10.
	CompressorLayeredChunked CompressorType = 3
)

func compressorTypeFromUint16(t uint16) (CompressorType, error) {
	switch CompressorType(t) {
	case CompressorNone, CompressorPointWise, CompressorPointWiseChunked, CompressorLayeredChunked:
		return CompressorType(t), nil
	default:
		return 0, fmt.Errorf("%w: %d", errs.ErrUnknownCompressorType, t)
	}
}

// LazVlr is the payload of the LASzip VLR record: it tells a reader which
// fields were compressed, in what order, with which codec versions, and
// how many points each chunk holds.
type LazVlr struct {
	Compressor CompressorType
	// Coder is always 0 (the arithmetic coder); no other coder exists.
	Coder uint16

	VersionMajor    uint8
	VersionMinor    uint8
	VersionRevision uint16

	// Options is preserved verbatim; LASzip defines no bits in it today.
	Options uint32

	// ChunkSize is the number of points per chunk, or VariableChunkSize.
	ChunkSize uint32

	// NumSpecialEVLRs and OffsetToSpecialEVLRs are -1 when unused.
	NumSpecialEVLRs      int64
	OffsetToSpecialEVLRs int64

	Items []LazItem
}

// LazVlr constants mirroring the on-disk VLR header this payload is
// carried under.
const (
	LazVlrUserID      = "laszip encoded"
	LazVlrRecordID    = 22204
	LazVlrDescription = "http://laszip.org"
	// VariableChunkSize marks a LazVlr whose chunks hold a variable number
	// of points instead of ChunkSize each.
	VariableChunkSize uint32 = 0xFFFFFFFF
	// DefaultChunkSize is the point count LASzip uses per chunk unless a
	// caller asks for something else.
	DefaultChunkSize uint32 = 50_000
)

// NewLazVlr builds a LazVlr from a set of items, picking the compressor
// type implied by the items' codec version (1/2 -> point-wise chunked,
// 3/4 -> layered chunked) and LASzip's default chunk size.
func NewLazVlr(items []LazItem) (LazVlr, error) {
	if len(items) == 0 {
		return LazVlr{}, errs.ErrNoLazItems
	}

	var compressor CompressorType
	switch items[0].Version {
	case 1, 2:
		compressor = CompressorPointWiseChunked
	case 3, 4:
		compressor = CompressorLayeredChunked
	default:
		return LazVlr{}, fmt.Errorf("%w: %d", errs.ErrUnsupportedLazItemVersion, items[0].Version)
	}

	return LazVlr{
		Compressor:           compressor,
		Coder:                0,
		VersionMajor:         2,
		VersionMinor:         2,
		ChunkSize:            DefaultChunkSize,
		NumSpecialEVLRs:      -1,
		OffsetToSpecialEVLRs: -1,
		Items:                items,
	}, nil
}

// ReadLazVlr parses a LazVlr from its record_data bytes.
func ReadLazVlr(data []byte) (LazVlr, error) {
	return ReadLazVlrFrom(newByteReader(data))
}

// ReadLazVlrFrom parses a LazVlr from a reader positioned at the start of
// its record_data.
func ReadLazVlrFrom(r io.Reader) (LazVlr, error) {
	var head [34]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return LazVlr{}, err
	}

	compressor, err := compressorTypeFromUint16(binary.LittleEndian.Uint16(head[0:2]))
	if err != nil {
		return LazVlr{}, err
	}

	vlr := LazVlr{
		Compressor:           compressor,
		Coder:                binary.LittleEndian.Uint16(head[2:4]),
		VersionMajor:         head[4],
		VersionMinor:         head[5],
		VersionRevision:      binary.LittleEndian.Uint16(head[6:8]),
		Options:              binary.LittleEndian.Uint32(head[8:12]),
		ChunkSize:            binary.LittleEndian.Uint32(head[12:16]),
		NumSpecialEVLRs:      int64(binary.LittleEndian.Uint64(head[16:24])),
		OffsetToSpecialEVLRs: int64(binary.LittleEndian.Uint64(head[24:32])),
	}

	count := binary.LittleEndian.Uint16(head[32:34])
	vlr.Items = make([]LazItem, 0, count)
	for i := uint16(0); i < count; i++ {
		item, err := readLazItem(r)
		if err != nil {
			return LazVlr{}, err
		}
		vlr.Items = append(vlr.Items, item)
	}

	return vlr, nil
}

// WriteTo writes the VLR's record_data to w. The surrounding VLR header
// (user ID, record ID, description) is the caller's responsibility.
func (vlr LazVlr) WriteTo(w io.Writer) error {
	var head [34]byte
	binary.LittleEndian.PutUint16(head[0:2], uint16(vlr.Compressor))
	binary.LittleEndian.PutUint16(head[2:4], vlr.Coder)
	head[4] = vlr.VersionMajor
	head[5] = vlr.VersionMinor
	binary.LittleEndian.PutUint16(head[6:8], vlr.VersionRevision)
	binary.LittleEndian.PutUint32(head[8:12], vlr.Options)
	binary.LittleEndian.PutUint32(head[12:16], vlr.ChunkSize)
	binary.LittleEndian.PutUint64(head[16:24], uint64(vlr.NumSpecialEVLRs))
	binary.LittleEndian.PutUint64(head[24:32], uint64(vlr.OffsetToSpecialEVLRs))
	binary.LittleEndian.PutUint16(head[32:34], uint16(len(vlr.Items)))

	if _, err := w.Write(head[:]); err != nil {
		return err
	}

	for _, item := range vlr.Items {
		if err := item.writeTo(w); err != nil {
			return err
		}
	}

	return nil
}

// UsesVariableSizedChunks reports whether ChunkSize is the sentinel meaning
// chunks hold a variable number of points instead of a fixed count.
func (vlr LazVlr) UsesVariableSizedChunks() bool {
	return vlr.ChunkSize == VariableChunkSize
}

// ItemsSize returns the sum of every item's Size, the byte size of one
// uncompressed point record.
func (vlr LazVlr) ItemsSize() uint64 {
	var total uint64
	for _, item := range vlr.Items {
		total += uint64(item.Size)
	}

	return total
}

// LazItemRecordBuilder assembles the ordered LazItem list for a point
// format, matching the field layout LASzip expects for that format and
// codec version.
type LazItemRecordBuilder struct {
	items []LazItemType
}

// NewLazItemRecordBuilder returns an empty builder.
func NewLazItemRecordBuilder() *LazItemRecordBuilder {
	return &LazItemRecordBuilder{}
}

// AddItem appends an item type to the record being built.
func (b *LazItemRecordBuilder) AddItem(itemType LazItemType) *LazItemRecordBuilder {
	b.items = append(b.items, itemType)

	return b
}

// versionFor returns the codec version LASzip assigns to an item type:
// v1/v2 codecs are version 2, v3 layered codecs are version 3.
func versionFor(itemType LazItemType) uint16 {
	switch itemType {
	case LazItemPoint14, LazItemRGB14, LazItemRGBNIR14, LazItemByte14:
		return 3
	default:
		return 2
	}
}

// Build produces the LazItem list for the accumulated item types.
func (b *LazItemRecordBuilder) Build() []LazItem {
	out := make([]LazItem, 0, len(b.items))
	for _, itemType := range b.items {
		out = append(out, NewLazItem(itemType, 0, versionFor(itemType)))
	}

	return out
}

// DefaultItemsForPointFormat returns the LazItem list LASzip uses by
// default for a given LAS point data record format, given how many extra
// bytes trail the fixed fields.
func DefaultItemsForPointFormat(pointFormatID uint8, numExtraBytes uint16) ([]LazItem, error) {
	b := NewLazItemRecordBuilder()

	switch pointFormatID {
	case 0:
		b.AddItem(LazItemPoint10)
	case 1:
		b.AddItem(LazItemPoint10).AddItem(LazItemGPSTime)
	case 2:
		b.AddItem(LazItemPoint10).AddItem(LazItemRGB12)
	case 3:
		b.AddItem(LazItemPoint10).AddItem(LazItemGPSTime).AddItem(LazItemRGB12)
	case 6:
		b.AddItem(LazItemPoint14)
	case 7:
		b.AddItem(LazItemPoint14).AddItem(LazItemRGB14)
	case 8:
		b.AddItem(LazItemPoint14).AddItem(LazItemRGBNIR14)
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedPointFormat, pointFormatID)
	}

	if numExtraBytes > 0 {
		if pointFormatID >= 6 {
			b.AddItem(LazItemByte14)
		} else {
			b.AddItem(LazItemByte)
		}
	}

	items := b.Build()
	if numExtraBytes > 0 {
		items[len(items)-1].Size = numExtraBytes
	}

	return items, nil
}

// newByteReader avoids importing bytes just for this one adapter.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader { return &byteReader{data: data} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n

	return n, nil
}
