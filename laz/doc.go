// Package laz defines the LAS point record shapes LASzip compresses, the
// LazVlr metadata that describes how a particular LAZ stream was written,
// and the DecompressionSelection type that names which fields a caller
// needs. No decompressor in this module reads that selection: every field
// is always decompressed.
//
// Nothing in this package touches the entropy coder or the chunked framing
// layer; it is pure data plus the little-endian byte packing LAS point
// records use on the wire. The predictive field codecs live in laz/v1,
// laz/v2 and laz/v3; the record-level composition lives in laz/record.
package laz
