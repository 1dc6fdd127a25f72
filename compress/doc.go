// Package compress provides optional outer transport compression for whole
// LAZ byte streams.
//
// The LASzip wire format produced by package lazio (range-coded point data,
// chunk table, VLR) is always bit-exact and never depends on this package.
// compress operates one layer up: it shrinks an already-produced LAZ payload
// further for network transport or cold storage. The two-stage idea is the
// same one the range coder itself already relies on: encode first to exploit
// domain structure, then compress the result with a general-purpose algorithm.
//
// # Supported algorithms
//
//   - None: no compression, zero overhead
//   - Zstd: best ratio, moderate speed, good for archival
//   - S2: balanced ratio/speed (Snappy-compatible, klauspost implementation)
//   - LZ4: fastest decompression, moderate ratio
//
// # Architecture
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Usage
//
//	codec, err := compress.CreateCodec(compress.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	wrapped, err := codec.Compress(lazBytes)
//
// lazio.WithTransportCompression selects the Codec that
// lazio.CompressBufferTransport applies to a whole, already finished
// in-memory LAZ stream, and that lazio.DecompressBufferTransport removes
// again on the read side. LasZipCompressor itself never applies it.
//
// # cgo-accelerated zstd
//
// Build with the cgo_zstd tag to add NewZstdCGOCodec, a cgo-accelerated
// valyala/gozstd codec, alongside the pure-Go klauspost/compress/zstd one.
package compress
