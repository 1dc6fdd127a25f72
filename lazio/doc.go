// Package lazio is the top-level LAZ streaming façade: it turns a LazVlr
// and a point-record layout into a chunked compressor or decompressor over
// an io.WriteSeeker/io.ReadSeeker, wiring together laz/codec's field-codec
// dispatch and laz/chunktable's chunk index.
//
// A LAZ stream is laid out as:
//
//  1. an 8-byte offset to the chunk table (patched in once compression
//     finishes, since it isn't known up front)
//  2. the compressed point data, one chunk after another
//  3. the chunk table itself
//
// Chunks are either fixed-size (every chunk but the last holds exactly
// vlr.ChunkSize points) or variable-size (chunk boundaries are caller
// controlled via FinishChunk); either way the chunk table records each
// chunk's byte span so a reader can jump straight to the chunk holding a
// given point index without decompressing everything before it.
package lazio
