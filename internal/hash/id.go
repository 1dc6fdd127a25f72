// Package hash provides the xxHash64-based chunk integrity checksum used by
// lazio's optional WithChunkIntegrityCheck.
package hash

import "github.com/cespare/xxhash/v2"

// Chunk computes the xxHash64 checksum of one compressed chunk's bytes.
//
// This checksum is never written to the LAZ wire format (the on-disk chunk
// table stays bit-exact per spec); it is an in-process extension a caller
// can use to detect silent corruption before trusting a chunk, e.g. one
// produced by a parallel worker.
func Chunk(data []byte) uint64 {
	return xxhash.Sum64(data)
}
