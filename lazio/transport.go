package lazio

import (
	"fmt"
	"io"

	"github.com/arloliu/golaz/compress"
	"github.com/arloliu/golaz/laz"
)

// seekableBuffer is a minimal in-memory io.WriteSeeker: just enough for
// CompressBufferTransport to hand LasZipCompressor something it can patch
// the chunk table offset placeholder into, without writing to a real file.
type seekableBuffer struct {
	buf []byte
	pos int
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	copy(b.buf[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = int64(b.pos) + offset
	case io.SeekEnd:
		newPos = int64(len(b.buf)) + offset
	default:
		return 0, fmt.Errorf("seekableBuffer: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("seekableBuffer: negative position %d", newPos)
	}
	b.pos = int(newPos)
	return newPos, nil
}

// CompressBufferTransport compresses uncompressedPoints into a LAZ stream
// exactly as CompressBuffer does, then wraps the whole, already-produced
// stream in an outer transport codec selected via WithTransportCompression
// (WithTransportCompression(compress.CompressionNone), the default, leaves
// it untouched). The wire format this produces is only meaningful to a
// caller that knows which transport codec was used; unwrap it with
// DecompressBufferTransport given the same option.
func CompressBufferTransport(uncompressedPoints []byte, vlr laz.LazVlr, opts ...CompressorOption) ([]byte, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	buf := &seekableBuffer{}
	if err := CompressBuffer(buf, uncompressedPoints, vlr, opts...); err != nil {
		return nil, err
	}
	if cfg.TransportCompression() == compress.CompressionNone {
		return buf.buf, nil
	}

	codec, err := compress.CreateCodec(cfg.TransportCompression())
	if err != nil {
		return nil, err
	}
	out, err := codec.Compress(buf.buf)
	if err != nil {
		return nil, fmt.Errorf("transport compress: %w", err)
	}
	return out, nil
}

// DecompressBufferTransport reverses CompressBufferTransport: it first
// unwraps transportCompressed with the transport codec named by
// WithTransportCompression (must match what compressed it), then
// decompresses the recovered LAZ stream into decompressed via
// DecompressBuffer.
func DecompressBufferTransport(transportCompressed []byte, decompressed []byte, vlr laz.LazVlr, opts ...DecompressorOption) error {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return err
	}

	laidOut := transportCompressed
	if cfg.TransportCompression() != compress.CompressionNone {
		codec, err := compress.CreateCodec(cfg.TransportCompression())
		if err != nil {
			return err
		}
		laidOut, err = codec.Decompress(transportCompressed)
		if err != nil {
			return fmt.Errorf("transport decompress: %w", err)
		}
	}

	return DecompressBuffer(laidOut, decompressed, vlr, opts...)
}
