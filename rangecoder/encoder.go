package rangecoder

import "io"

const (
	// MaxLength is the full-width coding interval length an Encoder resets to.
	MaxLength = 0xFFFFFFFF
	// MinLength is the renormalization threshold: once the interval length
	// drops below it, bytes are shifted out and length is rescaled back up.
	MinLength = 0x01000000

	// bufferSize is one generation of the encoder's output ring buffer.
	bufferSize = 1024
	// ringSize holds two generations, giving carry propagation enough
	// headroom to reach back into bytes not yet flushed to the writer.
	ringSize = 2 * bufferSize
)

// Encoder narrows a [base, base+length) coding interval as symbols are fed
// in, periodically shifting the high byte of base out to an io.Writer.
//
// An Encoder is not safe for concurrent use; each chunk's record codec owns
// its own Encoder (or, in the v3 layered family, one Encoder per field).
type Encoder struct {
	w io.Writer

	buf    [ringSize]byte
	outPos int
	endPos int

	base   uint32
	length uint32
}

// NewEncoder returns an Encoder writing its coded bytes to w.
func NewEncoder(w io.Writer) *Encoder {
	e := &Encoder{w: w}
	e.Reset()
	return e
}

// OutStream exposes the underlying writer so a field codec can write a
// point's first occurrence of a value raw, bypassing the coder entirely,
// before any symbol for that field has been encoded.
func (e *Encoder) OutStream() io.Writer { return e.w }

// Reset reinitializes the coding interval and output buffer, letting an
// Encoder be reused for a new chunk without reallocating.
func (e *Encoder) Reset() {
	e.base = 0
	e.length = MaxLength
	e.buf = [ringSize]byte{}
	e.outPos = 0
	e.endPos = ringSize
}

// Done flushes the final bytes needed to disambiguate the coding interval
// and must be called exactly once, after the last EncodeBit/EncodeSymbol/
// WriteXxx call, before the underlying writer's bytes are considered final.
func (e *Encoder) Done() error {
	initBase := e.base
	anotherByte := true

	if e.length > 2*MinLength {
		e.base += MinLength
		e.length = MinLength >> 1
	} else {
		e.base += MinLength >> 1
		e.length = MinLength >> 9
		anotherByte = false
	}

	if initBase > e.base {
		e.propagateCarry()
	}
	if err := e.renormEncInterval(); err != nil {
		return err
	}

	if e.endPos != ringSize {
		if _, err := e.w.Write(e.buf[bufferSize:ringSize]); err != nil {
			return err
		}
	}

	if e.outPos != 0 {
		if _, err := e.w.Write(e.buf[:e.outPos]); err != nil {
			return err
		}
	}

	if _, err := e.w.Write([]byte{0, 0}); err != nil {
		return err
	}
	if anotherByte {
		if _, err := e.w.Write([]byte{0}); err != nil {
			return err
		}
	}

	return nil
}

// EncodeBit encodes one bit under the given adaptive bit model.
func (e *Encoder) EncodeBit(model *BitModel, sym uint32) error {
	x := model.bit0Prob * (e.length >> bmLengthShift)

	if sym == 0 {
		e.length = x
		model.bit0Count++
	} else {
		initBase := e.base
		e.base += x
		e.length -= x
		if initBase > e.base {
			e.propagateCarry()
		}
	}

	if e.length < MinLength {
		if err := e.renormEncInterval(); err != nil {
			return err
		}
	}

	model.bitsUntilUpdate--
	if model.bitsUntilUpdate == 0 {
		model.update()
	}

	return nil
}

// EncodeSymbol encodes one symbol (0 <= sym <= model's last symbol) under
// the given adaptive multi-symbol model.
func (e *Encoder) EncodeSymbol(model *Model, sym uint32) error {
	initBase := e.base
	var x uint32

	if sym == model.lastSymbol {
		x = model.distribution[sym] * (e.length >> dmLengthShift)
		e.base += x
		e.length -= x
	} else {
		e.length >>= dmLengthShift
		x = model.distribution[sym] * e.length
		e.base += x
		e.length = model.distribution[sym+1]*e.length - x
	}

	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		if err := e.renormEncInterval(); err != nil {
			return err
		}
	}

	model.symbolCount[sym]++
	model.symbolsUntilUpdate--
	if model.symbolsUntilUpdate == 0 {
		model.update()
	}

	return nil
}

// WriteBit encodes a single unmodeled bit (equiprobable).
func (e *Encoder) WriteBit(sym uint32) error {
	initBase := e.base
	e.length >>= 1
	e.base += sym * e.length

	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		return e.renormEncInterval()
	}

	return nil
}

// WriteBits encodes sym as bits unmodeled bits, most significant bit first
// semantics matching the decoder's ReadBits. bits may exceed 16; values
// above 19 bits are split into a 16-bit low half and a remaining high half.
func (e *Encoder) WriteBits(bits uint32, sym uint32) error {
	if bits > 19 {
		if err := e.WriteShort(uint16(sym & 0xFFFF)); err != nil {
			return err
		}
		sym >>= 16
		bits -= 16
	}

	initBase := e.base
	e.length >>= bits
	e.base += sym * e.length

	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		return e.renormEncInterval()
	}

	return nil
}

// WriteByte encodes an unmodeled byte.
func (e *Encoder) WriteByte(sym uint8) error {
	initBase := e.base
	e.length >>= 8
	e.base += uint32(sym) * e.length

	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		return e.renormEncInterval()
	}

	return nil
}

// WriteShort encodes an unmodeled 16-bit value.
func (e *Encoder) WriteShort(sym uint16) error {
	initBase := e.base
	e.length >>= 16
	e.base += uint32(sym) * e.length

	if initBase > e.base {
		e.propagateCarry()
	}
	if e.length < MinLength {
		return e.renormEncInterval()
	}

	return nil
}

// WriteInt encodes an unmodeled 32-bit value as two 16-bit halves.
func (e *Encoder) WriteInt(sym uint32) error {
	if err := e.WriteShort(uint16(sym & 0xFFFF)); err != nil {
		return err
	}

	return e.WriteShort(uint16(sym >> 16))
}

// WriteInt64 encodes an unmodeled 64-bit value as two 32-bit halves.
func (e *Encoder) WriteInt64(sym uint64) error {
	if err := e.WriteInt(uint32(sym & 0xFFFFFFFF)); err != nil {
		return err
	}

	return e.WriteInt(uint32(sym >> 32))
}

func (e *Encoder) propagateCarry() {
	var b int
	if e.outPos == 0 {
		b = ringSize - 1
	} else {
		b = e.outPos - 1
	}

	for e.buf[b] == 0xFF {
		e.buf[b] = 0
		if b == 0 {
			b = ringSize - 1
		} else {
			b--
		}
	}
	e.buf[b]++
}

func (e *Encoder) renormEncInterval() error {
	for {
		e.buf[e.outPos] = byte(e.base >> 24)
		e.outPos++

		if e.outPos == e.endPos {
			if err := e.manageOutBuffer(); err != nil {
				return err
			}
		}

		e.base <<= 8
		e.length <<= 8
		if e.length >= MinLength {
			break
		}
	}

	return nil
}

func (e *Encoder) manageOutBuffer() error {
	if e.outPos == ringSize {
		e.outPos = 0
	}

	if _, err := e.w.Write(e.buf[e.outPos : e.outPos+bufferSize]); err != nil {
		return err
	}
	e.endPos = e.outPos + bufferSize

	return nil
}
