package v1

import (
	"io"

	"github.com/arloliu/golaz/endian"
	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/rangecoder"
)

func u8Clamp(n int32) uint8 {
	if n <= 0 {
		return 0
	}
	if n >= 255 {
		return 255
	}
	return uint8(n)
}

func loByte(v uint16) uint8 { return uint8(v & 0x00FF) }
func hiByte(v uint16) uint8 { return uint8(v >> 8) }

// colorDiffBits builds the 7-bit "which halves of R/G/B changed" symbol v1
// and v2 both encode before conditionally compressing each half, plus a
// bit-6 flag set whenever red's bytes differ from green's or blue's own
// (a cheap test for "this point isn't a shade of gray").
func colorDiffBits(last, cur laz.RGB) uint8 {
	flag := func(a, b uint16, mask uint16) uint8 {
		if a&mask != b&mask {
			return 1
		}
		return 0
	}
	sym := flag(last.Red, cur.Red, 0x00FF)<<0 |
		flag(last.Red, cur.Red, 0xFF00)<<1 |
		flag(last.Green, cur.Green, 0x00FF)<<2 |
		flag(last.Green, cur.Green, 0xFF00)<<3 |
		flag(last.Blue, cur.Blue, 0x00FF)<<4 |
		flag(last.Blue, cur.Blue, 0xFF00)<<5
	grayFlag := flag(cur.Red, cur.Green, 0x00FF) | flag(cur.Red, cur.Blue, 0x00FF) |
		flag(cur.Red, cur.Green, 0xFF00) | flag(cur.Red, cur.Blue, 0xFF00)
	return sym | grayFlag<<6
}

// RGBCompressor compresses a point's 3x16-bit color channel, conditioning
// green/blue's prediction on red's own diff (colors tend to shift together).
// The same state machine serves both LAZ item versions 1 and 2.
type RGBCompressor struct {
	haveLast bool
	last     laz.RGB

	byteUsed *rangecoder.Model
	diff0    *rangecoder.Model
	diff1    *rangecoder.Model
	diff2    *rangecoder.Model
	diff3    *rangecoder.Model
	diff4    *rangecoder.Model
	diff5    *rangecoder.Model
}

// NewRGBCompressor builds a v1/v2 RGB compressor.
func NewRGBCompressor() (*RGBCompressor, error) {
	c := &RGBCompressor{}
	models := []**rangecoder.Model{&c.byteUsed, &c.diff0, &c.diff1, &c.diff2, &c.diff3, &c.diff4, &c.diff5}
	sizes := []uint32{128, 256, 256, 256, 256, 256, 256}
	for i, slot := range models {
		m, err := rangecoder.NewModel(sizes[i], false, nil)
		if err != nil {
			return nil, err
		}
		*slot = m
	}
	return c, nil
}

// SizeOfField implements record.FieldCompressor.
func (c *RGBCompressor) SizeOfField() int { return laz.RGBSize }

// CompressWith implements record.FieldCompressor.
func (c *RGBCompressor) CompressWith(enc *rangecoder.Encoder, buf []byte) error {
	if len(buf) < laz.RGBSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	engine := endian.GetLittleEndianEngine()
	var cur laz.RGB
	cur.Unpack(buf, engine)

	if !c.haveLast {
		c.haveLast = true
		if _, err := enc.OutStream().Write(buf[:laz.RGBSize]); err != nil {
			return err
		}
		c.last = cur
		return nil
	}

	sym := colorDiffBits(c.last, cur)
	if err := enc.EncodeSymbol(c.byteUsed, uint32(sym)); err != nil {
		return err
	}

	var diffL, diffH int32

	if sym&(1<<0) != 0 {
		diffL = int32(loByte(cur.Red)) - int32(loByte(c.last.Red))
		if err := enc.EncodeSymbol(c.diff0, uint32(uint8(diffL))); err != nil {
			return err
		}
	}
	if sym&(1<<1) != 0 {
		diffH = int32(hiByte(cur.Red)) - int32(hiByte(c.last.Red))
		if err := enc.EncodeSymbol(c.diff1, uint32(uint8(diffH))); err != nil {
			return err
		}
	}

	if sym&(1<<6) != 0 {
		if sym&(1<<2) != 0 {
			corr := int32(loByte(cur.Green)) - int32(u8Clamp(diffL+int32(loByte(c.last.Green))))
			if err := enc.EncodeSymbol(c.diff2, uint32(uint8(corr))); err != nil {
				return err
			}
		}
		if sym&(1<<4) != 0 {
			diffL = (diffL + int32(loByte(cur.Green)) - int32(loByte(c.last.Green))) / 2
			corr := int32(loByte(cur.Blue)) - int32(u8Clamp(diffL+int32(loByte(c.last.Blue))))
			if err := enc.EncodeSymbol(c.diff4, uint32(uint8(corr))); err != nil {
				return err
			}
		}
		if sym&(1<<3) != 0 {
			corr := int32(hiByte(cur.Green)) - int32(u8Clamp(diffH+int32(hiByte(c.last.Green))))
			if err := enc.EncodeSymbol(c.diff3, uint32(uint8(corr))); err != nil {
				return err
			}
		}
		if sym&(1<<5) != 0 {
			diffH = (diffH + int32(hiByte(cur.Green)) - int32(hiByte(c.last.Green))) / 2
			corr := int32(hiByte(cur.Blue)) - int32(u8Clamp(diffH+int32(hiByte(c.last.Blue))))
			if err := enc.EncodeSymbol(c.diff5, uint32(uint8(corr))); err != nil {
				return err
			}
		}
	}

	c.last = cur
	return nil
}

// RGBDecompressor is the read-side counterpart of RGBCompressor.
type RGBDecompressor struct {
	haveLast bool
	last     laz.RGB

	byteUsed *rangecoder.Model
	diff0    *rangecoder.Model
	diff1    *rangecoder.Model
	diff2    *rangecoder.Model
	diff3    *rangecoder.Model
	diff4    *rangecoder.Model
	diff5    *rangecoder.Model
}

// NewRGBDecompressor builds a v1/v2 RGB decompressor.
func NewRGBDecompressor() (*RGBDecompressor, error) {
	d := &RGBDecompressor{}
	models := []**rangecoder.Model{&d.byteUsed, &d.diff0, &d.diff1, &d.diff2, &d.diff3, &d.diff4, &d.diff5}
	sizes := []uint32{128, 256, 256, 256, 256, 256, 256}
	for i, slot := range models {
		m, err := rangecoder.NewModel(sizes[i], true, nil)
		if err != nil {
			return nil, err
		}
		*slot = m
	}
	return d, nil
}

// SizeOfField implements record.FieldDecompressor.
func (d *RGBDecompressor) SizeOfField() int { return laz.RGBSize }

// DecompressWith implements record.FieldDecompressor.
func (d *RGBDecompressor) DecompressWith(dec *rangecoder.Decoder, buf []byte) error {
	if len(buf) < laz.RGBSize {
		return errs.ErrBufferLenNotMultipleOfPointSize
	}

	engine := endian.GetLittleEndianEngine()

	if !d.haveLast {
		if _, err := io.ReadFull(dec.InStream(), buf[:laz.RGBSize]); err != nil {
			return err
		}
		d.last.Unpack(buf, engine)
		d.haveLast = true
		return nil
	}

	symU32, err := dec.DecodeSymbol(d.byteUsed)
	if err != nil {
		return err
	}
	sym := uint8(symU32)

	var cur laz.RGB
	var diff int32

	if sym&(1<<0) != 0 {
		corrU32, err := dec.DecodeSymbol(d.diff0)
		if err != nil {
			return err
		}
		cur.Red = uint16(uint8(corrU32) + loByte(d.last.Red))
	} else {
		cur.Red = d.last.Red & 0x00FF
	}

	if sym&(1<<1) != 0 {
		corrU32, err := dec.DecodeSymbol(d.diff1)
		if err != nil {
			return err
		}
		cur.Red |= uint16(uint8(corrU32)+hiByte(d.last.Red)) << 8
	} else {
		cur.Red |= d.last.Red & 0xFF00
	}

	if sym&(1<<6) != 0 {
		diff = int32(cur.Red&0x00FF) - int32(d.last.Red&0x00FF)

		if sym&(1<<2) != 0 {
			corrU32, err := dec.DecodeSymbol(d.diff2)
			if err != nil {
				return err
			}
			cur.Green = uint16(uint8(corrU32) + u8Clamp(diff+int32(d.last.Green&0x00FF)))
		} else {
			cur.Green = d.last.Green & 0x00FF
		}

		if sym&(1<<4) != 0 {
			corrU32, err := dec.DecodeSymbol(d.diff4)
			if err != nil {
				return err
			}
			diff = (diff + int32(cur.Green&0x00FF) - int32(d.last.Green&0x00FF)) / 2
			cur.Blue = uint16(uint8(corrU32) + u8Clamp(diff+int32(d.last.Blue&0x00FF)))
		} else {
			cur.Blue = d.last.Blue & 0x00FF
		}

		diff = int32(cur.Red>>8) - int32(d.last.Red>>8)
		if sym&(1<<3) != 0 {
			corrU32, err := dec.DecodeSymbol(d.diff3)
			if err != nil {
				return err
			}
			cur.Green |= uint16(uint8(corrU32)+u8Clamp(diff+int32(d.last.Green>>8))) << 8
		} else {
			cur.Green |= d.last.Green & 0xFF00
		}

		if sym&(1<<5) != 0 {
			corrU32, err := dec.DecodeSymbol(d.diff5)
			if err != nil {
				return err
			}
			diff = (diff + int32(cur.Green>>8) - int32(d.last.Green>>8)) / 2
			cur.Blue |= uint16(uint8(corrU32)+u8Clamp(diff+int32(d.last.Blue>>8))) << 8
		} else {
			cur.Blue |= d.last.Blue & 0xFF00
		}
	} else {
		cur.Green = cur.Red
		cur.Blue = cur.Red
	}

	cur.Pack(buf, engine)
	d.last = cur
	return nil
}
