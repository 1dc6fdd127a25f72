// Package codec dispatches a LazVlr's item list onto concrete field codec
// instances and wires them into a record.Compressor/Decompressor (for item
// versions 1/2) or a v3.LayeredRecordCompressor/Decompressor (for item
// versions 3/4), mirroring the dispatch table LASzip's record builder uses
// to turn a LazItem list into a running codec.
package codec

import (
	"fmt"

	"github.com/arloliu/golaz/internal/errs"
	"github.com/arloliu/golaz/laz"
	"github.com/arloliu/golaz/laz/record"
	v1 "github.com/arloliu/golaz/laz/v1"
	v2 "github.com/arloliu/golaz/laz/v2"
	v3 "github.com/arloliu/golaz/laz/v3"
	"github.com/arloliu/golaz/rangecoder"
)

// IsLayered reports whether items are compressed by the layered (v3/v4)
// codec family rather than the sequential (v1/v2) one. A LazVlr's items all
// share one version family, so the first item decides for the whole record.
func IsLayered(items []laz.LazItem) bool {
	if len(items) == 0 {
		return false
	}
	return items[0].Version >= 3
}

// BuildSequentialCompressor wires a record.Compressor with one field codec
// per item, sharing enc as the record's single range encoder. Every item
// must carry version 1 or 2.
func BuildSequentialCompressor(items []laz.LazItem, enc *rangecoder.Encoder) (*record.Compressor, error) {
	rc := record.NewCompressor(enc)
	for _, item := range items {
		f, err := sequentialFieldCompressor(item)
		if err != nil {
			return nil, err
		}
		rc.AddField(f)
	}
	return rc, nil
}

// BuildSequentialDecompressor is the read-side counterpart of
// BuildSequentialCompressor.
func BuildSequentialDecompressor(items []laz.LazItem, dec *rangecoder.Decoder) (*record.Decompressor, error) {
	rd := record.NewDecompressor(dec)
	for _, item := range items {
		f, err := sequentialFieldDecompressor(item)
		if err != nil {
			return nil, err
		}
		rd.AddField(f)
	}
	return rd, nil
}

func sequentialFieldCompressor(item laz.LazItem) (record.FieldCompressor, error) {
	switch item.Version {
	case 1:
		switch item.Type {
		case laz.LazItemPoint10:
			return v1.NewPoint10Compressor()
		case laz.LazItemGPSTime:
			return v1.NewGpsTimeCompressor()
		case laz.LazItemRGB12:
			return v1.NewRGBCompressor()
		case laz.LazItemByte:
			return v1.NewExtraByteCompressor(int(item.Size))
		default:
			return nil, fmt.Errorf("%w: %d", errs.ErrUnknownLazItem, item.Type)
		}
	case 2:
		switch item.Type {
		case laz.LazItemPoint10:
			return v2.NewPoint10Compressor()
		case laz.LazItemGPSTime:
			return v2.NewGpsTimeCompressor()
		case laz.LazItemRGB12:
			return v2.NewRGBCompressor()
		case laz.LazItemByte:
			return v2.NewExtraByteCompressor(int(item.Size))
		default:
			return nil, fmt.Errorf("%w: %d", errs.ErrUnknownLazItem, item.Type)
		}
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedLazItemVersion, item.Version)
	}
}

func sequentialFieldDecompressor(item laz.LazItem) (record.FieldDecompressor, error) {
	switch item.Version {
	case 1:
		switch item.Type {
		case laz.LazItemPoint10:
			return v1.NewPoint10Decompressor()
		case laz.LazItemGPSTime:
			return v1.NewGpsTimeDecompressor()
		case laz.LazItemRGB12:
			return v1.NewRGBDecompressor()
		case laz.LazItemByte:
			return v1.NewExtraByteDecompressor(int(item.Size))
		default:
			return nil, fmt.Errorf("%w: %d", errs.ErrUnknownLazItem, item.Type)
		}
	case 2:
		switch item.Type {
		case laz.LazItemPoint10:
			return v2.NewPoint10Decompressor()
		case laz.LazItemGPSTime:
			return v2.NewGpsTimeDecompressor()
		case laz.LazItemRGB12:
			return v2.NewRGBDecompressor()
		case laz.LazItemByte:
			return v2.NewExtraByteDecompressor(int(item.Size))
		default:
			return nil, fmt.Errorf("%w: %d", errs.ErrUnknownLazItem, item.Type)
		}
	default:
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedLazItemVersion, item.Version)
	}
}

// BuildLayeredCompressor wires a v3.LayeredRecordCompressor with one or more
// field codecs per item (LazItemRGBNIR14 expands into an RGB field plus an
// NIR field, since the two compress through independent layers). Every item
// must carry version 3 or 4.
func BuildLayeredCompressor(items []laz.LazItem) (*v3.LayeredRecordCompressor, error) {
	rc := v3.NewLayeredRecordCompressor()
	for _, item := range items {
		if item.Version != 3 && item.Version != 4 {
			return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedLazItemVersion, item.Version)
		}

		switch item.Type {
		case laz.LazItemPoint14:
			f, err := v3.NewPoint14Compressor()
			if err != nil {
				return nil, err
			}
			rc.AddField(f)
		case laz.LazItemRGB14:
			f, err := v3.NewRGB14Compressor()
			if err != nil {
				return nil, err
			}
			rc.AddField(f)
		case laz.LazItemRGBNIR14:
			rgb, err := v3.NewRGB14Compressor()
			if err != nil {
				return nil, err
			}
			nir, err := v3.NewNIR14Compressor()
			if err != nil {
				return nil, err
			}
			rc.AddField(rgb)
			rc.AddField(nir)
		case laz.LazItemByte14:
			f, err := v3.NewExtraByte14Compressor(int(item.Size))
			if err != nil {
				return nil, err
			}
			rc.AddField(f)
		default:
			return nil, fmt.Errorf("%w: %d", errs.ErrUnknownLazItem, item.Type)
		}
	}
	return rc, nil
}

// BuildLayeredDecompressor is the read-side counterpart of
// BuildLayeredCompressor.
func BuildLayeredDecompressor(items []laz.LazItem) (*v3.LayeredRecordDecompressor, error) {
	rd := v3.NewLayeredRecordDecompressor()
	for _, item := range items {
		if item.Version != 3 && item.Version != 4 {
			return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedLazItemVersion, item.Version)
		}

		switch item.Type {
		case laz.LazItemPoint14:
			f, err := v3.NewPoint14Decompressor()
			if err != nil {
				return nil, err
			}
			rd.AddField(f)
		case laz.LazItemRGB14:
			f, err := v3.NewRGB14Decompressor()
			if err != nil {
				return nil, err
			}
			rd.AddField(f)
		case laz.LazItemRGBNIR14:
			rgb, err := v3.NewRGB14Decompressor()
			if err != nil {
				return nil, err
			}
			nir, err := v3.NewNIR14Decompressor()
			if err != nil {
				return nil, err
			}
			rd.AddField(rgb)
			rd.AddField(nir)
		case laz.LazItemByte14:
			f, err := v3.NewExtraByte14Decompressor(int(item.Size))
			if err != nil {
				return nil, err
			}
			rd.AddField(f)
		default:
			return nil, fmt.Errorf("%w: %d", errs.ErrUnknownLazItem, item.Type)
		}
	}
	return rd, nil
}
