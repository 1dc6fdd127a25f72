package rangecoder

import "github.com/arloliu/golaz/internal/errs"

// dmLengthShift is the number of length bits discarded before a symbol
// model's distribution value is multiplied into the coding interval.
const dmLengthShift = 15

// dmMaxCount triggers a count rescale once a model's total symbol count
// exceeds it.
const dmMaxCount = 1 << dmLengthShift

// maxModelSymbols bounds how many symbols a single Model may hold; callers
// with larger alphabets should split into several bit decisions instead.
const maxModelSymbols = 1 << 11

// Model is an adaptive multi-symbol probability model.
//
// It tracks a cumulative distribution over a small alphabet and a running
// per-symbol count, used by both Encoder.EncodeSymbol and Decoder.DecodeSymbol
// to narrow the coding interval. Counts are rescaled periodically so the
// model adapts to a changing source instead of freezing at its initial
// estimate.
type Model struct {
	symbols  uint32
	compress bool

	distribution []uint32
	symbolCount  []uint32
	decoderTable []uint32

	totalCount         uint32
	updateCycle        uint32
	symbolsUntilUpdate uint32
	lastSymbol         uint32
	tableSize          uint32
	tableShift         uint32
}

// NewModel creates an adaptive model over the given number of symbols.
//
// compress selects whether the model is used on the encode side: encode-side
// models never build a decoder lookup table, since the encoder only ever
// needs the cumulative distribution. initCount, when non-nil, seeds each
// symbol's starting count instead of the default uniform count of 1; it must
// have exactly symbols entries.
func NewModel(symbols uint32, compress bool, initCount []uint32) (*Model, error) {
	if symbols < 2 || symbols > maxModelSymbols {
		return nil, errs.ErrInvalidModelSymbolCount
	}
	if initCount != nil && uint32(len(initCount)) != symbols {
		return nil, errs.ErrInvalidModelSymbolCount
	}

	m := &Model{
		symbols:    symbols,
		compress:   compress,
		lastSymbol: symbols - 1,
	}

	if !compress && symbols > 16 {
		tableBits := uint32(3)
		for symbols > (1 << (tableBits + 2)) {
			tableBits++
		}
		m.tableSize = 1 << tableBits
		m.tableShift = dmLengthShift - tableBits
		m.decoderTable = make([]uint32, m.tableSize+2)
	}

	m.distribution = make([]uint32, symbols)
	m.symbolCount = make([]uint32, symbols)
	m.updateCycle = symbols

	if initCount != nil {
		copy(m.symbolCount, initCount)
	} else {
		for i := range m.symbolCount {
			m.symbolCount[i] = 1
		}
	}

	m.update()
	m.symbolsUntilUpdate = (symbols + 6) >> 1
	m.updateCycle = (symbols + 6) >> 1

	return m, nil
}

// update recomputes the cumulative distribution (and, on the decode side,
// the bisection lookup table) from the current symbol counts, rescaling the
// counts first if they have grown past dmMaxCount.
func (m *Model) update() {
	m.totalCount += m.updateCycle
	if m.totalCount > dmMaxCount {
		m.totalCount = 0
		for i := range m.symbolCount {
			m.symbolCount[i] = (m.symbolCount[i] + 1) >> 1
			m.totalCount += m.symbolCount[i]
		}
	}

	var sum uint32
	scale := uint32(0x80000000) / m.totalCount

	if m.compress || m.tableSize == 0 {
		for i := range m.distribution {
			m.distribution[i] = (scale * sum) >> (31 - dmLengthShift)
			sum += m.symbolCount[i]
		}
	} else {
		s := uint32(0)
		for k := range m.distribution {
			m.distribution[k] = (scale * sum) >> (31 - dmLengthShift)
			sum += m.symbolCount[k]

			w := m.distribution[k] >> m.tableShift
			for s < w {
				s++
				m.decoderTable[s] = uint32(k) - 1
			}
		}

		m.decoderTable[0] = 0
		for s <= m.tableSize {
			s++
			m.decoderTable[s] = m.symbols - 1
		}
	}

	m.updateCycle = (5 * m.updateCycle) >> 2
	maxCycle := (m.symbols + 6) << 3
	if m.updateCycle > maxCycle {
		m.updateCycle = maxCycle
	}
	m.symbolsUntilUpdate = m.updateCycle
}
