// Package integer implements the corrector-based integer codec shared by
// every predictive field codec: given a predicted value and the real value,
// it range-codes the difference (the "corrector") using a bucket-by-k
// scheme so that small correctors cost almost nothing and large ones still
// terminate in a bounded number of bits.
//
// A Compressor/Decompressor pair is built with the same bits/contexts/
// bitsHigh/valueRange configuration; a context selects one of several
// independent probability models, letting a field codec condition the
// corrector's distribution on, say, the number of returns in a point.
package integer
