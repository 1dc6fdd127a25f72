// Package rangecoder implements the 32-bit range (arithmetic) coder that
// underlies every field codec in laz/v1, laz/v2 and laz/v3.
//
// The coder tracks an interval [base, base+length) that narrows with each
// encoded symbol; a decoder narrows the same interval in lockstep and
// recovers symbols from where the coded value falls. Two kinds of symbol
// source are modeled:
//
//   - Model: an adaptive multi-symbol distribution, used for residual codes
//     and small enumerations (k-buckets, classification deltas, and so on).
//   - BitModel: an adaptive binary distribution, used for single-bit
//     decisions (sign bits, "changed" flags).
//
// Both update their probability estimates after every symbol, periodically
// rescaling counts so the model can track a non-stationary source.
//
// Encoder output passes through a small ring buffer before it reaches the
// underlying io.Writer. Encoding a byte can retroactively increment earlier,
// already-produced bytes (carry propagation out of 0xFF runs); the ring
// buffer holds two generations of bufferSize bytes so a carry can always
// reach backward into bytes not yet handed to the writer.
package rangecoder
