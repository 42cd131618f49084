package payout

const (
	// DustLimit is the smallest output value the treasury will create.
	DustLimit uint64 = 1

	// DefaultFeeRate is the fee rate in satoshis per kilobyte.
	DefaultFeeRate uint64 = 100

	// MaxMemoLen bounds the OP_RETURN memo attached to a withdrawal.
	MaxMemoLen = 220
)

// Serialized size contributions of a P2PKH transaction.
const (
	txOverhead   = 10  // version(4) + locktime(4) + input/output counts
	p2pkhInput   = 148 // outpoint(36) + script len(1) + sig/pubkey(~107) + sequence(4)
	p2pkhOutput  = 34  // value(8) + script len(1) + script(25)
	opReturnBase = 11  // value(8) + script len(1) + OP_FALSE OP_RETURN
)

// EstimateTxSize returns an upper estimate of a P2PKH transaction with
// numInputs inputs, numOutputs P2PKH outputs and an optional memo.
func EstimateTxSize(numInputs, numOutputs, memoLen int) int {
	size := txOverhead + numInputs*p2pkhInput + numOutputs*p2pkhOutput
	if memoLen > 0 {
		size += opReturnBase + memoLen + pushOverhead(memoLen)
	}
	return size
}

// EstimateFee converts a size in bytes to a fee at rate sat/KB, rounding
// up. A zero rate selects DefaultFeeRate.
func EstimateFee(size int, rate uint64) uint64 {
	if rate == 0 {
		rate = DefaultFeeRate
	}
	if size <= 0 {
		return 0
	}
	return (uint64(size)*rate + 999) / 1000
}

func pushOverhead(n int) int {
	switch {
	case n < 0x4c:
		return 1
	case n <= 0xff:
		return 2
	default:
		return 3
	}
}
