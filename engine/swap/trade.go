package swap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/emberwallet/swapcore/engine/currency"
)

// TradeType tags which side of a trade the user fixed.
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	if t == ExactInput {
		return "exact_input"
	}
	return "exact_output"
}

// DefaultSlippageBps is the default slippage tolerance: 100/10000 = 1%.
const DefaultSlippageBps = 100

// MethodParameters is the opaque call the quoting source prepared for
// execution through the swap router.
type MethodParameters struct {
	Calldata hexutil.Bytes `json:"calldata"`
	Value    *big.Int      `json:"value"`
}

// ExecutionQuote carries the execution parameters that accompany a resolved
// trade: the raw transaction amount, the prepared router call and the router
// to send it to.
type ExecutionQuote struct {
	Amount           *big.Int
	MethodParameters *MethodParameters
	Router           common.Address
	GasUseEstimate   uint64
}

// Trade is a resolved exchange between two currencies. Exactly one side is
// exact; the other was derived from the quote. Slippage-adjusted bounds are
// computed on demand from the tolerance.
type Trade struct {
	InputAmount  *currency.Amount
	OutputAmount *currency.Amount
	Type         TradeType
	Quote        *ExecutionQuote
	SlippageBps  int64
}

// tolerance returns the trade's slippage tolerance, defaulting when unset.
func (t *Trade) tolerance() int64 {
	if t.SlippageBps <= 0 {
		return DefaultSlippageBps
	}
	return t.SlippageBps
}

// MinimumAmountOut is the least output the submitter will accept: the quoted
// output scaled down by the slippage tolerance, rounded down at the output
// currency's decimals.
func (t *Trade) MinimumAmountOut() *currency.Amount {
	return t.OutputAmount.MulBps(10000-t.tolerance(), true)
}

// MaximumAmountIn is the most input the submitter will spend: the quoted
// input scaled up by the slippage tolerance, rounded up at the input
// currency's decimals.
func (t *Trade) MaximumAmountIn() *currency.Amount {
	return t.InputAmount.MulBps(10000+t.tolerance(), false)
}

// ChainID returns the chain the trade executes on.
func (t *Trade) ChainID() currency.ChainID {
	return t.InputAmount.Currency.ChainID
}
