package dispatch

import (
	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/swap"
)

// TransactionType labels what a dispatched transaction does.
type TransactionType int

const (
	TxTypeSwap TransactionType = iota
	TxTypeWrap
	TxTypeTransfer
)

func (t TransactionType) String() string {
	switch t {
	case TxTypeWrap:
		return "wrap"
	case TxTypeTransfer:
		return "transfer"
	default:
		return "swap"
	}
}

// SwapTransactionInfo is the display/record payload attached to a swap
// transaction. Which raw-amount fields are populated depends on the trade
// type: an exact-input trade fixes the input and bounds the output from
// below; an exact-output trade fixes the output and bounds the input from
// above.
type SwapTransactionInfo struct {
	Type             TransactionType
	TradeType        swap.TradeType
	InputCurrencyID  currency.ID
	OutputCurrencyID currency.ID

	InputAmountRaw          string
	ExpectedOutputAmountRaw string
	MinimumOutputAmountRaw  string

	OutputAmountRaw        string
	ExpectedInputAmountRaw string
	MaximumInputAmountRaw  string
}

// TradeToTransactionInfo builds the transaction record for a trade,
// applying the trade's slippage tolerance to the unfixed side.
func TradeToTransactionInfo(t *swap.Trade) SwapTransactionInfo {
	info := SwapTransactionInfo{
		Type:             TxTypeSwap,
		TradeType:        t.Type,
		InputCurrencyID:  t.InputAmount.Currency.ID(),
		OutputCurrencyID: t.OutputAmount.Currency.ID(),
	}
	switch t.Type {
	case swap.ExactInput:
		info.InputAmountRaw = t.InputAmount.Raw().String()
		info.ExpectedOutputAmountRaw = t.OutputAmount.Raw().String()
		info.MinimumOutputAmountRaw = t.MinimumAmountOut().Raw().String()
	case swap.ExactOutput:
		info.OutputAmountRaw = t.OutputAmount.Raw().String()
		info.ExpectedInputAmountRaw = t.InputAmount.Raw().String()
		info.MaximumInputAmountRaw = t.MaximumAmountIn().Raw().String()
	}
	return info
}
