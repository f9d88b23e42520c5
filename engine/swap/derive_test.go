package swap_test

import (
	"errors"
	"testing"

	"github.com/zeebo/assert"

	"github.com/emberwallet/swapcore/engine/currency"
	"github.com/emberwallet/swapcore/engine/swap"
)

func mustAmount(t *testing.T, text string, c *currency.Currency) *currency.Amount {
	t.Helper()
	a, ok := currency.ParseAmount(text, c)
	assert.True(t, ok)
	return a
}

func resolvedQuote(in, out *currency.Amount, tradeType swap.TradeType) swap.QuoteResult {
	return swap.QuoteResult{
		Status: swap.QuoteResolved,
		Trade: &swap.Trade{
			InputAmount:  in,
			OutputAmount: out,
			Type:         tradeType,
		},
	}
}

func TestDeriveEchoesExactSideVerbatim(t *testing.T) {
	var form swap.FormState
	form.SelectCurrency(swap.FieldInput, eth)
	form.SelectCurrency(swap.FieldOutput, usdc)
	form.EnterExactAmount(swap.FieldInput, "1.50")

	q := resolvedQuote(mustAmount(t, "1.5", eth), mustAmount(t, "4500", usdc), swap.ExactInput)
	info := swap.Derive(form, swap.BalanceView{}, q, newTestClassifier())

	// The typed text is echoed exactly, trailing zero included.
	assert.Equal(t, info.FormattedAmounts.Get(swap.FieldInput), "1.50")
	assert.Equal(t, info.FormattedAmounts.Get(swap.FieldOutput), "4500")
	assert.Equal(t, info.CurrencyAmounts.Get(swap.FieldOutput).Exact(), "4500")
	assert.Equal(t, info.WrapType, swap.WrapNotApplicable)
}

func TestDeriveExactOutput(t *testing.T) {
	var form swap.FormState
	form.SelectCurrency(swap.FieldInput, eth)
	form.SelectCurrency(swap.FieldOutput, usdc)
	form.EnterExactAmount(swap.FieldOutput, "3000")

	q := resolvedQuote(mustAmount(t, "1.02", eth), mustAmount(t, "3000", usdc), swap.ExactOutput)
	info := swap.Derive(form, swap.BalanceView{}, q, newTestClassifier())

	assert.Equal(t, info.FormattedAmounts.Get(swap.FieldOutput), "3000")
	assert.Equal(t, info.FormattedAmounts.Get(swap.FieldInput), "1.02")
	assert.Equal(t, info.ExactField, swap.FieldOutput)
}

func TestDeriveWithoutTrade(t *testing.T) {
	var form swap.FormState
	form.SelectCurrency(swap.FieldInput, eth)
	form.SelectCurrency(swap.FieldOutput, usdc)
	form.EnterExactAmount(swap.FieldInput, "1")

	for _, q := range []swap.QuoteResult{
		{Status: swap.QuotePending},
		{Status: swap.QuoteFailed, Err: errors.New("no route")},
	} {
		info := swap.Derive(form, swap.BalanceView{}, q, newTestClassifier())
		assert.Equal(t, info.FormattedAmounts.Get(swap.FieldInput), "1")
		assert.Equal(t, info.FormattedAmounts.Get(swap.FieldOutput), "")
		assert.Nil(t, info.CurrencyAmounts.Get(swap.FieldOutput))
	}
}

func TestDeriveWrapMirrorsAmount(t *testing.T) {
	var form swap.FormState
	form.SelectCurrency(swap.FieldInput, eth)
	form.SelectCurrency(swap.FieldOutput, weth)
	form.EnterExactAmount(swap.FieldInput, "2.5")

	info := swap.Derive(form, swap.BalanceView{}, swap.NoQuote(), newTestClassifier())

	assert.Equal(t, info.WrapType, swap.Wrap)
	assert.Equal(t, info.CurrencyAmounts.Get(swap.FieldInput).Exact(), "2.5")
	assert.Equal(t, info.CurrencyAmounts.Get(swap.FieldOutput).Exact(), "2.5")
	assert.Equal(t, info.FormattedAmounts.Get(swap.FieldInput), "2.5")
	assert.Equal(t, info.FormattedAmounts.Get(swap.FieldOutput), "2.5")
}

func TestDeriveMalformedExactAmount(t *testing.T) {
	var form swap.FormState
	form.SelectCurrency(swap.FieldInput, eth)
	form.SelectCurrency(swap.FieldOutput, usdc)
	form.EnterExactAmount(swap.FieldInput, "1.2.3")

	info := swap.Derive(form, swap.BalanceView{}, swap.NoQuote(), newTestClassifier())

	// Malformed input still echoes but resolves no amount.
	assert.Equal(t, info.FormattedAmounts.Get(swap.FieldInput), "1.2.3")
	assert.Nil(t, info.CurrencyAmounts.Get(swap.FieldInput))
}

func TestDerivePicksBalanceByNativeness(t *testing.T) {
	var form swap.FormState
	form.SelectCurrency(swap.FieldInput, eth)
	form.SelectCurrency(swap.FieldOutput, usdc)
	form.EnterExactAmount(swap.FieldInput, "1")

	balances := swap.BalanceView{
		NativeInput: mustAmount(t, "10", eth),
		TokenInput:  mustAmount(t, "999", usdc),
		TokenOutput: mustAmount(t, "250", usdc),
	}
	info := swap.Derive(form, balances, swap.NoQuote(), newTestClassifier())

	// Native input side reads the native balance, token output side the
	// token balance.
	assert.Equal(t, info.CurrencyBalances.Get(swap.FieldInput).Exact(), "10")
	assert.Equal(t, info.CurrencyBalances.Get(swap.FieldOutput).Exact(), "250")
}

func TestFormSwitchSides(t *testing.T) {
	var form swap.FormState
	form.SelectCurrency(swap.FieldInput, eth)
	form.SelectCurrency(swap.FieldOutput, usdc)
	form.EnterExactAmount(swap.FieldInput, "1.5")

	form.SwitchSides()

	// The typed text follows its field to the other currency.
	assert.True(t, form.Currencies.Get(swap.FieldInput).Equal(usdc))
	assert.True(t, form.Currencies.Get(swap.FieldOutput).Equal(eth))
	assert.Equal(t, form.ExactField, swap.FieldOutput)
	assert.Equal(t, form.ExactAmount, "1.5")
	assert.True(t, form.ExactCurrency().Equal(eth))
}
